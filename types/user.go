package types

import (
	"fmt"
	"time"
)

// TwitterTimeFormat is the layout of `created_at` in v1.1 payloads
const TwitterTimeFormat = time.RubyDate

// User is the subset of a Twitter v1.1 user object that we care about
type User struct {
	ID             int64  `json:"id"`
	IDStr          string `json:"id_str"`
	Name           string `json:"name"`
	ScreenName     string `json:"screen_name"`
	Description    string `json:"description"`
	FollowersCount int    `json:"followers_count"`
	CreatedAt      string `json:"created_at"`
}

// Users ...
type Users []User

// UserID returns the string form of the user's id, preferring `id_str`
func (u User) UserID() string {
	if u.IDStr != "" {
		return u.IDStr
	}
	return fmt.Sprintf("%d", u.ID)
}

// Created parses the account creation time
func (u User) Created() (time.Time, error) {
	return time.Parse(TwitterTimeFormat, u.CreatedAt)
}

// Identity returns the compact cache record for the user. An unparseable
// creation time is recorded as the zero epoch.
func (u User) Identity() Identity {
	var created int64
	if t, err := u.Created(); err == nil {
		created = t.UnixNano() / int64(time.Millisecond)
	}
	return Identity{
		Name:      u.Name,
		Handle:    u.ScreenName,
		Bio:       u.Description,
		Followers: u.FollowersCount,
		CreatedAt: created,
	}
}

func (u User) String() string {
	return fmt.Sprintf("%s (@%s) [%s]", u.Name, u.ScreenName, u.UserID())
}

// IDs is the response of `followers/ids` with `stringify_ids=true`
type IDs struct {
	IDs               []string `json:"ids"`
	NextCursorStr     string   `json:"next_cursor_str"`
	PreviousCursorStr string   `json:"previous_cursor_str"`
}

// ErrorDetail is a single entry of a v1.1 error payload
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body Twitter returns alongside non-2xx statuses
type ErrorResponse struct {
	Errors []ErrorDetail `json:"errors"`
}
