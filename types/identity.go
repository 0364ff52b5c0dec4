package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingField is wrapped by decoding errors of incomplete records
	ErrMissingField = errors.New("error: identity record missing field")
)

// Identity is the compact user record kept in the local user store.
// The single letter keys match the original store format.
type Identity struct {
	Name      string `json:"n"`
	Handle    string `json:"h"`
	Bio       string `json:"d"`
	Followers int    `json:"f"`
	CreatedAt int64  `json:"c"`
}

// Created returns the account creation time
func (i Identity) Created() time.Time {
	return time.Unix(0, i.CreatedAt*int64(time.Millisecond))
}

// Format renders the identity the same way as a remote User
func (i Identity) Format(id string) string {
	return fmt.Sprintf("%s (@%s) [%s]", i.Name, i.Handle, id)
}

// UnmarshalJSON requires every field to be present and non-null
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      *string `json:"n"`
		Handle    *string `json:"h"`
		Bio       *string `json:"d"`
		Followers *int    `json:"f"`
		CreatedAt *int64  `json:"c"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Name == nil:
		return fmt.Errorf("%w: %q", ErrMissingField, "n")
	case raw.Handle == nil:
		return fmt.Errorf("%w: %q", ErrMissingField, "h")
	case raw.Bio == nil:
		return fmt.Errorf("%w: %q", ErrMissingField, "d")
	case raw.Followers == nil:
		return fmt.Errorf("%w: %q", ErrMissingField, "f")
	case raw.CreatedAt == nil:
		return fmt.Errorf("%w: %q", ErrMissingField, "c")
	}

	*i = Identity{
		Name:      *raw.Name,
		Handle:    *raw.Handle,
		Bio:       *raw.Bio,
		Followers: *raw.Followers,
		CreatedAt: *raw.CreatedAt,
	}
	return nil
}
