package internal

import (
	"net/http"

	"github.com/jointwt/unfollow/client"
	"github.com/jointwt/unfollow/types"
)

type fakeAPI struct {
	followers []string
	users     map[string]types.User

	followersErr error
	lookupErr    error
	showErrs     map[string]error

	lookups [][]string
	shows   []string
}

func newFakeAPI(users ...types.User) *fakeAPI {
	f := &fakeAPI{
		users:    make(map[string]types.User),
		showErrs: make(map[string]error),
	}
	for _, u := range users {
		f.users[u.UserID()] = u
	}
	return f
}

func newUser(id, name string) types.User {
	return types.User{
		IDStr:          id,
		Name:           name,
		ScreenName:     name,
		FollowersCount: 1,
		CreatedAt:      "Tue Mar 21 20:50:14 +0000 2006",
	}
}

func notFound() error {
	return &client.APIError{StatusCode: http.StatusNotFound}
}

func (f *fakeAPI) calls() int {
	return len(f.lookups) + len(f.shows)
}

func (f *fakeAPI) FollowerIDs(screenName string) ([]string, error) {
	if f.followersErr != nil {
		return nil, f.followersErr
	}
	return append([]string{}, f.followers...), nil
}

func (f *fakeAPI) LookupUsers(ids []string) (types.Users, error) {
	f.lookups = append(f.lookups, append([]string{}, ids...))
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	var users types.Users
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			users = append(users, u)
		}
	}
	if len(users) == 0 {
		return nil, notFound()
	}
	return users, nil
}

func (f *fakeAPI) LookupScreenNames(handles ...string) (types.Users, error) {
	var users types.Users
	for _, handle := range handles {
		for _, u := range f.users {
			if u.ScreenName == handle {
				users = append(users, u)
			}
		}
	}
	if len(users) == 0 {
		return nil, notFound()
	}
	return users, nil
}

func (f *fakeAPI) ShowUser(id string) (types.User, error) {
	f.shows = append(f.shows, id)
	if err, ok := f.showErrs[id]; ok {
		return types.User{}, err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return types.User{}, notFound()
}
