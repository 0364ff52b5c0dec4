package internal

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/unfollow/client"
	"github.com/jointwt/unfollow/types"
)

// API is the subset of the Twitter API the tracker uses
type API interface {
	Lookuper

	FollowerIDs(screenName string) ([]string, error)
	LookupScreenNames(handles ...string) (types.Users, error)
}

// RefreshReport summarises a refresh
type RefreshReport struct {
	Fetched  int
	Previous int
	Delta    Delta
}

// SyncReport summarises a cache sync
type SyncReport struct {
	Requested int
	Added     int
}

// Unfollower is a recently unfollowed account and its unfollow times
type Unfollower struct {
	Result
	Unfollows []int64
}

// Tracker runs the follower operations. Each operation loads state, runs
// and saves only the documents it changed.
type Tracker struct {
	config *Config
	api    API
	db     Store
}

func NewTracker(api API, options ...Option) (*Tracker, error) {
	config := NewConfig()

	for _, opt := range options {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	db, err := NewStore(config.Store)
	if err != nil {
		log.WithError(err).Error("error creating store")
		return nil, err
	}

	return &Tracker{config: config, api: api, db: db}, nil
}

// Config ...
func (t *Tracker) Config() *Config {
	return t.config
}

// Close ...
func (t *Tracker) Close() error {
	return t.db.Close()
}

func (t *Tracker) resolver(state *State) *Resolver {
	return NewResolver(t.api, state.Users, t.config.LookupBatchSize)
}

// Refresh fetches the current followers, records anyone who is no longer
// following and replaces the stored snapshot
func (t *Tracker) Refresh() (*RefreshReport, error) {
	if t.config.Username == "" {
		return nil, ErrMissingUsername
	}

	state, err := t.db.Load()
	if err != nil {
		return nil, err
	}

	fetched, err := t.api.FollowerIDs(t.config.Username)
	if err != nil {
		return nil, fmt.Errorf("error fetching followers of %s: %w", t.config.Username, err)
	}
	newIDs := Snapshot(fetched).Unique()
	log.Infof("Fetched %d IDs", len(newIDs))

	oldIDs := state.Snapshot
	log.Info(CountChange(len(newIDs), len(oldIDs)))

	delta := Diff(newIDs, oldIDs)
	log.Infof("%d unfollowed based off previous list", len(delta.Removed))
	log.Infof("%d new followers", len(delta.Added))

	// the old snapshot is only replaced once its removals are on disk
	now := t.config.Now()
	for _, id := range delta.Removed {
		state.RecordUnfollow(id, now)
	}
	if err := t.db.Save(DocUnfollows, state); err != nil {
		return nil, fmt.Errorf("error saving unfollow log: %w", err)
	}

	state.Snapshot = newIDs
	if err := t.db.Save(DocSnapshot, state); err != nil {
		return nil, fmt.Errorf("error saving follower list: %w", err)
	}

	return &RefreshReport{
		Fetched:  len(newIDs),
		Previous: len(oldIDs),
		Delta:    delta,
	}, nil
}

// LookupHandle resolves a single screen name
func (t *Tracker) LookupHandle(handle string) (Result, error) {
	users, err := t.api.LookupScreenNames(handle)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			log.Warnf("@%s not found on Twitter.", handle)
			return Result{Identity: types.Identity{Handle: handle}, Source: SourceNotFound}, nil
		}
		return Result{}, fmt.Errorf("error looking up @%s: %w", handle, err)
	}
	if len(users) == 0 {
		return Result{Identity: types.Identity{Handle: handle}, Source: SourceNotFound}, nil
	}

	u := users[0]
	return Result{ID: u.UserID(), Identity: u.Identity(), Source: SourceRemote}, nil
}

// LookupIDs resolves explicitly requested ids one at a time
func (t *Tracker) LookupIDs(ids []string) ([]Result, error) {
	state, err := t.db.Load()
	if err != nil {
		return nil, err
	}

	return t.resolver(state).ResolveManual(ids)
}

// SyncCache resolves uncached followers from the stored snapshot and adds
// them to the user cache
func (t *Tracker) SyncCache() (*SyncReport, error) {
	state, err := t.db.Load()
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, id := range state.Snapshot {
		if len(pending) == t.config.MaxStoreRequests {
			break
		}
		if !state.Users.Has(id) {
			pending = append(pending, id)
		}
	}

	if len(pending) == 0 {
		log.Info("All current followers have been stored.")
		return &SyncReport{}, nil
	}

	users, err := t.api.LookupUsers(pending)
	if err != nil {
		if !errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("error looking up users: %w", err)
		}
		log.Warn("None of the requested followers could be found.")
	}
	log.Infof("Found %d new entries", len(users))

	added := state.CacheUsers(users)
	if added > 0 {
		if err := t.db.Save(DocUsers, state); err != nil {
			return nil, fmt.Errorf("error saving user store: %w", err)
		}
	}

	return &SyncReport{Requested: len(pending), Added: added}, nil
}

// CacheCount returns the number of cached users
func (t *Tracker) CacheCount() (int, error) {
	state, err := t.db.Load()
	if err != nil {
		return 0, err
	}
	return len(state.Users), nil
}

// Recent resolves the n most recently unfollowed ids. n < 1 uses the
// configured default.
func (t *Tracker) Recent(n int) ([]Unfollower, error) {
	if n < 1 {
		n = t.config.RecentCount
	}

	state, err := t.db.Load()
	if err != nil {
		return nil, err
	}

	ids := state.Unfollows.Recent(n)
	results, err := t.resolver(state).Resolve(ids)

	unfollowers := make([]Unfollower, 0, len(results))
	for _, res := range results {
		unfollowers = append(unfollowers, Unfollower{
			Result:    res,
			Unfollows: state.Unfollows.Get(res.ID),
		})
	}

	return unfollowers, err
}
