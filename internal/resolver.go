package internal

import (
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/jointwt/unfollow/client"
	"github.com/jointwt/unfollow/types"
)

// Lookuper resolves user ids against the Twitter API
type Lookuper interface {
	LookupUsers(ids []string) (types.Users, error)
	ShowUser(id string) (types.User, error)
}

// Source tells where a Result came from
type Source string

const (
	SourceRemote   Source = "remote"
	SourceCache    Source = "cache"
	SourceNotFound Source = "not-found"
)

// Result is the outcome of resolving a single id
type Result struct {
	ID       string
	Identity types.Identity
	Source   Source

	// NotInStore is set when the user cache was consulted and missed
	NotInStore bool
}

// Found ...
func (r Result) Found() bool {
	return r.Source != SourceNotFound
}

func (r Result) String() string {
	if !r.Found() {
		return fmt.Sprintf("ID [%s] not found", r.ID)
	}
	return r.Identity.Format(r.ID)
}

// Resolver maps user ids to identities. Ids a bulk lookup misses, including
// a batch answered with 404, fall back to the user cache and then to single
// lookups. The cache itself is never written.
type Resolver struct {
	api       Lookuper
	users     UserCache
	batchSize int

	// identities resolved remotely during this run
	seen *cache.Cache
}

func NewResolver(api Lookuper, users UserCache, batchSize int) *Resolver {
	if batchSize < 1 || batchSize > client.MaxLookupSize {
		batchSize = client.MaxLookupSize
	}
	if users == nil {
		users = make(UserCache)
	}
	return &Resolver{
		api:       api,
		users:     users,
		batchSize: batchSize,
		seen:      cache.New(cache.NoExpiration, 0),
	}
}

func (r *Resolver) remember(id string, rec types.Identity) {
	r.seen.Set(id, rec, cache.NoExpiration)
}

func (r *Resolver) recall(id string) (types.Identity, bool) {
	v, ok := r.seen.Get(id)
	if !ok {
		return types.Identity{}, false
	}
	return v.(types.Identity), true
}

// Resolve looks ids up in bulk. Results follow the order of the remote
// response, followed by those resolved through a fallback.
func (r *Resolver) Resolve(ids []string) ([]Result, error) {
	if len(ids) == 0 {
		log.Info("List of user IDs is empty.")
		return nil, nil
	}

	var results []Result
	for start := 0; start < len(ids); start += r.batchSize {
		end := start + r.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		batch, err := r.resolveBatch(ids[start:end])
		results = append(results, batch...)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

func (r *Resolver) resolveBatch(ids []string) ([]Result, error) {
	users, err := r.api.LookupUsers(ids)
	if err != nil {
		if !errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("error looking up users: %w", err)
		}
		log.Warn("There was a non-match for user ID. Switching to manual mode.")
	}

	results := make([]Result, 0, len(ids))
	found := make(map[string]bool, len(users))
	for idx, u := range users {
		id := u.UserID()
		rec := u.Identity()
		found[id] = true
		r.remember(id, rec)
		log.Debugf("User #%d: %s", idx, u)
		results = append(results, Result{ID: id, Identity: rec, Source: SourceRemote})
	}

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return results, nil
	}

	log.Infof("%d missing accounts from lookup. Possibly incorrect ID, or user suspended/deleted.", len(missing))
	log.Info("Pulling from local store.")

	for _, id := range missing {
		if rec, ok := r.users[id]; ok {
			results = append(results, Result{ID: id, Identity: rec, Source: SourceCache})
			continue
		}

		log.Infof("ID [%s] could not be found in local store.", id)
		res, err := r.ResolveManual([]string{id})
		for i := range res {
			res[i].NotInStore = true
		}
		results = append(results, res...)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// ResolveManual looks ids up one at a time, in order. A missing account is
// reported and skipped; any other error stops the loop.
func (r *Resolver) ResolveManual(ids []string) ([]Result, error) {
	if len(ids) == 0 {
		log.Info("List of user IDs is empty.")
		return nil, nil
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.recall(id); ok {
			results = append(results, Result{ID: id, Identity: rec, Source: SourceRemote})
			continue
		}

		u, err := r.api.ShowUser(id)
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				log.Warnf("ID [%s] not found on Twitter. Possibly incorrect ID, or user suspended/deleted.", id)
				results = append(results, Result{ID: id, Source: SourceNotFound})
				continue
			}
			return results, fmt.Errorf("error looking up user %s: %w", id, err)
		}

		rec := u.Identity()
		r.remember(id, rec)
		results = append(results, Result{ID: id, Identity: rec, Source: SourceRemote})
	}

	return results, nil
}
