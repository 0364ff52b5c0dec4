package internal

import (
	"fmt"
	"time"

	"github.com/jointwt/unfollow/client"
)

const (
	// DefaultStore is the default store used for the follower list,
	// unfollow log and user cache
	DefaultStore = "json://./data"

	// DefaultMaxStoreRequests is the number of uncached followers
	// resolved by a single cache sync
	DefaultMaxStoreRequests = 100

	// DefaultLookupBatchSize is the number of ids per bulk lookup
	DefaultLookupBatchSize = client.MaxLookupSize

	// DefaultRecentCount is the number of recent unfollowers reported
	DefaultRecentCount = 10
)

func NewConfig() *Config {
	return &Config{
		Store:            DefaultStore,
		MaxStoreRequests: DefaultMaxStoreRequests,
		LookupBatchSize:  DefaultLookupBatchSize,
		RecentCount:      DefaultRecentCount,
	}
}

// Option is a function that takes a config struct and modifies it
type Option func(*Config) error

// WithUsername sets the account whose followers are tracked
func WithUsername(username string) Option {
	return func(cfg *Config) error {
		cfg.Username = username
		return nil
	}
}

// WithStore sets the store uri to use
func WithStore(store string) Option {
	return func(cfg *Config) error {
		cfg.Store = store
		return nil
	}
}

// WithMaxStoreRequests sets how many uncached followers a cache sync resolves
func WithMaxStoreRequests(n int) Option {
	return func(cfg *Config) error {
		if n < 1 || n > client.MaxLookupSize {
			return fmt.Errorf("error: max store requests must be between 1 and %d", client.MaxLookupSize)
		}
		cfg.MaxStoreRequests = n
		return nil
	}
}

// WithLookupBatchSize sets the number of ids sent per bulk lookup
func WithLookupBatchSize(n int) Option {
	return func(cfg *Config) error {
		if n < 1 || n > client.MaxLookupSize {
			return fmt.Errorf("error: lookup batch size must be between 1 and %d", client.MaxLookupSize)
		}
		cfg.LookupBatchSize = n
		return nil
	}
}

// WithRecentCount sets the default size of the recent unfollowers report
func WithRecentCount(n int) Option {
	return func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("error: recent count must be positive")
		}
		cfg.RecentCount = n
		return nil
	}
}

// WithClock sets the clock used to timestamp unfollows
func WithClock(now func() time.Time) Option {
	return func(cfg *Config) error {
		cfg.now = now
		return nil
	}
}
