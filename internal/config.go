package internal

import (
	"errors"
	"time"
)

var (
	ErrMissingUsername = errors.New("error: no username configured")
)

// Config contains the tracker configuration parameters
type Config struct {
	Username string
	Store    string

	MaxStoreRequests int
	LookupBatchSize  int
	RecentCount      int

	now func() time.Time
}

// Now returns the current time according to the configured clock
func (c *Config) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
