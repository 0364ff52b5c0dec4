package internal

import (
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointwt/unfollow/client"
	"github.com/jointwt/unfollow/types"
)

var testNow = time.Date(2020, 10, 1, 12, 0, 0, 0, time.UTC)

func testNowMillis() int64 {
	return testNow.UnixNano() / int64(time.Millisecond)
}

func newTestTracker(t *testing.T, api API, options ...Option) (*Tracker, string) {
	dir := t.TempDir()
	options = append([]Option{
		WithUsername("prologic"),
		WithStore("json://" + dir),
		WithClock(func() time.Time { return testNow }),
	}, options...)

	tracker, err := NewTracker(api, options...)
	require.NoError(t, err)
	t.Cleanup(func() { tracker.Close() })
	return tracker, dir
}

// failingStore fails saves of a single document
type failingStore struct {
	Store
	doc Document
}

func (fs *failingStore) Save(doc Document, state *State) error {
	if doc == fs.doc {
		return fmt.Errorf("error: cannot save %s", doc)
	}
	return fs.Store.Save(doc, state)
}

func seed(t *testing.T, tracker *Tracker, state *State) {
	for _, doc := range Documents {
		require.NoError(t, tracker.db.Save(doc, state))
	}
}

func TestNewTracker(t *testing.T) {
	testCases := []struct {
		name    string
		options []Option
	}{
		{name: "bad store", options: []Option{WithStore("nope://")}},
		{name: "batch too large", options: []Option{WithLookupBatchSize(101)}},
		{name: "no store requests", options: []Option{WithMaxStoreRequests(0)}},
		{name: "negative recent", options: []Option{WithRecentCount(-1)}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := NewTracker(newFakeAPI(), testCase.options...)
			assert.Error(t, err)
		})
	}
}

func TestTracker_Refresh(t *testing.T) {
	t.Run("records unfollows and replaces the snapshot", func(t *testing.T) {
		assert := assert.New(t)

		api := newFakeAPI()
		api.followers = []string{"1", "3", "4"}
		tracker, dir := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"1", "2", "3"}
		seed(t, tracker, state)

		report, err := tracker.Refresh()
		require.NoError(t, err)
		assert.Equal([]string{"2"}, report.Delta.Removed)
		assert.Equal([]string{"4"}, report.Delta.Added)
		assert.Equal(3, report.Fetched)
		assert.Equal(3, report.Previous)

		loaded, err := tracker.db.Load()
		require.NoError(t, err)
		assert.Equal(Snapshot{"1", "3", "4"}, loaded.Snapshot)
		assert.Equal([]string{"2"}, loaded.Unfollows.IDs())
		assert.Equal([]int64{testNowMillis()}, loaded.Unfollows.Get("2"))

		data, err := ioutil.ReadFile(filepath.Join(dir, "unfollowers.json"))
		require.NoError(t, err)
		assert.Equal(fmt.Sprintf(`{"2":[%d]}`, testNowMillis()), string(data))
	})

	t.Run("is idempotent for an unchanged snapshot", func(t *testing.T) {
		assert := assert.New(t)

		api := newFakeAPI()
		api.followers = []string{"1", "3", "4"}
		tracker, _ := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"1", "2", "3"}
		seed(t, tracker, state)

		_, err := tracker.Refresh()
		require.NoError(t, err)
		first, err := tracker.db.Load()
		require.NoError(t, err)

		report, err := tracker.Refresh()
		require.NoError(t, err)
		assert.False(report.Delta.Changed())

		second, err := tracker.db.Load()
		require.NoError(t, err)
		assert.Equal(first.Snapshot, second.Snapshot)
		assert.Equal(first.Unfollows, second.Unfollows)
	})

	t.Run("appends repeated unfollows", func(t *testing.T) {
		api := newFakeAPI()
		tracker, _ := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"7"}
		state.Unfollows.Record("7", 1)
		seed(t, tracker, state)

		_, err := tracker.Refresh()
		require.NoError(t, err)

		loaded, err := tracker.db.Load()
		require.NoError(t, err)
		assert.Equal(t, []int64{1, testNowMillis()}, loaded.Unfollows.Get("7"))
		assert.Empty(t, loaded.Snapshot)
	})

	t.Run("remote error leaves state untouched", func(t *testing.T) {
		api := newFakeAPI()
		api.followersErr = &client.APIError{StatusCode: http.StatusUnauthorized}
		tracker, _ := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"1"}
		seed(t, tracker, state)

		_, err := tracker.Refresh()
		assert.True(t, errors.Is(err, client.ErrUnauthorized))

		loaded, err := tracker.db.Load()
		require.NoError(t, err)
		assert.Equal(t, Snapshot{"1"}, loaded.Snapshot)
	})

	t.Run("failed unfollow log save keeps the old snapshot", func(t *testing.T) {
		api := newFakeAPI()
		api.followers = []string{"1", "3"}
		tracker, _ := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"1", "2", "3"}
		seed(t, tracker, state)

		db := tracker.db
		tracker.db = &failingStore{Store: db, doc: DocUnfollows}
		_, err := tracker.Refresh()
		assert.Error(t, err)

		tracker.db = db
		loaded, err := tracker.db.Load()
		require.NoError(t, err)
		assert.Equal(t, Snapshot{"1", "2", "3"}, loaded.Snapshot)

		report, err := tracker.Refresh()
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, report.Delta.Removed)

		loaded, err = tracker.db.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, loaded.Unfollows.IDs())
		assert.Equal(t, Snapshot{"1", "3"}, loaded.Snapshot)
	})

	t.Run("requires a username", func(t *testing.T) {
		tracker, _ := newTestTracker(t, newFakeAPI(), WithUsername(""))
		_, err := tracker.Refresh()
		assert.Equal(t, ErrMissingUsername, err)
	})
}

func TestTracker_LookupHandle(t *testing.T) {
	api := newFakeAPI(newUser("12", "jack"))
	tracker, _ := newTestTracker(t, api)

	res, err := tracker.LookupHandle("jack")
	require.NoError(t, err)
	assert.Equal(t, "12", res.ID)
	assert.True(t, res.Found())

	res, err = tracker.LookupHandle("nobody")
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, "nobody", res.Identity.Handle)
}

func TestTracker_LookupIDs(t *testing.T) {
	api := newFakeAPI(newUser("1", "one"))
	tracker, _ := newTestTracker(t, api)

	results, err := tracker.LookupIDs([]string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(results))
	assert.Equal(t, []string{"1", "2"}, api.shows)
	assert.Empty(t, api.lookups)
}

func TestTracker_SyncCache(t *testing.T) {
	t.Run("caches uncached followers up to the limit", func(t *testing.T) {
		assert := assert.New(t)

		api := newFakeAPI(newUser("1", "one"), newUser("2", "two"), newUser("3", "three"))
		tracker, _ := newTestTracker(t, api, WithMaxStoreRequests(2))

		state := NewState()
		state.Snapshot = Snapshot{"1", "2", "3", "4"}
		state.Users["1"] = types.Identity{Name: "Stale", Handle: "stale"}
		seed(t, tracker, state)

		report, err := tracker.SyncCache()
		require.NoError(t, err)
		assert.Equal(2, report.Requested)
		assert.Equal(2, report.Added)
		assert.Equal([][]string{{"2", "3"}}, api.lookups)

		loaded, err := tracker.db.Load()
		require.NoError(t, err)
		assert.Len(loaded.Users, 3)
		assert.Equal("Stale", loaded.Users["1"].Name)
		assert.Equal("three", loaded.Users["3"].Handle)
	})

	t.Run("all followers cached makes no calls", func(t *testing.T) {
		api := newFakeAPI()
		tracker, _ := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"1"}
		state.Users["1"] = types.Identity{Name: "One", Handle: "one"}
		seed(t, tracker, state)

		report, err := tracker.SyncCache()
		require.NoError(t, err)
		assert.Equal(t, 0, report.Added)
		assert.Equal(t, 0, api.calls())
	})

	t.Run("nobody found", func(t *testing.T) {
		api := newFakeAPI()
		tracker, _ := newTestTracker(t, api)

		state := NewState()
		state.Snapshot = Snapshot{"1"}
		seed(t, tracker, state)

		report, err := tracker.SyncCache()
		require.NoError(t, err)
		assert.Equal(t, 1, report.Requested)
		assert.Equal(t, 0, report.Added)
	})
}

func TestTracker_CacheCount(t *testing.T) {
	tracker, _ := newTestTracker(t, newFakeAPI())

	n, err := tracker.CacheCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	state := NewState()
	state.Users["1"] = types.Identity{}
	state.Users["2"] = types.Identity{}
	seed(t, tracker, state)

	n, err = tracker.CacheCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTracker_Recent(t *testing.T) {
	t.Run("defaults to ten, newest first, stable", func(t *testing.T) {
		assert := assert.New(t)

		api := newFakeAPI()
		state := NewState()
		for i := 1; i <= 12; i++ {
			id := fmt.Sprintf("%d", i)
			api.users[id] = newUser(id, "u"+id)
			state.Unfollows.Record(id, 100)
		}
		state.Unfollows.Record("12", 200)

		tracker, _ := newTestTracker(t, api)
		seed(t, tracker, state)

		unfollowers, err := tracker.Recent(0)
		require.NoError(t, err)

		var got []string
		for _, u := range unfollowers {
			got = append(got, u.ID)
		}
		assert.Equal([]string{"12", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, got)
		assert.Equal([]int64{100, 200}, unfollowers[0].Unfollows)
		assert.Len(api.lookups, 1)
	})

	t.Run("falls back to the user cache", func(t *testing.T) {
		api := newFakeAPI(newUser("1", "one"))
		state := NewState()
		state.Unfollows.Record("1", 10)
		state.Unfollows.Record("2", 20)
		state.Users["2"] = types.Identity{Name: "Two", Handle: "two"}

		tracker, _ := newTestTracker(t, api)
		seed(t, tracker, state)

		unfollowers, err := tracker.Recent(5)
		require.NoError(t, err)
		require.Len(t, unfollowers, 2)
		assert.Equal(t, "1", unfollowers[0].ID)
		assert.Equal(t, SourceCache, unfollowers[1].Source)
		assert.Equal(t, []int64{20}, unfollowers[1].Unfollows)
		assert.Empty(t, api.shows)
	})
}
