package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jointwt/unfollow/types"
)

// Snapshot is the follower id list as of the last refresh
type Snapshot []string

// Unique returns the snapshot without duplicate ids, keeping first
// occurrences in order
func (s Snapshot) Unique() Snapshot {
	seen := make(map[string]bool, len(s))
	out := make(Snapshot, 0, len(s))
	for _, id := range s {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// UnfollowLog maps a user id to the times (epoch millis) it was seen missing
// from a refresh. Ids keep the order they were first logged in, which is
// also the order they are encoded in.
type UnfollowLog struct {
	order   []string
	entries map[string][]int64
}

func NewUnfollowLog() *UnfollowLog {
	return &UnfollowLog{entries: make(map[string][]int64)}
}

// Record appends ts to the entry for id, creating it if needed
func (l *UnfollowLog) Record(id string, ts int64) {
	if _, ok := l.entries[id]; !ok {
		l.order = append(l.order, id)
	}
	l.entries[id] = append(l.entries[id], ts)
}

// Get returns the timestamps recorded for id
func (l *UnfollowLog) Get(id string) []int64 {
	return l.entries[id]
}

// Len returns the number of distinct ids logged
func (l *UnfollowLog) Len() int {
	return len(l.order)
}

// IDs returns the logged ids in log order
func (l *UnfollowLog) IDs() []string {
	ids := make([]string, len(l.order))
	copy(ids, l.order)
	return ids
}

// Latest returns the most recent timestamp for id, or 0
func (l *UnfollowLog) Latest(id string) int64 {
	var latest int64
	for _, ts := range l.entries[id] {
		if ts > latest {
			latest = ts
		}
	}
	return latest
}

// Recent returns up to n ids ordered by latest unfollow, newest first.
// Ties keep log order.
func (l *UnfollowLog) Recent(n int) []string {
	ids := l.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return l.Latest(ids[i]) > l.Latest(ids[j])
	})
	if n < len(ids) {
		ids = ids[:n]
	}
	return ids
}

func (l *UnfollowLog) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for i, id := range l.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(l.entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *UnfollowLog) UnmarshalJSON(data []byte) error {
	*l = *NewUnfollowLog()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("error: unfollow log must be an object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id := tok.(string)

		var stamps []int64
		if err := dec.Decode(&stamps); err != nil {
			return fmt.Errorf("error decoding unfollows of %s: %w", id, err)
		}
		if _, ok := l.entries[id]; !ok {
			l.order = append(l.order, id)
		}
		if stamps == nil {
			stamps = []int64{}
		}
		l.entries[id] = stamps
	}

	_, err = dec.Token()
	return err
}

// UserCache maps a user id to its identity. Entries are never replaced.
type UserCache map[string]types.Identity

// Has ...
func (c UserCache) Has(id string) bool {
	_, ok := c[id]
	return ok
}

// Add inserts rec unless id is already present
func (c UserCache) Add(id string, rec types.Identity) bool {
	if c.Has(id) {
		return false
	}
	c[id] = rec
	return true
}

// State holds the three persisted documents
type State struct {
	Snapshot  Snapshot
	Unfollows *UnfollowLog
	Users     UserCache
}

func NewState() *State {
	return &State{
		Snapshot:  Snapshot{},
		Unfollows: NewUnfollowLog(),
		Users:     make(UserCache),
	}
}

// RecordUnfollow appends ts to the unfollow log of id
func (s *State) RecordUnfollow(id string, ts time.Time) {
	s.Unfollows.Record(id, ts.UnixNano()/int64(time.Millisecond))
}

// CacheUsers stores identities for users not yet cached and returns how
// many were added
func (s *State) CacheUsers(users types.Users) int {
	var added int
	for _, u := range users {
		if s.Users.Add(u.UserID(), u.Identity()) {
			added++
		}
	}
	return added
}

// Encode serializes a single document
func (s *State) Encode(doc Document) ([]byte, error) {
	switch doc {
	case DocSnapshot:
		return json.Marshal(s.Snapshot)
	case DocUnfollows:
		return json.Marshal(s.Unfollows)
	case DocUsers:
		return json.Marshal(s.Users)
	default:
		return nil, ErrInvalidDocument
	}
}

// Decode replaces a single document with data
func (s *State) Decode(doc Document, data []byte) error {
	switch doc {
	case DocSnapshot:
		var snapshot Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return err
		}
		if snapshot == nil {
			snapshot = Snapshot{}
		}
		s.Snapshot = snapshot
	case DocUnfollows:
		unfollows := NewUnfollowLog()
		if err := json.Unmarshal(data, unfollows); err != nil {
			return err
		}
		s.Unfollows = unfollows
	case DocUsers:
		var users UserCache
		if err := json.Unmarshal(data, &users); err != nil {
			return err
		}
		if users == nil {
			users = make(UserCache)
		}
		s.Users = users
	default:
		return ErrInvalidDocument
	}
	return nil
}
