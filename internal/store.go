package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStore    = errors.New("error: invalid store")
	ErrInvalidDocument = errors.New("error: invalid document")
)

// Document names one of the persisted documents
type Document int

const (
	DocSnapshot Document = iota
	DocUnfollows
	DocUsers
)

// Documents lists every persisted document
var Documents = []Document{DocSnapshot, DocUnfollows, DocUsers}

func (d Document) String() string {
	switch d {
	case DocSnapshot:
		return "list"
	case DocUnfollows:
		return "unfollowers"
	case DocUsers:
		return "users"
	default:
		return "unknown"
	}
}

// Store persists the follower snapshot, unfollow log and user cache.
// Documents are loaded wholesale and rewritten wholesale; there is no
// locking between processes.
type Store interface {
	Close() error

	Load() (*State, error)
	Save(doc Document, state *State) error
}

// URI ...
type URI struct {
	Type string
	Path string
}

func (u URI) String() string {
	return fmt.Sprintf("%s://%s", u.Type, u.Path)
}

func ParseURI(uri string) (*URI, error) {
	parts := strings.Split(uri, "://")
	if len(parts) == 2 {
		return &URI{Type: strings.ToLower(parts[0]), Path: parts[1]}, nil
	}
	return nil, fmt.Errorf("invalid uri: %s", uri)
}

func NewStore(store string) (Store, error) {
	u, err := ParseURI(store)
	if err != nil {
		return nil, fmt.Errorf("error parsing store uri: %s", err)
	}

	switch u.Type {
	case "json":
		return newJSONStore(u.Path)
	case "bitcask":
		return newBitcaskStore(u.Path)
	default:
		return nil, ErrInvalidStore
	}
}
