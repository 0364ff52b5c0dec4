package internal

import (
	"fmt"

	"github.com/prologic/bitcask"
	log "github.com/sirupsen/logrus"
)

const (
	documentsKeyPrefix = "/documents"

	// a full follower page is ~100KB of ids
	maxDocumentSize = 1 << 26
)

// BitcaskStore keeps each document under its own key
type BitcaskStore struct {
	db *bitcask.Bitcask
}

func newBitcaskStore(path string) (*BitcaskStore, error) {
	db, err := bitcask.Open(
		path,
		bitcask.WithMaxKeySize(256),
		bitcask.WithMaxValueSize(maxDocumentSize),
	)
	if err != nil {
		return nil, err
	}

	return &BitcaskStore{db: db}, nil
}

func documentKey(doc Document) []byte {
	return []byte(fmt.Sprintf("%s/%s", documentsKeyPrefix, doc))
}

// Close ...
func (bs *BitcaskStore) Close() error {
	log.Debug("syncing store ...")
	if err := bs.db.Sync(); err != nil {
		log.WithError(err).Error("error syncing store")
		return err
	}

	log.Debug("closing store ...")
	if err := bs.db.Close(); err != nil {
		log.WithError(err).Error("error closing store")
		return err
	}

	return nil
}

// Load ...
func (bs *BitcaskStore) Load() (*State, error) {
	state := NewState()

	for _, doc := range Documents {
		data, err := bs.db.Get(documentKey(doc))
		if err != nil {
			if err == bitcask.ErrKeyNotFound {
				continue
			}
			return nil, err
		}

		if err := state.Decode(doc, data); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", documentKey(doc), err)
		}
	}

	return state, nil
}

// Save ...
func (bs *BitcaskStore) Save(doc Document, state *State) error {
	data, err := state.Encode(doc)
	if err != nil {
		return err
	}

	if err := bs.db.Put(documentKey(doc), data); err != nil {
		return err
	}
	return bs.db.Sync()
}
