package internal

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	log "github.com/sirupsen/logrus"
)

var jsonFilenames = map[Document]string{
	DocSnapshot:  "list.json",
	DocUnfollows: "unfollowers.json",
	DocUsers:     "userStore.json",
}

// JSONStore keeps each document in its own flat JSON file
type JSONStore struct {
	path string
}

func newJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return &JSONStore{path: path}, nil
}

func (js *JSONStore) filename(doc Document) (string, error) {
	name, ok := jsonFilenames[doc]
	if !ok {
		return "", ErrInvalidDocument
	}
	return securejoin.SecureJoin(js.path, name)
}

// Close ...
func (js *JSONStore) Close() error {
	return nil
}

// Load reads every document. Missing files load as empty documents.
func (js *JSONStore) Load() (*State, error) {
	state := NewState()

	for _, doc := range Documents {
		fn, err := js.filename(doc)
		if err != nil {
			return nil, err
		}

		data, err := ioutil.ReadFile(fn)
		if err != nil {
			if os.IsNotExist(err) {
				log.Debugf("%s not found, starting empty", fn)
				continue
			}
			return nil, err
		}

		if err := state.Decode(doc, data); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", fn, err)
		}
	}

	return state, nil
}

// Save writes doc to a temporary file and renames it into place
func (js *JSONStore) Save(doc Document, state *State) error {
	fn, err := js.filename(doc)
	if err != nil {
		return err
	}

	data, err := state.Encode(doc)
	if err != nil {
		return err
	}

	f, err := ioutil.TempFile(filepath.Dir(fn), "."+filepath.Base(fn)+"-")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err = f.Close(); err != nil {
		return err
	}

	if err = os.Chmod(f.Name(), 0644); err != nil {
		return err
	}

	log.Debugf("writing %s", fn)
	return os.Rename(f.Name(), fn)
}
