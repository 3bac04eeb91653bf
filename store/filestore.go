package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openweb3-io/pkpkit/types"
)

// FileStore keeps bindings in a single human-readable JSON file. The file
// is read in full on every lookup and rewritten in full on every insert.
// Inserts take a process-level lock, re-read the file, and refuse a second
// binding for the same user id, so two racing first-time issuances resolve
// to one stored key (first writer wins). The rewrite goes through a temp
// file in the same directory followed by a rename, so a crash mid-write
// never leaves a truncated store behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = &FileStore{}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "error creating store directory")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) load() ([]*types.Binding, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading store file")
	}
	if len(data) == 0 {
		return nil, nil
	}
	var bindings []*types.Binding
	if err := json.Unmarshal(data, &bindings); err != nil {
		return nil, errors.Wrapf(err, "store file %s is corrupt", s.path)
	}
	return bindings, nil
}

func (s *FileStore) write(bindings []*types.Binding) error {
	data, err := json.MarshalIndent(bindings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error encoding bindings")
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bindings-*")
	if err != nil {
		return errors.Wrap(err, "error creating temp store file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "error writing store file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "error syncing store file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "error closing store file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "error replacing store file")
}

func (s *FileStore) Get(id string) (*types.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bindings, err := s.load()
	if err != nil {
		return nil, err
	}
	// exact case-sensitive match, first match wins
	for _, binding := range bindings {
		if binding.User.ID == id {
			return binding, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) Put(binding *types.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bindings, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range bindings {
		if existing.User.ID == binding.User.ID {
			return ErrExists
		}
	}
	bindings = append(bindings, binding)
	if err := s.write(bindings); err != nil {
		return err
	}
	zap.S().Infow("stored key binding",
		"user", binding.User.ID,
		"tokenId", binding.PKP.TokenID,
		"address", binding.PKP.Address,
	)
	return nil
}

func (s *FileStore) All() ([]*types.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Close() error {
	return nil
}
