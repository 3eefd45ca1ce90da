package client

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Store persists the session keys between runs.
type Store interface {
	// Get returns "" for a missing key.
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// MemoryStore keeps the keys in memory only.
type MemoryStore struct {
	mutex sync.RWMutex
	data  map[string]string
}

var _ Store = (*MemoryStore)(nil) // interface compliance check

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.data[key], nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// FileStore keeps the keys in a JSON file readable by the owner only.
type FileStore struct {
	mutex sync.Mutex
	path  string
}

var _ Store = (*FileStore)(nil) // interface compliance check

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) read() (map[string]string, error) {
	data := make(map[string]string)
	blob, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.path)
	}
	if len(blob) == 0 {
		return data, nil
	}
	if err = json.Unmarshal(blob, &data); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.path)
	}
	return data, nil
}

// write replaces the file atomically.
func (s *FileStore) write(data map[string]string) error {
	if len(data) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", s.path)
		}
		return nil
	}

	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	tmp, err := ioutil.TempFile(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(blob); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "renaming to %s", s.path)
}

func (s *FileStore) Get(key string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	data, err := s.read()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

func (s *FileStore) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	data, err := s.read()
	if err != nil {
		return err
	}
	data[key] = value
	return s.write(data)
}

func (s *FileStore) Delete(keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	data, err := s.read()
	if err != nil {
		// a corrupt file is dropped as a whole
		data = make(map[string]string)
	}
	for _, k := range keys {
		delete(data, k)
	}
	return s.write(data)
}
