package session

import (
	"errors"
	"os"
	"sync"
)

// Storage persists the credential between runs. The credential is the only
// artifact the session layer persists.
type Storage interface {
	// Load returns the stored credential, or "" when none is stored.
	Load() (string, error)
	Save(credential string) error
	Clear() error
}

// MemoryStorage holds the credential in memory. Useful for tests and for
// processes that should not persist a session.
type MemoryStorage struct {
	mu         sync.Mutex
	credential string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, nil
}

func (s *MemoryStorage) Save(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	return nil
}

func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	return nil
}

// FileStorage persists the credential to a single file, created with 0600
// permissions since it grants access to the account.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (s *FileStorage) Save(credential string) error {
	return os.WriteFile(s.path, []byte(credential), 0o600)
}

func (s *FileStorage) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
