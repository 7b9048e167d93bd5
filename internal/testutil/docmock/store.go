package docmock

import (
	"context"
	"sync"
	"time"
)

// Store is an in-memory document store. UploadFn, when set, runs before the
// document is kept and can fail the upload.
type Store struct {
	UploadFn func(ctx context.Context, path string, content []byte) error

	mu   sync.Mutex
	docs map[string][]byte
}

func New() *Store { return &Store{docs: make(map[string][]byte)} }

func (s *Store) WithUpload(fn func(context.Context, string, []byte) error) *Store {
	s.UploadFn = fn
	return s
}

func (s *Store) Upload(ctx context.Context, path string, content []byte) (string, error) {
	if s.UploadFn != nil {
		if err := s.UploadFn(ctx, path, content); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = append([]byte(nil), content...)
	return "https://docs.test/" + path, nil
}

func (s *Store) PublicURL(path string) (string, error) {
	return "https://docs.test/" + path, nil
}

func (s *Store) SignedURL(path string, ttl time.Duration) (string, error) {
	return "https://docs.test/" + path + "?ttl=" + ttl.String(), nil
}

func (s *Store) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.docs[path]
	return b, ok
}
