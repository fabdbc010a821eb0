// Package mock provides an in-memory objectstore.Store for tests.
package mock

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/docingest/objectstore"
)

// Store is an in-memory objectstore.Store. Func fields, when set, run
// before the default behavior and may return an error to simulate
// failures. It is safe for concurrent use.
type Store struct {
	GetFunc     func(ctx context.Context, key string) error
	PutFunc     func(ctx context.Context, key string, data []byte) error
	DeleteFunc  func(ctx context.Context, key string) error
	PresignFunc func(ctx context.Context, key string) error

	mu      sync.Mutex
	objects map[string]*objectstore.Object
	puts    []string
	deletes []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{objects: make(map[string]*objectstore.Object)}
}

// Seed stores an object directly, bypassing hooks and counters.
func (s *Store) Seed(key string, data []byte, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &objectstore.Object{Key: key, Data: data, Metadata: maps.Clone(metadata)}
}

// Get returns a copy of the stored object.
func (s *Store) Get(ctx context.Context, key string) (*objectstore.Object, error) {
	if s.GetFunc != nil {
		if err := s.GetFunc(ctx, key); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", objectstore.ErrObjectNotFound, key)
	}
	return &objectstore.Object{
		Key:         obj.Key,
		Data:        slices.Clone(obj.Data),
		ContentType: obj.ContentType,
		Metadata:    maps.Clone(obj.Metadata),
	}, nil
}

// Put stores a copy of data.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if s.PutFunc != nil {
		if err := s.PutFunc(ctx, key, data); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	s.objects[key] = &objectstore.Object{
		Key:         key,
		Data:        slices.Clone(data),
		ContentType: contentType,
		Metadata:    maps.Clone(metadata),
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.DeleteFunc != nil {
		if err := s.DeleteFunc(ctx, key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	delete(s.objects, key)
	return nil
}

// Presign returns a fake URL of the form mock://<key>?ttl=<ttl>.
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.PresignFunc != nil {
		if err := s.PresignFunc(ctx, key); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("mock://%s?ttl=%s", key, ttl), nil
}

// List returns stored keys under prefix in lexical order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Has reports whether key is stored.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Puts returns the keys passed to successful Put calls, in call order.
func (s *Store) Puts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.puts)
}

// Deletes returns the keys passed to successful Delete calls, in call order.
func (s *Store) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deletes)
}

var _ objectstore.Store = (*Store)(nil)
