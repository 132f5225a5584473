package credentials

import (
	"context"
	"sync"

	"travelstore/models"

	"github.com/google/uuid"
)

// memoryBackend is the storage shared by every MemoryStore forked from it.
type memoryBackend struct {
	mu       sync.Mutex
	creds    models.Credentials
	nextID   int
	watchers map[int]func(Change)
}

// MemoryStore keeps credentials in process. Stores created with Fork share
// one backend, each with its own origin, the way tabs share origin storage.
type MemoryStore struct {
	origin  string
	backend *memoryBackend
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		origin:  uuid.New().String(),
		backend: &memoryBackend{watchers: make(map[int]func(Change))},
	}
}

// Fork returns another tab's view of the same storage.
func (s *MemoryStore) Fork() *MemoryStore {
	return &MemoryStore{origin: uuid.New().String(), backend: s.backend}
}

func (s *MemoryStore) Origin() string { return s.origin }

func (s *MemoryStore) Load(ctx context.Context) (models.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return models.Credentials{}, err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.backend.creds, nil
}

func (s *MemoryStore) Save(ctx context.Context, creds models.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.creds = creds
	s.backend.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.creds = models.Credentials{}
	s.backend.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	b := s.backend
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.watchers[id] = fn
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.watchers, id)
			b.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop, nil
}

func (b *memoryBackend) watching() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers)
}

func (s *MemoryStore) notify() {
	b := s.backend
	b.mu.Lock()
	fns := make([]func(Change), 0, len(b.watchers))
	for _, fn := range b.watchers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	change := Change{Origin: s.origin}
	for _, fn := range fns {
		fn(change)
	}
}
