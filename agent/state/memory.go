package state

import (
	"context"
	"sync"
	"time"
)

const janitorInterval = time.Minute

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded states in process memory. Entries expire after the TTL
// and a janitor goroutine evicts them until Close is called.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return newMemoryStore(time.Now, opts...)
}

func newMemoryStore(now func() time.Time, opts ...StoreOption) *MemoryStore {
	o, err := applyOptions(opts)
	if err != nil {
		o.ttl = 0
	}
	s := &MemoryStore{
		entries:   make(map[string]memoryEntry),
		keyPrefix: o.keyPrefix,
		ttl:       o.ttl,
		now:       now,
		stop:      make(chan struct{}),
	}
	if s.ttl > 0 {
		s.wg.Add(1)
		go s.janitor(janitorInterval)
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*ConversationState, error) {
	key, err := storeKey(s.keyPrefix, threadID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && s.expired(e) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeState(e.payload)
}

func (s *MemoryStore) Save(_ context.Context, st *ConversationState) error {
	payload, err := prepareSave(st)
	if err != nil {
		return err
	}
	key, err := storeKey(s.keyPrefix, st.ThreadID)
	if err != nil {
		return err
	}

	e := memoryEntry{payload: payload}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	key, err := storeKey(s.keyPrefix, threadID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *MemoryStore) janitor(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
		}
	}
}
