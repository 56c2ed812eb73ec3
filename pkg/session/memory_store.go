package session

import (
	"context"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// memoryEntry guards one stored session. Replaced or removed entries are
// marked gone so a writer holding a stale pointer cannot resurrect them.
type memoryEntry struct {
	mu      sync.Mutex
	session *Session
	gone    bool
}

// MemoryStore keeps sessions in process memory. Every read and write works on
// a copy so callers cannot mutate stored state without Update.
type MemoryStore struct {
	entries cmap.ConcurrentMap
	now     func() time.Time

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

type MemoryStoreOption func(*MemoryStore)

// WithStoreClock overrides the time source used for expiry checks.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates a store; a positive cleanupInterval starts a sweeper.
func NewMemoryStore(cleanupInterval time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		entries: cmap.New(),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cleanupInterval > 0 {
		m.ticker = time.NewTicker(cleanupInterval)
		go m.cleanupLoop()
	}
	return m
}

func (m *MemoryStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	if old, ok := m.entry(session.Token); ok {
		old.mu.Lock()
		old.gone = true
		old.mu.Unlock()
	}
	m.entries.Set(session.Token, &memoryEntry{session: session.Clone()})
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	e, ok := m.entry(token)
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return nil, ErrSessionNotFound
	}
	if e.session.ExpiredAt(m.now()) {
		e.gone = true
		m.entries.Remove(token)
		return nil, ErrSessionExpired
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	return m.modify(session.Token, func(e *memoryEntry) {
		e.session = session.Clone()
	})
}

func (m *MemoryStore) UpdateActivity(_ context.Context, token string, lastActivity time.Time) error {
	return m.modify(token, func(e *memoryEntry) {
		e.session.LastActivityAt = lastActivity
	})
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	if v, ok := m.entries.Pop(token); ok {
		e := v.(*memoryEntry)
		e.mu.Lock()
		e.gone = true
		e.mu.Unlock()
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	now := m.now()
	for item := range m.entries.IterBuffered() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := item.Val.(*memoryEntry)
		e.mu.Lock()
		if !e.gone && e.session.ExpiredAt(now) {
			e.gone = true
			m.entries.Remove(item.Key)
		}
		e.mu.Unlock()
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	return m.entries.Count()
}

// Close stops the cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
			close(m.done)
		}
	})
	return nil
}

func (m *MemoryStore) entry(token string) (*memoryEntry, bool) {
	v, ok := m.entries.Get(token)
	if !ok {
		return nil, false
	}
	return v.(*memoryEntry), true
}

func (m *MemoryStore) modify(token string, fn func(*memoryEntry)) error {
	e, ok := m.entry(token)
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return ErrSessionNotFound
	}
	fn(e)
	return nil
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
