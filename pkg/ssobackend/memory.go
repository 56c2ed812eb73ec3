package ssobackend

import (
	"context"
	"maps"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// memoryRecord guards its fields so single-field updates are atomic without
// locking the whole shard.
type memoryRecord struct {
	mu      sync.RWMutex
	id      string
	created time.Time
	fields  map[string]string
	deleted bool
}

func (r *memoryRecord) snapshot() *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make(map[string]string, len(r.fields))
	maps.Copy(fields, r.fields)
	return &Record{ID: r.id, Created: r.created, Fields: fields}
}

// Memory is an in-process session map. It is shared by every request served
// by the process and expires records on read and on a cleanup interval.
type Memory struct {
	records cmap.ConcurrentMap
	now     func() time.Time

	mu     sync.RWMutex
	ttl    time.Duration
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// MemoryOption configures a Memory backend
type MemoryOption func(*Memory)

// WithMemoryClock overrides the time source, mainly for tests
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an in-process backend. A positive cleanupInterval starts
// a goroutine that drops expired records; stop it with Close.
func NewMemory(cleanupInterval time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		records: cmap.New(),
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

// CreateIndex records the TTL used for read-time and background expiry.
func (m *Memory) CreateIndex(_ context.Context, ttl time.Duration) error {
	m.mu.Lock()
	m.ttl = ttl
	m.mu.Unlock()
	return nil
}

// CreateSession inserts an empty record, replacing any record with the same id.
func (m *Memory) CreateSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	m.records.Set(id, &memoryRecord{
		id:      id,
		created: m.now(),
		fields:  make(map[string]string),
	})
	return nil
}

// GetSession returns a copy of the live record.
func (m *Memory) GetSession(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	rec, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return rec.snapshot(), nil
}

// UpdateSession sets one field on an existing record.
func (m *Memory) UpdateSession(ctx context.Context, id, field, ciphertext string) error {
	if err := ValidateField(field); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	rec, ok := m.live(id)
	if !ok {
		return ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return ErrNotFound
	}
	rec.fields[field] = ciphertext
	return nil
}

// DeleteSession removes the record if present.
func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if v, ok := m.records.Pop(id); ok {
		markDeleted(v)
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Len returns the number of stored records, expired ones included.
func (m *Memory) Len() int { return m.records.Count() }

// Close stops the cleanup goroutine.
func (m *Memory) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
			close(m.done)
		}
	})
	return nil
}

// DeleteExpired drops every record past its TTL.
func (m *Memory) DeleteExpired() {
	ttl := m.currentTTL()
	if ttl <= 0 {
		return
	}
	now := m.now()
	for item := range m.records.IterBuffered() {
		rec, ok := item.Val.(*memoryRecord)
		if !ok || !now.Before(rec.created.Add(ttl)) {
			if v, popped := m.records.Pop(item.Key); popped {
				markDeleted(v)
			}
		}
	}
}

func (m *Memory) live(id string) (*memoryRecord, bool) {
	v, ok := m.records.Get(id)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*memoryRecord)
	if !ok {
		return nil, false
	}

	ttl := m.currentTTL()
	if ttl > 0 && !m.now().Before(rec.created.Add(ttl)) {
		return nil, false
	}
	return rec, true
}

func (m *Memory) currentTTL() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttl
}

func (m *Memory) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			m.DeleteExpired()
		case <-m.done:
			return
		}
	}
}

func markDeleted(v any) {
	if rec, ok := v.(*memoryRecord); ok {
		rec.mu.Lock()
		rec.deleted = true
		rec.mu.Unlock()
	}
}
