package configstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/uploadgate/upload"
)

// Memory is an in-memory ConfigSource and UserStore. Inactive records and
// disabled users are stored but never returned.
type Memory struct {
	mu      sync.RWMutex
	records map[int64]upload.ConfigRecord
	users   map[uuid.UUID]UserEntry
	now     func() time.Time
}

var (
	_ upload.ConfigSource = (*Memory)(nil)
	_ upload.UserStore    = (*Memory)(nil)
)

func NewMemory(records ...upload.ConfigRecord) *Memory {
	m := &Memory{
		records: make(map[int64]upload.ConfigRecord, len(records)),
		users:   make(map[uuid.UUID]UserEntry),
		now:     time.Now,
	}
	for _, rec := range records {
		m.records[rec.UID] = rec
	}
	return m
}

func (m *Memory) Get(_ context.Context, uid int64) (upload.ConfigRecord, error) {
	m.mu.RLock()
	rec, ok := m.records[uid]
	m.mu.RUnlock()

	if !ok || !rec.Active(m.now()) {
		return upload.ConfigRecord{}, upload.ErrConfigNotFound
	}
	return rec, nil
}

// Put adds or replaces a record.
func (m *Memory) Put(rec upload.ConfigRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.UID] = rec
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// PutUser adds or replaces a user.
func (m *Memory) PutUser(u UserEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) User(_ context.Context, id uuid.UUID) (*upload.UserRecord, error) {
	m.mu.RLock()
	u, ok := m.users[id]
	m.mu.RUnlock()

	if !ok || u.Disabled {
		return nil, upload.ErrUserNotFound
	}
	rec := u.UserRecord
	return &rec, nil
}

// Authenticate checks the password and records the login time.
func (m *Memory) Authenticate(_ context.Context, username, password string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.users {
		if u.Username != username || u.Disabled {
			continue
		}
		if err := checkPassword(u.PasswordHash, password); err != nil {
			return uuid.Nil, err
		}
		u.LastLogin = m.now().Unix()
		m.users[id] = u
		return id, nil
	}
	return uuid.Nil, upload.ErrInvalidCredentials
}
