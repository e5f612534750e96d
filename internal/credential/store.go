package credential

import (
	"context"
	"errors"
	"sync"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/database"
)

// SettingKey is the fixed name the credential is stored under.
const SettingKey = "gemini_api_key"

// ErrNotFound is returned by a Store that holds no value for the key.
var ErrNotFound = errors.New("credential not stored")

// Store persists sealed credential values by name.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// MemoryStore keeps values in process memory. Used when no database is
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SettingsStore reads and writes the settings table.
type SettingsStore struct {
	DB *database.DB
}

func (s SettingsStore) Get(ctx context.Context, key string) (string, error) {
	setting, err := s.DB.GetSetting(ctx, key)
	if errors.Is(err, database.ErrSettingNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s SettingsStore) Put(ctx context.Context, key, value string) error {
	return s.DB.PutSetting(ctx, key, value)
}
