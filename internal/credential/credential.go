// Package credential holds the text-generation API key.
//
// The key is read from durable storage once at startup and cached. Saving a
// key writes it through to storage and replaces the cached value, so the
// next request uses it without a restart.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

// ErrEmpty is returned by Save for a blank key.
var ErrEmpty = errors.New("API key must not be empty")

// ErrAlreadyConfigured is returned by Claim once a key is stored. Replacing
// it goes through Save, which callers must authorize.
var ErrAlreadyConfigured = errors.New("an API key is already configured")

// Service caches the credential. It satisfies llm.CredentialSource.
type Service struct {
	store  Store
	sealer *Sealer

	writeMu sync.Mutex // serializes Claim and Save

	mu  sync.RWMutex
	key string
}

// NewService creates a Service over store. Values are sealed with secret.
func NewService(store Store, secret string) *Service {
	return &Service{store: store, sealer: NewSealer(secret)}
}

// Load reads the stored credential into the cache. A missing credential is
// not an error; the service simply stays unconfigured.
func (s *Service) Load(ctx context.Context) error {
	sealed, err := s.store.Get(ctx, SettingKey)
	if errors.Is(err, ErrNotFound) {
		log.Println("🔑 No API key stored yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}

	key, err := s.sealer.Open(sealed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.key = key
	s.mu.Unlock()

	log.Println("🔑 API key loaded")
	return nil
}

// Claim stores key only if no credential is configured yet. It is the one
// unauthenticated way to set the key.
func (s *Service) Claim(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Configured() {
		return ErrAlreadyConfigured
	}
	return s.save(ctx, key)
}

// Save trims and stores key, then makes it the active credential. It
// replaces any existing key.
func (s *Service) Save(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save(ctx, key)
}

func (s *Service) save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmpty
	}

	sealed, err := s.sealer.Seal(key)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, SettingKey, sealed); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	s.mu.Lock()
	s.key = key
	s.mu.Unlock()

	log.Println("🔑 API key saved")
	return nil
}

// APIKey returns the active credential, or "" when none is configured.
func (s *Service) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Configured reports whether a credential is available.
func (s *Service) Configured() bool {
	return s.APIKey() != ""
}
