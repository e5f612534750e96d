// Package session keeps study sessions in memory and evicts idle ones.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/metrics"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/study"
)

// ErrNotFound is returned for an unknown or evicted session ID.
var ErrNotFound = errors.New("session not found")

// ErrCapacity is returned by Create when MaxSessions are already live.
var ErrCapacity = errors.New("too many active sessions")

// Options configures a Manager.
type Options struct {
	MaxSessions     int           // 0 means unlimited
	IdleTTL         time.Duration // 0 disables idle eviction
	CleanupInterval time.Duration // defaults to one minute
}

// Manager owns the live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*study.Session
	opts     Options

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager and starts its cleanup goroutine.
// Call Stop to end it.
func NewManager(opts Options) *Manager {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	m := &Manager{
		sessions: make(map[string]*study.Session),
		opts:     opts,
		stop:     make(chan struct{}),
	}

	if opts.IdleTTL > 0 {
		go m.cleanupLoop()
	}
	return m
}

// Create starts a new empty session.
func (m *Manager) Create() (*study.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		// Make room from idle sessions before refusing.
		m.evictIdleLocked(time.Now())
		if len(m.sessions) >= m.opts.MaxSessions {
			return nil, ErrCapacity
		}
	}

	s := study.NewSession(uuid.New().String())
	m.sessions[s.ID] = s
	metrics.SetActiveSessions(len(m.sessions))

	log.Printf("🆕 Session %s created (%d active)", s.ID, len(m.sessions))
	return s, nil
}

// Get returns a session by ID and records the access.
func (m *Manager) Get(id string) (*study.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Delete tears down a session. An operation in flight on it finishes but
// its session is no longer reachable.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	metrics.SetActiveSessions(len(m.sessions))

	log.Printf("🗑️  Session %s deleted", id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions idle for longer than IdleTTL and returns how
// many were removed. Busy sessions are kept.
func (m *Manager) EvictIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictIdleLocked(now)
}

func (m *Manager) evictIdleLocked(now time.Time) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTTL)

	evicted := 0
	for id, s := range m.sessions {
		if s.Busy() || s.LastAccessed().After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted++
		log.Printf("🧹 Session %s evicted (idle %s)", id, now.Sub(s.LastAccessed()).Round(time.Second))
	}
	if evicted > 0 {
		metrics.SetActiveSessions(len(m.sessions))
	}
	return evicted
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) cleanupLoop() {
	// Go Pattern: always defer ticker.Stop() to release the ticker.
	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.EvictIdle(now)
		}
	}
}
