// Package cache provides an in-memory LRU cache with expiry and a manager
// that periodically purges expired entries.
package cache

import (
	"context"
	"sync"
	"time"

	applog "mutuo/internal/log"
)

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	mu       sync.Mutex
	caches   []Cleaner
	logger   *applog.Logger
	stop     context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a new cache manager. A nil logger disables cleanup logs.
func NewManager(logger *applog.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
}

// StartCleanup purges expired entries every interval until ctx is done or
// Stop is called.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.stop = cancel
	m.done = make(chan struct{})
	go m.cleanup(ctx, interval)
}

func (m *Manager) cleanup(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := m.CleanAll(); removed > 0 && m.logger != nil {
				m.logger.Debug("Cache cleanup completed", "entries_removed", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CleanAll purges every registered cache once and returns the number of
// removed entries.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.stop != nil {
			m.stop()
			<-m.done
		}
	})
}
