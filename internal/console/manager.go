package console

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultSessionID names the console used when a client sends no session.
const DefaultSessionID = "default"

// Manager hands out one console per session. Consoles idle for longer
// than the TTL are evicted and torn down.
type Manager struct {
	deps  Deps
	ttl   time.Duration
	cache *cache.Cache

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewManager creates a manager whose consoles expire after ttl without use.
func NewManager(deps Deps, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	// No cache janitor: the sweep goroutine below is owned and stopped by Close.
	c := cache.New(ttl, 0)
	c.OnEvicted(func(_ string, v any) {
		if con, ok := v.(*Console); ok {
			con.Close()
		}
	})
	m := &Manager{deps: deps, ttl: ttl, cache: c, done: make(chan struct{})}
	m.wg.Add(1)
	go m.sweep(max(ttl/2, time.Millisecond))
	return m
}

func (m *Manager) sweep(interval time.Duration) {
	defer m.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.cache.DeleteExpired()
		}
	}
}

// Get returns the console for sessionID, opening it on first use, and
// extends its expiry.
func (m *Manager) Get(sessionID string) (*Console, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	if v, ok := m.cache.Get(sessionID); ok {
		con := v.(*Console)
		m.cache.Set(sessionID, con, cache.DefaultExpiration)
		return con, nil
	}
	// Closes an expired console the janitor has not collected yet.
	m.cache.Delete(sessionID)
	con := New(sessionID, m.deps)
	m.cache.Set(sessionID, con, cache.DefaultExpiration)
	return con, nil
}

// Remove tears down the console for sessionID, if any.
func (m *Manager) Remove(sessionID string) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	m.cache.Delete(sessionID)
}

// Len returns the number of live consoles.
func (m *Manager) Len() int {
	return m.cache.ItemCount()
}

// Close stops the expiry sweep and tears down every console. Get fails
// afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.done)
	m.mu.Unlock()
	m.wg.Wait()

	for id := range m.cache.Items() {
		m.cache.Delete(id)
	}
}
