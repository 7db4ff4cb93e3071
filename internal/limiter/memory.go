package limiter

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter for single-instance and dev servers.
type Memory struct {
	p   Policy
	now func() time.Time

	mu      sync.Mutex
	clients map[string]entry
}

// NewMemory returns an empty in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{p: p, now: time.Now, clients: make(map[string]entry)}
}

func (m *Memory) Allow(_ context.Context, key []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.clients[string(key)]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

func (m *Memory) Failure(_ context.Context, key []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e := m.clients[string(key)]
	if now.Sub(e.updatedAt) > m.p.Window {
		e.fails = 0
	}
	e.fails++
	e.updatedAt = now
	blocked := e.fails >= m.p.MaxFails
	if blocked {
		e.blockedUntil = now.Add(m.p.BlockFor)
	}
	m.clients[string(key)] = e
	if blocked {
		return true, m.p.BlockFor, nil
	}
	return false, 0, nil
}
