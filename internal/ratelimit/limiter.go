// Package ratelimit provides per-client, per-endpoint admission
// control. Admission is the outermost gate: a rejected request must not
// touch the record index or the mail transport.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"visa-status-service/internal/common/config"
)

// Endpoint keys used for quota configuration and limiter state.
const (
	EndpointCheckStatus = "check_status"
	EndpointSendEmail   = "send_email"
)

// Limiter admits or rejects one request for a (client, endpoint) pair.
type Limiter interface {
	Allow(ctx context.Context, clientKey, endpoint string) bool
}

// Quotas maps endpoint keys to their configured quotas.
type Quotas map[string]config.Quota

type window struct {
	count int
	start time.Time
}

// MemoryLimiter is a fixed-window counter limiter keyed by
// (client, endpoint). Entries are created lazily and reset when their
// window elapses; nothing is ever explicitly destroyed.
type MemoryLimiter struct {
	mu      sync.Mutex
	quotas  Quotas
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryLimiter(quotas Quotas) *MemoryLimiter {
	return &MemoryLimiter{
		quotas:  quotas,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, clientKey, endpoint string) bool {
	quota, ok := l.quotas[endpoint]
	if !ok || quota.Requests <= 0 {
		return true
	}

	key := endpoint + ":" + clientKey
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= quota.WindowDuration() {
		l.windows[key] = &window{count: 1, start: now}
		return true
	}

	if w.count >= quota.Requests {
		return false
	}
	w.count++
	return true
}
