// Package ratelimit caps how many LLM requests one run may issue, so
// a misbehaving planning or summarization loop cannot burn through an
// API budget.
package ratelimit

import (
	"fmt"
	"sync"

	"github.com/deusflow/ainews/internal/logger"
)

type Limiter struct {
	mu    sync.Mutex
	count int
	max   int // 0 = unlimited
}

func New(max int) *Limiter {
	return &Limiter{max: max}
}

// Use reserves one request slot, failing when the per-run budget is
// spent.
func (l *Limiter) Use() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.count >= l.max {
		return fmt.Errorf("llm request budget exceeded (%d/%d)", l.count, l.max)
	}
	l.count++
	logger.Debug("llm request budget", "used", l.count, "max", l.max)
	return nil
}

// Used returns how many requests this run has issued so far.
func (l *Limiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
