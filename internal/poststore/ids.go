package poststore

import (
	"sync"
	"time"
)

// IDGenerator hands out wall-clock millisecond ids that strictly increase,
// even when called more than once per millisecond or when the clock steps
// back.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator creates a generator reading the given clock. A nil clock
// means time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns the next id
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
