package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock hands out a controllable time so tests can cross debounce
// windows and changed-since cutoffs deterministically. Safe for
// concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock at an arbitrary but stable instant.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator hands out sequential ids ("run-1", "run-2", ...) so
// generated names are predictable in assertions.
type StubIDGenerator struct {
	mu sync.Mutex
	n  int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%d", g.n)
}
