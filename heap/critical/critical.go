// Package critical provides the exclusion domain the allocator brackets every
// public operation with.
//
// On bare metal this is an interrupt mask: Enter disables interrupts and
// returns the previous mask, Exit restores it. In a Go process the same
// contract is met with a mutex; the saved State is carried through so a
// Section that models nesting (for example a counting wrapper used in tests)
// can restore exactly what it saw on entry.
package critical

import (
	"sync"
	"sync/atomic"
)

// State is the value saved by Enter and handed back to Exit.
type State uint32

// Section is a global mutual-exclusion bracket.
type Section interface {
	// Enter begins the critical section and returns the state to restore.
	Enter() State
	// Exit ends the critical section, restoring saved.
	Exit(saved State)
}

// Mutex is a Section backed by sync.Mutex. The zero value is ready to use.
// It is not reentrant: an operation must not call back into the allocator
// while inside the section.
type Mutex struct {
	mu    sync.Mutex
	depth atomic.Uint32
}

// Enter locks the mutex. The returned state is the nesting depth before entry,
// which is always 0 for a well-behaved caller.
func (m *Mutex) Enter() State {
	m.mu.Lock()
	return State(m.depth.Swap(1))
}

// Exit restores the saved depth and unlocks.
func (m *Mutex) Exit(saved State) {
	m.depth.Store(uint32(saved))
	m.mu.Unlock()
}

// Held reports whether the section is currently entered.
func (m *Mutex) Held() bool {
	return m.depth.Load() != 0
}

// Nop is a Section that performs no exclusion, for single-goroutine use.
type Nop struct{}

// Enter does nothing.
func (Nop) Enter() State { return 0 }

// Exit does nothing.
func (Nop) Exit(State) {}

// Counting wraps another Section and records how often it was entered.
// Useful for asserting that every public operation is bracketed exactly once.
type Counting struct {
	Inner   Section
	entered atomic.Int64
	exited  atomic.Int64
}

// Enter records the entry and delegates.
func (c *Counting) Enter() State {
	s := c.inner().Enter()
	c.entered.Add(1)
	return s
}

// Exit records the exit and delegates.
func (c *Counting) Exit(saved State) {
	c.exited.Add(1)
	c.inner().Exit(saved)
}

// Entered returns the number of Enter calls.
func (c *Counting) Entered() int64 { return c.entered.Load() }

// Exited returns the number of Exit calls.
func (c *Counting) Exited() int64 { return c.exited.Load() }

func (c *Counting) inner() Section {
	if c.Inner == nil {
		return Nop{}
	}
	return c.Inner
}
