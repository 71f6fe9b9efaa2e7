package client

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without touching the remote when the breaker is
// open and the cooldown has not elapsed.
var ErrCircuitOpen = errors.New("circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker is a three-state breaker guarding user service calls.
//
// Closed counts consecutive failures; reaching the threshold opens the
// circuit. While open, calls fail fast until the cooldown elapses, then a
// single half-open probe is admitted. The probe's outcome decides between
// closing the circuit and re-opening it for another cooldown.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	probing   bool
	nowFn     func() time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Allow reports whether a call may proceed. Callers that receive true must
// follow up with Record for the call's outcome.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.nowFn().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = stateHalfOpen
		b.probing = true
		return true
	case stateHalfOpen:
		// One probe in flight at a time.
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// Record feeds a call outcome back into the breaker.
func (b *CircuitBreaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.threshold {
			b.state = stateOpen
			b.openedAt = b.nowFn()
		}
	case stateHalfOpen:
		b.probing = false
		if success {
			b.state = stateClosed
			b.failures = 0
			return
		}
		b.state = stateOpen
		b.openedAt = b.nowFn()
	case stateOpen:
		// Late results from calls admitted before opening are ignored.
	}
}

// State returns the current state name for logging.
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}
