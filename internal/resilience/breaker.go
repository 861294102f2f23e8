// Package resilience guards calls to the insights API.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call without running it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker's position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Settings configures a Breaker. MaxFailures <= 0 disables it.
type Settings struct {
	MaxFailures int
	Cooldown    time.Duration
}

// Breaker opens after MaxFailures consecutive failed calls and rejects calls
// until Cooldown has elapsed; the next call is then a half-open probe whose
// result closes or reopens the circuit.
type Breaker struct {
	mu       sync.Mutex
	state    State
	failures int
	settings Settings
	openedAt time.Time
	now      func() time.Time // for testing

	// OnStateChange, if set, is called after every transition with b.mu released.
	OnStateChange func(from, to State)
}

// New returns a Breaker, or nil when s disables it. A nil *Breaker runs every call.
func New(s Settings) *Breaker {
	if s.MaxFailures <= 0 {
		return nil
	}
	return &Breaker{settings: s, now: time.Now}
}

// State reports the current state.
func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn unless the circuit is open. An error from fn counts as a
// failure unless ctx was cancelled while it ran.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if b == nil {
		return fn(ctx)
	}
	if err := b.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	from := b.state
	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.settings.Cooldown {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return nil
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	from := b.state
	if ok {
		b.failures = 0
		b.state = StateClosed
	} else {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.settings.MaxFailures {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
