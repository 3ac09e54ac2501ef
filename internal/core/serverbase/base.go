// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base provides common fields and lifecycle infrastructure for servers.
// Concrete server implementations embed this struct.
//
// A server instance is single-use: once stopped or failed, create a new instance.
type Base struct {
	// State management (atomic for lock-free reads)
	state atomic.Int32

	// State transition protection
	stateMu sync.Mutex

	// Lifecycle management
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error
	lastErr   error
}

// NewBase creates a new Base in the Created state.
func NewBase() *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1), // Buffered so goroutines don't block
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current server state (atomic, lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true if the server is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel for receiving async errors.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that caused the Failed state, or nil.
func (b *Base) LastError() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.lastErr
}

// --- Lifecycle helpers for concrete implementations ---

// TransitionToStarting attempts to transition from Created to Starting.
// Returns an error if the current state is not Created or if the context
// is already cancelled. Must be called at the beginning of Start().
func (b *Base) TransitionToStarting(ctx context.Context) error {
	// Check for an already-cancelled context BEFORE any setup. Otherwise the
	// serve goroutine could transition to Running before the cancellation is
	// noticed.
	select {
	case <-ctx.Done():
		b.TransitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return b.LastError()
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		currentState := State(b.state.Load())
		return fmt.Errorf("cannot start server in state %s", currentState)
	}

	// Internal context detached from the caller: the server outlives the
	// Start() call.
	b.ctx, b.cancel = context.WithCancel(context.Background())

	return nil
}

// TransitionToRunning marks the server as running and closes the started
// channel to signal readiness. Must be called when the server is ready to
// accept connections.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// TransitionToFailed marks the server as failed with the given error.
func (b *Base) TransitionToFailed(err error) {
	b.stateMu.Lock()
	b.lastErr = err
	b.stateMu.Unlock()

	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}

	b.SendError(err)
}

// TransitionToStopping attempts to transition to the Stopping state.
// Returns true if the transition occurred and the caller should run the
// shutdown sequence; false if the server is already stopped or stopping.
func (b *Base) TransitionToStopping() bool {
	for {
		currentState := State(b.state.Load())
		switch currentState {
		case StateStopped, StateFailed:
			return false
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false // Never started, just mark stopped
			}
			continue // State changed, retry
		case StateStopping:
			return false
		case StateStarting, StateRunning:
			if !b.state.CompareAndSwap(int32(currentState), int32(StateStopping)) {
				continue // State changed, retry
			}
			if b.cancel != nil {
				b.cancel()
			}
			return true
		default:
			return false
		}
	}
}

// TransitionToStopped marks the server as fully stopped.
// Must be called after all goroutines have exited.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitForShutdown blocks until all tracked goroutines have completed.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// Context returns the server's internal context for use in goroutines.
// Returns nil if the server hasn't started.
func (b *Base) Context() context.Context {
	return b.ctx
}

// AddGoroutine increments the goroutine tracker.
// Must be called before starting a goroutine.
func (b *Base) AddGoroutine() {
	b.wg.Add(1)
}

// DoneGoroutine decrements the goroutine tracker.
// Must be deferred at the start of each goroutine.
func (b *Base) DoneGoroutine() {
	b.wg.Done()
}

// SendError sends an error to the error channel without blocking.
// If the channel is full, the error is dropped.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErrChannel closes the error channel to signal consumers.
// Should be called when the server is fully stopped.
func (b *Base) CloseErrChannel() {
	close(b.errCh)
}

// StartedChannel returns the channel closed when the server reaches Running.
func (b *Base) StartedChannel() <-chan struct{} {
	return b.startedCh
}
