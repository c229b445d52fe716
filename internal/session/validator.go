// internal/session/validator.go
package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"lobbyd/internal/protocol"
)

// DefaultRefreshInterval is how long a Valid verdict is trusted before the
// validator re-checks it against the server.
const DefaultRefreshInterval = 5 * time.Second

// StatusObserver is notified on every validation status change.
type StatusObserver func(protocol.ValidationStatus)

// CodeValidator tracks the trust status of a manually entered lobby code.
// Setting a code immediately moves the validator to Pending and issues a
// validation request; the authority's unicast reply settles it to Invalid,
// Full or Valid. A Valid verdict expires after the refresh interval and is
// re-checked on the next Poll tick past the deadline. There is no timer
// goroutine: ticks come from the host environment.
type CodeValidator struct {
	mu        sync.Mutex
	clk       clock.Clock
	refresh   time.Duration
	send      func(code int)
	code      int
	status    protocol.ValidationStatus
	deadline  time.Time
	armed     bool
	observers map[int]StatusObserver
	nextKey   int
}

// newCodeValidator wires the validator to a request sender. The participant
// owns construction; tests construct one directly with a mock clock.
func newCodeValidator(send func(code int), refresh time.Duration, clk clock.Clock) *CodeValidator {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	return &CodeValidator{
		clk:       clk,
		refresh:   refresh,
		send:      send,
		code:      -1,
		status:    protocol.ValidationNone,
		observers: make(map[int]StatusObserver),
	}
}

// Status returns the current validation status.
func (v *CodeValidator) Status() protocol.ValidationStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Code returns the code under validation, or -1 after a reset.
func (v *CodeValidator) Code() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.code
}

// OnChange registers a status observer and returns its unsubscribe function.
func (v *CodeValidator) OnChange(fn StatusObserver) (unsubscribe func()) {
	v.mu.Lock()
	key := v.nextKey
	v.nextKey++
	v.observers[key] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, key)
		v.mu.Unlock()
	}
}

// SetCode stores a new code, transitions to Pending synchronously and issues
// a validation request, regardless of prior state.
func (v *CodeValidator) SetCode(code int) {
	v.mu.Lock()
	v.code = code
	v.armed = false
	notify := v.setStatusLocked(protocol.ValidationPending)
	v.mu.Unlock()

	v.fanout(notify, protocol.ValidationPending)
	v.send(code)
}

// Apply consumes a validation reply from the authority. Replies for a code
// the user has since changed are stale and dropped.
func (v *CodeValidator) Apply(code int, status protocol.ValidationStatus) {
	v.mu.Lock()
	if code != v.code {
		v.mu.Unlock()
		return
	}
	if status == protocol.ValidationValid {
		v.deadline = v.clk.Now().Add(v.refresh)
		v.armed = true
	} else {
		v.armed = false
	}
	notify := v.setStatusLocked(status)
	v.mu.Unlock()

	v.fanout(notify, status)
}

// Poll is the external tick. When a Valid verdict has outlived its deadline
// the validator drops back to Pending and re-issues the request.
func (v *CodeValidator) Poll() {
	v.mu.Lock()
	if v.status != protocol.ValidationValid || !v.armed || !v.clk.Now().After(v.deadline) {
		v.mu.Unlock()
		return
	}
	v.armed = false
	code := v.code
	notify := v.setStatusLocked(protocol.ValidationPending)
	v.mu.Unlock()

	v.fanout(notify, protocol.ValidationPending)
	v.send(code)
}

// Invalidate forces the current verdict to Invalid without consulting the
// server. The stored code survives, but any armed refresh deadline is
// cleared; a later SetCode starts a fresh validation.
func (v *CodeValidator) Invalidate() {
	v.mu.Lock()
	v.armed = false
	notify := v.setStatusLocked(protocol.ValidationInvalid)
	v.mu.Unlock()

	v.fanout(notify, protocol.ValidationInvalid)
}

// Reset returns the validator to None and forgets the code.
func (v *CodeValidator) Reset() {
	v.mu.Lock()
	v.code = -1
	v.armed = false
	notify := v.setStatusLocked(protocol.ValidationNone)
	v.mu.Unlock()

	v.fanout(notify, protocol.ValidationNone)
}

func (v *CodeValidator) setStatusLocked(status protocol.ValidationStatus) []StatusObserver {
	v.status = status
	notify := make([]StatusObserver, 0, len(v.observers))
	for _, fn := range v.observers {
		notify = append(notify, fn)
	}
	return notify
}

func (v *CodeValidator) fanout(observers []StatusObserver, status protocol.ValidationStatus) {
	for _, fn := range observers {
		fn(status)
	}
}
