// Package coordinator runs the analyze and upload request lifecycles. Each
// coordinator owns one RequestState and allows at most one live request; a
// response that lands after a newer request was issued is discarded.
package coordinator

import (
	"errors"
	"sync"
)

// Phase is the lifecycle position of a request.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-facing outcome messages.
const (
	MsgAnalyzeFailed = "Failed to analyze data. Please try again."
	MsgSelectFile    = "Please select a file first"
	MsgUploadFailed  = "Upload failed. Please try again."
	MsgUploadDone    = "File uploaded and data processed successfully!"
)

// ErrMissingFile is returned by Upload when no file is selected.
var ErrMissingFile = errors.New("no file selected")

// RequestState is a coordinator's current position. Payload is set only in
// Succeeded; Message is set in Failed and, for uploads, in Succeeded.
type RequestState[T any] struct {
	Phase   Phase
	Payload T
	Message string
}

// Terminal reports whether the request has finished.
func (s RequestState[T]) Terminal() bool {
	return s.Phase == Succeeded || s.Phase == Failed
}

// machine holds a RequestState behind a sequence guard. Listener calls are
// delivered one at a time in transition order and made without holding mu,
// so a listener may read the state but must not start a new request.
type machine[T any] struct {
	mu       sync.Mutex
	seq      uint64
	state    RequestState[T]
	listener func(RequestState[T])
	ticket   uint64

	notifyMu sync.Mutex
	turn     sync.Cond
	next     uint64
}

func (m *machine[T]) current() RequestState[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *machine[T]) setListener(fn func(RequestState[T])) {
	m.mu.Lock()
	m.listener = fn
	m.mu.Unlock()
}

// begin moves to st under a fresh sequence number, superseding anything in
// flight, and returns that number.
func (m *machine[T]) begin(st RequestState[T]) uint64 {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.state = st
	m.publish(st)
	return seq
}

// finish applies st only if seq is still the latest issued.
func (m *machine[T]) finish(seq uint64, st RequestState[T]) bool {
	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		return false
	}
	m.state = st
	m.publish(st)
	return true
}

// reset returns a terminal state to Idle. A pending request is left alone.
func (m *machine[T]) reset() {
	m.mu.Lock()
	if !m.state.Terminal() {
		m.mu.Unlock()
		return
	}
	m.state = RequestState[T]{}
	m.publish(m.state)
}

// publish must be called with mu held; it releases mu.
func (m *machine[T]) publish(st RequestState[T]) {
	fn, t := m.listener, m.ticket
	m.ticket++
	m.mu.Unlock()

	m.notifyMu.Lock()
	if m.turn.L == nil {
		m.turn.L = &m.notifyMu
	}
	for m.next != t {
		m.turn.Wait()
	}
	m.notifyMu.Unlock()

	if fn != nil {
		fn(st)
	}

	m.notifyMu.Lock()
	m.next++
	m.turn.Broadcast()
	m.notifyMu.Unlock()
}

// closed returns a channel that is already closed with no value.
func closed[T any]() <-chan RequestState[T] {
	ch := make(chan RequestState[T])
	close(ch)
	return ch
}

// delivered returns a closed channel holding exactly st.
func delivered[T any](st RequestState[T]) <-chan RequestState[T] {
	ch := make(chan RequestState[T], 1)
	ch <- st
	close(ch)
	return ch
}
