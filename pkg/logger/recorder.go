package logger

import (
	"fmt"
	"sync"
)

// Entry is a single message captured by a Recorder.
type Entry struct {
	Status  LogStatus
	Message string
}

// Recorder is a Logger which keeps every emitted message in memory. It is
// safe for concurrent use and is primarily useful for asserting on the
// diagnostics produced by a component.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Emit(status LogStatus, message string, interpolations ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Status: status, Message: fmt.Sprintf(message, interpolations...)})
}

// Entries returns a copy of all messages recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of recorded messages with the given status.
func (r *Recorder) Count(status LogStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}
