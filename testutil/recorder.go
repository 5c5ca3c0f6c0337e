package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/comalice/ecsx/internal/core"
)

// Recorder is a core.TransitionPublisher that keeps every record in memory.
type Recorder struct {
	mu      sync.Mutex
	records []core.TransitionRecord
	closed  bool
}

func (r *Recorder) Publish(_ context.Context, rec core.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("recorder closed")
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Records returns a copy of everything published so far.
func (r *Recorder) Records() []core.TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.TransitionRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Transitions renders records as "Kind(leaving,entering)", or just the kind
// for Startup and the settled "None" marker.
func (r *Recorder) Transitions() []string {
	var out []string
	for _, rec := range r.Records() {
		if rec.Leaving == "" && rec.Entering == "" {
			out = append(out, rec.Kind)
			continue
		}
		out = append(out, fmt.Sprintf("%s(%s,%s)", rec.Kind, rec.Leaving, rec.Entering))
	}
	return out
}

// Reset drops all records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
