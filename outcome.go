package snapshotjanitor

import (
	"sync"
	"time"
)

type Decision string

const (
	DecisionRetained     Decision = "retained-too-new"
	DecisionDeleted      Decision = "deleted"
	DecisionDeleteFailed Decision = "delete-failed"

	// DecisionWouldDelete is recorded instead of issuing a deletion when the
	// run is in skip-delete mode.
	DecisionWouldDelete Decision = "would-delete"
)

// Outcome is the write-once record for one snapshot considered during a run.
// Detail is only populated for delete-failed.
type Outcome struct {
	VCenter  string
	VM       string
	Snapshot string
	Created  time.Time
	Decision Decision
	Detail   string
}

// Report collects outcomes during a run. It is append-only while the run is
// in flight and read afterwards; Record is safe for concurrent use because
// VMs may be handled on separate goroutines.
type Report struct {
	mutex   sync.Mutex
	entries []Outcome
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Record(o Outcome) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries = append(r.entries, o)
}

// Outcomes returns a copy of the recorded entries.
func (r *Report) Outcomes() []Outcome {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entries := make([]Outcome, len(r.entries))
	copy(entries, r.entries)
	return entries
}

func (r *Report) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.entries)
}

// CountDecisions tallies outcomes per decision.
func CountDecisions(outcomes []Outcome) map[Decision]int {
	counts := make(map[Decision]int, 4)
	for _, o := range outcomes {
		counts[o.Decision]++
	}
	return counts
}
