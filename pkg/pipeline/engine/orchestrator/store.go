package orchestrator

import (
	"sync"

	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
)

// trackedJob is one live job in the in-memory store: the record itself plus the
// transient per-step retry counters. All mutation happens under mu, giving each
// job single-writer semantics without a store-wide lock.
type trackedJob struct {
	mu      sync.Mutex
	record  *model.JobRecord
	retries map[string]int // stepID -> retries consumed
}

// jobStore is the in-memory registry of live job records, keyed by job
// identifier. It is a write-through cache over the durable repository;
// cross-job operations only hold the registry lock, never a job lock.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*trackedJob
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*trackedJob)}
}

// insert registers a new tracked job. It reports false when the identifier is
// already present.
func (s *jobStore) insert(rec *model.JobRecord) (*trackedJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[rec.ID]; exists {
		return nil, false
	}
	tj := &trackedJob{
		record:  rec,
		retries: make(map[string]int),
	}
	s.jobs[rec.ID] = tj
	return tj, true
}

// get returns the tracked job for the identifier.
func (s *jobStore) get(id string) (*trackedJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tj, ok := s.jobs[id]
	return tj, ok
}

// remove drops the tracked job and its retry counters.
// The durable record is untouched.
func (s *jobStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// snapshots returns deep copies of every live record.
func (s *jobStore) snapshots() []*model.JobRecord {
	s.mu.RLock()
	tracked := make([]*trackedJob, 0, len(s.jobs))
	for _, tj := range s.jobs {
		tracked = append(tracked, tj)
	}
	s.mu.RUnlock()

	records := make([]*model.JobRecord, 0, len(tracked))
	for _, tj := range tracked {
		tj.mu.Lock()
		records = append(records, tj.record.Clone())
		tj.mu.Unlock()
	}
	return records
}
