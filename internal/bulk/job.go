// Package bulk runs batch fill jobs: applying a column mapping to every
// record, rendering each result, and aggregating the outputs into a merged
// PDF or a zip archive, with job state observable by pollers throughout.
package bulk

import (
	"sync"
	"time"
)

// Status represents the current state of a bulk job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// OutputPDF and OutputZip identify the aggregate artifact kind.
const (
	OutputPDF = "pdf"
	OutputZip = "zip"
)

// RowError records a per-record failure with its 1-based row index.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Job tracks one bulk generation run. Status only moves forward:
// processing -> completed or processing -> error.
type Job struct {
	ID           string     `json:"id"`
	Status       Status     `json:"status"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	Errors       []RowError `json:"errors"`
	OutputFile   string     `json:"output_file,omitempty"`
	OutputType   string     `json:"output_type,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Store is the job table. Implementations must support concurrent
// registration and status reads; Get returns a snapshot safe to use
// without further locking.
type Store interface {
	Create(job *Job)
	Get(id string) (Job, bool)
	Update(id string, fn func(*Job))
	Delete(id string)
	SweepOlder(ttl time.Duration) []Job
}

// MemoryStore is the in-process Store used in production. Jobs live for
// the duration of the process unless downloaded or swept.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *MemoryStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	snapshot := *job
	snapshot.Errors = append([]RowError(nil), job.Errors...)
	return snapshot, true
}

func (s *MemoryStore) Update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// SweepOlder removes jobs created before now-ttl and returns copies of the
// removed entries so the caller can delete their artifacts.
func (s *MemoryStore) SweepOlder(ttl time.Duration) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-ttl)
	var removed []Job
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			removed = append(removed, *job)
			delete(s.jobs, id)
		}
	}
	return removed
}
