// Package job provides the in-memory job store backing asynchronous
// validation runs. A Job is an append-only event sink: the orchestrator
// pushes progress and terminal events onto it, and the HTTP layer polls
// snapshots. Jobs are ephemeral; the store retains a bounded number of
// recent runs.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Event types pushed by a run.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Job tracks one validation run. Writers (the orchestrator) and
// readers (HTTP polling) race, so all access goes through the mutex.
type Job struct {
	mu        sync.Mutex
	id        string
	status    Status
	events    []Event
	result    any
	startTime time.Time
	endTime   time.Time
}

// View is an immutable snapshot of a job for JSON serialization.
type View struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	Events    []Event    `json:"events"`
	Result    any        `json:"result,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

func (j *Job) ID() string { return j.id }

// PushEvent appends a non-terminal event.
func (j *Job) PushEvent(eventType string, data any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
}

// Complete marks the job done, records the result and appends the
// terminal complete event.
func (j *Job) Complete(result any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusComplete
	j.result = result
	j.endTime = time.Now().UTC()
	j.events = append(j.events, Event{Type: EventComplete, Data: result, Timestamp: j.endTime})
}

// Fail marks the job failed with a terminal error event.
func (j *Job) Fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusError
	j.endTime = time.Now().UTC()
	j.events = append(j.events, Event{
		Type:      EventError,
		Data:      map[string]any{"message": message},
		Timestamp: j.endTime,
	})
}

// Snapshot returns a copy safe to serialize while the run continues.
func (j *Job) Snapshot() View {
	j.mu.Lock()
	defer j.mu.Unlock()
	view := View{
		ID:        j.id,
		Status:    j.status,
		Events:    make([]Event, len(j.events)),
		Result:    j.result,
		StartTime: j.startTime,
	}
	copy(view.Events, j.events)
	if !j.endTime.IsZero() {
		end := j.endTime
		view.EndTime = &end
	}
	return view
}

// Store retains recent jobs, evicting the oldest past maxJobs.
type Store struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string
	maxJobs int
}

const DefaultMaxJobs = 100

func NewStore(maxJobs int) *Store {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	return &Store{
		jobs:    make(map[string]*Job),
		maxJobs: maxJobs,
	}
}

// Create registers a new running job.
func (s *Store) Create() *Job {
	j := &Job{
		id:        "val_" + uuid.New().String(),
		status:    StatusRunning,
		startTime: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.id] = j
	s.order = append(s.order, j.id)
	for len(s.order) > s.maxJobs {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}
	return j
}

// Get looks up a job by ID.
func (s *Store) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}
