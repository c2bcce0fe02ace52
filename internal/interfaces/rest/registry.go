package rest

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"research-backend/internal/domain"
)

// RunStatus tracks a research run through its lifecycle.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one submitted research request and, once finished, its outcome.
type Run struct {
	ID        string
	Topic     string
	Status    RunStatus
	StartedAt time.Time
	EndedAt   time.Time
	Err       error
	Result    *domain.Result
}

// Finished reports whether the run reached a terminal status.
func (r Run) Finished() bool {
	return r.Status == RunCompleted || r.Status == RunFailed
}

// Registry keeps submitted runs in memory. Finished runs older than the
// retention window are swept on the next submission, so an idle registry
// holds its last runs until new work arrives.
type Registry struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistry creates a registry that retains finished runs for the given
// window. A zero or negative retention keeps them indefinitely.
func NewRegistry(retention time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		runs:      make(map[string]*Run),
		retention: retention,
		logger:    logger.Named("runs"),
		now:       time.Now,
	}
}

// Create registers a new pending run and returns a snapshot of it.
func (reg *Registry) Create(topic string) Run {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.sweepLocked()

	run := &Run{
		ID:        uuid.New().String(),
		Topic:     topic,
		Status:    RunPending,
		StartedAt: reg.now(),
	}
	reg.runs[run.ID] = run
	return *run
}

// MarkRunning flips a pending run to running.
func (reg *Registry) MarkRunning(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if run, ok := reg.runs[id]; ok && run.Status == RunPending {
		run.Status = RunRunning
	}
}

// Complete stores the result of a finished run.
func (reg *Registry) Complete(id string, res *domain.Result) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	run, ok := reg.runs[id]
	if !ok || run.Finished() {
		return
	}
	run.Status = RunCompleted
	run.Result = res
	run.EndedAt = reg.now()
}

// Fail records a failed run together with its error.
func (reg *Registry) Fail(id string, err error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	run, ok := reg.runs[id]
	if !ok || run.Finished() {
		return
	}
	run.Status = RunFailed
	run.Err = err
	run.EndedAt = reg.now()
}

// Get returns a snapshot of the run with the given ID.
func (reg *Registry) Get(id string) (Run, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	run, ok := reg.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Len reports how many runs the registry currently holds.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.runs)
}

func (reg *Registry) sweepLocked() {
	if reg.retention <= 0 {
		return
	}
	cutoff := reg.now().Add(-reg.retention)
	for id, run := range reg.runs {
		if run.Finished() && run.EndedAt.Before(cutoff) {
			delete(reg.runs, id)
			reg.logger.Debug("swept expired run", zap.String("run_id", id))
		}
	}
}
