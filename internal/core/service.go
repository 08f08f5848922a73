package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImportTimeout is the maximum duration for a single import run.
var ImportTimeout = 10 * time.Minute

// cleanupDelay is how long finished runs stay queryable in memory before
// in-memory state is dropped (the persisted summary remains available).
var cleanupDelay = 5 * time.Minute

// ErrRunNotFound is returned when a run ID matches neither an active nor a
// persisted run.
var ErrRunNotFound = errors.New("run not found")

// ErrRunInProgress is returned by GetRun while a run is still executing;
// callers should poll progress instead.
var ErrRunInProgress = errors.New("run still in progress")

// ExportSource lists graduate records for export projection. The filter is
// a hint: implementations may pre-narrow the result set, and Project
// re-applies the full filter over whatever is returned.
type ExportSource interface {
	ListGraduates(ctx context.Context, f ExportFilter) ([]Graduate, error)
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Defaults      TransformDefaults
	MaxConcurrent int
	MaxWait       time.Duration
	RunTimeout    time.Duration
}

// Service coordinates import runs and exports. Imports execute in
// background goroutines with progress subscription, cancellation, and a
// concurrency cap; exports are synchronous reads.
type Service struct {
	importer   *Importer
	exports    ExportSource
	runs       RunStore
	limiter    *ImportLimiter
	runTimeout time.Duration

	mu     sync.RWMutex
	active map[string]*activeRun
}

type activeRun struct {
	ID       string
	FileName string
	Cancel   context.CancelFunc
	Progress ImportProgress
	Result   *ImportRun
	Err      error
	Done     chan struct{}

	listenerMu sync.Mutex
	listeners  []chan ImportProgress
}

// NewService creates a Service over the given collaborators.
func NewService(courses CourseLookup, graduates GraduateStore, exports ExportSource, runs RunStore, opts ServiceOptions) *Service {
	runTimeout := opts.RunTimeout
	if runTimeout <= 0 {
		runTimeout = ImportTimeout
	}

	return &Service{
		importer:   NewImporter(courses, graduates, runs, opts.Defaults),
		exports:    exports,
		runs:       runs,
		limiter:    NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		runTimeout: runTimeout,
		active:     make(map[string]*activeRun),
	}
}

// StartImport begins an asynchronous import run and returns its ID
// immediately. Use SubscribeProgress for updates and GetRun for the final
// summary. Returns ErrTooManyImports when no run slot frees up in time.
func (s *Service) StartImport(ctx context.Context, fileName string, fileData []byte) (string, error) {
	if len(fileData) == 0 {
		return "", fmt.Errorf("empty file")
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)

	run := &activeRun{
		ID:       runID,
		FileName: fileName,
		Cancel:   cancel,
		Progress: ImportProgress{
			RunID:    runID,
			FileName: fileName,
			Phase:    PhaseStarting,
		},
		Done: make(chan struct{}),
	}

	s.mu.Lock()
	s.active[runID] = run
	s.mu.Unlock()

	go s.processImport(runCtx, run, fileData)

	return runID, nil
}

func (s *Service) processImport(ctx context.Context, run *activeRun, fileData []byte) {
	defer s.limiter.Release()
	defer func() {
		// Done closes first so GetRun observes the final state before any
		// subscriber sees its channel close.
		close(run.Done)
		run.closeListeners()
		s.cleanup(run.ID, cleanupDelay)
	}()

	result, err := s.importer.Run(ctx, run.ID, run.FileName, fileData, func(p ImportProgress) {
		run.setProgress(p)
	})
	if err != nil {
		run.Err = err
		p := run.snapshot()
		p.Phase = PhaseFailed
		p.Error = err.Error()
		run.setProgress(p)
		return
	}

	run.Result = result
	p := run.snapshot()
	p.Created = result.Created
	p.Skipped = result.Skipped
	if result.Status == RunCancelled {
		p.Phase = PhaseCancelled
	} else {
		p.Phase = PhaseComplete
	}
	run.setProgress(p)
}

// SubscribeProgress returns a channel of progress updates for an active
// run. The channel closes when the run finishes. Returns ErrRunNotFound
// for unknown or already-drained runs.
func (s *Service) SubscribeProgress(runID string) (<-chan ImportProgress, error) {
	s.mu.RLock()
	run, ok := s.active[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRunNotFound
	}

	ch := make(chan ImportProgress, 16)

	run.listenerMu.Lock()
	select {
	case <-run.Done:
		run.listenerMu.Unlock()
		// Finished already: deliver the final snapshot and close.
		ch <- run.snapshot()
		close(ch)
		return ch, nil
	default:
	}
	run.listeners = append(run.listeners, ch)
	ch <- run.Progress
	run.listenerMu.Unlock()

	return ch, nil
}

// CancelImport requests cancellation of an active run.
func (s *Service) CancelImport(runID string) error {
	s.mu.RLock()
	run, ok := s.active[runID]
	s.mu.RUnlock()
	if !ok {
		return ErrRunNotFound
	}

	run.Cancel()
	return nil
}

// GetRunProgress returns the current progress snapshot of an active run.
func (s *Service) GetRunProgress(runID string) (ImportProgress, error) {
	s.mu.RLock()
	run, ok := s.active[runID]
	s.mu.RUnlock()
	if !ok {
		return ImportProgress{}, ErrRunNotFound
	}
	return run.snapshot(), nil
}

// GetRun returns the summary for a run, preferring in-memory state for
// recently finished runs and falling back to the run store.
func (s *Service) GetRun(ctx context.Context, runID string) (*ImportRun, error) {
	s.mu.RLock()
	run, ok := s.active[runID]
	s.mu.RUnlock()
	if ok {
		select {
		case <-run.Done:
			// Result and Err are written before Done closes.
			if run.Err != nil {
				return nil, run.Err
			}
			return run.Result, nil
		default:
			return nil, ErrRunInProgress
		}
	}

	stored, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrRunNotFound
	}
	return stored, nil
}

// ListRuns returns recent import runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.runs.ListRecent(ctx, limit)
}

// ExportGraduates produces the tabular projection for an export spec.
func (s *Service) ExportGraduates(ctx context.Context, spec ExportSpec) (*ExportTable, error) {
	records, err := s.exports.ListGraduates(ctx, spec.Filter)
	if err != nil {
		return nil, fmt.Errorf("list graduates: %w", err)
	}
	return Project(records, spec)
}

// LimiterStatus exposes the import limiter state for monitoring.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until all active runs finish, for graceful shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// cleanup drops in-memory run state after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.active, runID)
		s.mu.Unlock()
	})
}

func (r *activeRun) setProgress(p ImportProgress) {
	r.listenerMu.Lock()
	r.Progress = p
	for _, ch := range r.listeners {
		select {
		case ch <- p:
		default: // slow listener, drop the update
		}
	}
	r.listenerMu.Unlock()
}

func (r *activeRun) snapshot() ImportProgress {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()
	return r.Progress
}

func (r *activeRun) closeListeners() {
	r.listenerMu.Lock()
	for _, ch := range r.listeners {
		close(ch)
	}
	r.listeners = nil
	r.listenerMu.Unlock()
}
