package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/events"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// ErrAlreadyRunning is returned when a start request arrives while a run
// is in flight. The active run is left untouched.
var ErrAlreadyRunning = errors.New("analysis already running")

// IssueDates resolves a business issue number to its reference instant.
type IssueDates interface {
	DateOf(issue int) (time.Time, bool)
}

// StartRequest carries everything one analysis run needs.
type StartRequest struct {
	Works           []models.Work
	ReferenceIssue  int
	TrendWords      []models.TrendWord
	OriginalQueries map[string][]string
}

// Runner owns the run state and drives the planned tasks sequentially on a
// single background goroutine. Only the start transition is contended; once
// running, the worker is the sole writer and readers take snapshots under
// the same mutex.
type Runner struct {
	analyzer *Analyzer
	issues   IssueDates
	events   *events.Publisher
	logger   logger.Logger

	mu       sync.Mutex
	progress models.Progress
	results  []models.AnalysisResult
	runID    string
}

func NewRunner(analyzer *Analyzer, issues IssueDates, publisher *events.Publisher, log logger.Logger) *Runner {
	return &Runner{
		analyzer: analyzer,
		issues:   issues,
		events:   publisher,
		logger:   log,
		progress: models.Progress{Status: models.RunIdle},
	}
}

// Start begins a run in the background and returns its ID. Returns
// ErrAlreadyRunning when a run is in flight; the in-flight run's progress
// is not altered in that case.
func (r *Runner) Start(req StartRequest) (string, error) {
	r.mu.Lock()
	if r.progress.Status == models.RunRunning {
		r.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	runID := uuid.New().String()
	r.runID = runID
	r.progress = models.Progress{Status: models.RunRunning, Message: "initializing"}
	r.results = nil
	r.mu.Unlock()

	go r.run(runID, req)
	return runID, nil
}

// Progress returns a snapshot of the current run state.
func (r *Runner) Progress() models.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Results returns the completed result set. ok is false until a run has
// completed; a new start clears the previous results.
func (r *Runner) Results() ([]models.AnalysisResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		return nil, false
	}
	return r.results, true
}

func (r *Runner) run(runID string, req StartRequest) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(runID, fmt.Sprintf("analysis aborted: %v", rec))
		}
	}()

	ref, ok := r.issues.DateOf(req.ReferenceIssue)
	if !ok {
		r.fail(runID, fmt.Sprintf("no date mapped for issue %d", req.ReferenceIssue))
		return
	}

	tasks := Plan(req.Works, req.TrendWords, req.OriginalQueries)

	r.mu.Lock()
	r.progress.Total = len(tasks)
	r.mu.Unlock()

	r.logger.Info("Analysis run started",
		logger.String("run_id", runID),
		logger.Int("issue", req.ReferenceIssue),
		logger.Int("tasks", len(tasks)),
	)
	r.events.PublishAsync(events.Event{
		EventType: events.RunStarted,
		RunID:     runID,
		Payload:   map[string]any{"issue_number": req.ReferenceIssue, "total_tasks": len(tasks)},
	})

	ctx := context.Background()
	results := make([]models.AnalysisResult, 0, len(tasks))
	for i, task := range tasks {
		r.mu.Lock()
		r.progress.Current = i + 1
		r.progress.Message = task.Message
		r.mu.Unlock()

		result := r.analyzer.Analyze(ctx, task.WorkName, task.Query, ref)
		result.IsTrend = task.IsTrend
		result.WithTrendWord = task.WithTrendWord
		result.TrendWords = task.TrendWords
		result.IsTrendIndividual = task.IsTrendIndividual
		results = append(results, result)
	}

	r.mu.Lock()
	r.results = results
	r.progress.Status = models.RunCompleted
	r.progress.Message = "analysis complete"
	r.mu.Unlock()

	r.logger.Info("Analysis run completed",
		logger.String("run_id", runID),
		logger.Int("results", len(results)),
	)
	r.events.PublishAsync(events.Event{
		EventType: events.RunCompleted,
		RunID:     runID,
		Payload:   map[string]any{"results": len(results)},
	})
}

// fail records a terminal error. Intermediate results stay discarded.
func (r *Runner) fail(runID, message string) {
	r.mu.Lock()
	r.progress.Status = models.RunError
	r.progress.Message = message
	r.results = nil
	r.mu.Unlock()

	r.logger.Error("Analysis run failed",
		logger.String("run_id", runID),
		logger.String("message", message),
	)
	r.events.PublishAsync(events.Event{
		EventType: events.RunFailed,
		RunID:     runID,
		Payload:   map[string]any{"message": message},
	})
}
