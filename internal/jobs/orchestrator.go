// Package jobs runs the simulated background workflows: document
// verification and term optimization. Jobs execute on the shared worker pool,
// publish their lifecycle to the event broker and settle their store record
// exactly once.
package jobs

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"krida.io/dealdesk/internal/domain"
	"krida.io/dealdesk/internal/events"
	"krida.io/dealdesk/internal/pkg/logger"
	"krida.io/dealdesk/internal/pkg/worker"
	"krida.io/dealdesk/internal/store"
)

// Job type names as stored on the job record.
const (
	TypeDocVerify    = "doc.verify"
	TypeTermOptimize = "term.optimize"
)

// Options tunes the simulated work. Delays are uniform in [Min, Max].
type Options struct {
	VerifyDelayMin time.Duration
	VerifyDelayMax time.Duration

	OptimizeDelayMin time.Duration
	OptimizeDelayMax time.Duration

	// VerifySuccessRate is the probability a document verification ends in
	// the verified status rather than rejected.
	VerifySuccessRate float64
}

// DefaultOptions returns the production timings.
func DefaultOptions() Options {
	return Options{
		VerifyDelayMin:    2 * time.Second,
		VerifyDelayMax:    6 * time.Second,
		OptimizeDelayMin:  3 * time.Second,
		OptimizeDelayMax:  8 * time.Second,
		VerifySuccessRate: 0.8,
	}
}

// Orchestrator schedules background jobs and tracks them until settled.
type Orchestrator struct {
	store  *store.Store
	broker *events.Broker
	pool   *worker.Pool
	opts   Options

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an orchestrator whose jobs live within ctx.
func New(ctx context.Context, st *store.Store, broker *events.Broker, pool *worker.Pool, opts Options) *Orchestrator {
	baseCtx, baseCancel := context.WithCancel(ctx)
	return &Orchestrator{
		store:      st,
		broker:     broker,
		pool:       pool,
		opts:       opts,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		inflight:   make(map[string]context.CancelFunc),
	}
}

// ScheduleDocVerification creates a doc.verify job for the document and
// starts it in the background. The returned job id is immediately readable
// through the store in its queued state.
func (o *Orchestrator) ScheduleDocVerification(dealID, documentID string) (string, error) {
	job := o.store.CreateJob(TypeDocVerify)
	err := o.launch(job.ID, dealID, func(ctx context.Context) error {
		return o.runDocVerification(ctx, job.ID, dealID, documentID)
	})
	return job.ID, err
}

// ScheduleTermOptimization creates a term.optimize job for the deal and
// starts it in the background.
func (o *Orchestrator) ScheduleTermOptimization(dealID string) (string, error) {
	job := o.store.CreateJob(TypeTermOptimize)
	err := o.launch(job.ID, dealID, func(ctx context.Context) error {
		return o.runTermOptimization(ctx, job.ID, dealID)
	})
	return job.ID, err
}

// Inflight returns the number of jobs currently tracked.
func (o *Orchestrator) Inflight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// Shutdown cancels every running job and waits for all of them to settle.
// Cancelled jobs are marked failed.
func (o *Orchestrator) Shutdown() {
	o.baseCancel()

	o.mu.Lock()
	for _, cancel := range o.inflight {
		cancel()
	}
	o.mu.Unlock()

	o.wg.Wait()
}

// launch registers the job and hands it to the pool. Submission bypasses the
// pool's context gating so the settle path always runs.
func (o *Orchestrator) launch(jobID, dealID string, run func(ctx context.Context) error) error {
	jobCtx, cancel := context.WithCancel(o.baseCtx)

	o.mu.Lock()
	o.inflight[jobID] = cancel
	o.mu.Unlock()
	o.wg.Add(1)

	err := o.pool.Go(func() {
		defer o.settle(jobID)
		o.runGuarded(jobCtx, jobID, dealID, run)
	})
	if err != nil {
		o.settle(jobID)
		o.failJob(jobID, dealID, fmt.Sprintf("submit job: %v", err))
		return err
	}
	return nil
}

func (o *Orchestrator) settle(jobID string) {
	o.mu.Lock()
	cancel, ok := o.inflight[jobID]
	delete(o.inflight, jobID)
	o.mu.Unlock()
	if !ok {
		return
	}
	cancel()
	o.wg.Done()
}

// runGuarded is the recovery boundary: a job failure, cancellation or panic
// marks the job failed and emits job.failed, never crossing into the pool.
func (o *Orchestrator) runGuarded(ctx context.Context, jobID, dealID string, run func(ctx context.Context) error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Job panicked",
				zap.String("jobId", jobID),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
			o.failJob(jobID, dealID, fmt.Sprintf("panic: %v", p))
		}
	}()

	if err := run(ctx); err != nil {
		o.failJob(jobID, dealID, err.Error())
	}
}

// failJob transitions the job to failed and publishes job.failed. A job that
// already reached a terminal state is left untouched by the store, so a late
// failure never overwrites a success.
func (o *Orchestrator) failJob(jobID, dealID, msg string) {
	if _, err := o.store.UpdateJob(jobID, domain.JobFailed, nil, &msg); err != nil {
		logger.Warn("Failed to mark job failed", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	o.broker.Publish(dealID, domain.Event{
		Type: domain.EventJobFailed,
		Data: domain.JobFailedPayload{JobID: jobID, Error: msg},
	})
	logger.Info("Job failed", zap.String("jobId", jobID), zap.String("error", msg))
}

func (o *Orchestrator) runDocVerification(ctx context.Context, jobID, dealID, documentID string) error {
	if _, err := o.store.UpdateJob(jobID, domain.JobRunning, nil, nil); err != nil {
		return err
	}
	o.broker.Publish(dealID, domain.Event{
		Type: domain.EventDocumentVerificationStarted,
		Data: domain.VerificationStartedPayload{DealID: dealID, DocumentID: documentID},
	})
	if _, err := o.store.AppendActivity(dealID, domain.ActivityEvent{
		ID:      "act_" + jobID + "_start",
		Type:    string(domain.EventDocumentVerificationStarted),
		Payload: map[string]any{"documentId": documentID},
	}); err != nil {
		return err
	}

	if err := sleepCtx(ctx, uniformDelay(o.opts.VerifyDelayMin, o.opts.VerifyDelayMax)); err != nil {
		return err
	}

	success := rand.Float64() < o.opts.VerifySuccessRate
	newStatus := domain.DocVerified
	eventType := domain.EventDocumentVerified
	if !success {
		newStatus = domain.DocRejected
		eventType = domain.EventDocumentRejected
	}

	status := string(newStatus)
	document, err := o.store.UpdateDocument(documentID, store.DocumentPatch{Status: &status})
	if err != nil {
		return err
	}
	o.broker.Publish(dealID, domain.Event{Type: eventType, Data: document})
	if _, err := o.store.AppendActivity(dealID, domain.ActivityEvent{
		ID:      "act_" + jobID + "_finish",
		Type:    string(eventType),
		Payload: map[string]any{"documentId": documentID, "status": status},
	}); err != nil {
		return err
	}

	_, err = o.store.UpdateJob(jobID, domain.JobSucceeded,
		map[string]any{"documentId": documentID, "status": status}, nil)
	return err
}

func (o *Orchestrator) runTermOptimization(ctx context.Context, jobID, dealID string) error {
	if _, err := o.store.UpdateJob(jobID, domain.JobRunning, nil, nil); err != nil {
		return err
	}
	o.broker.Publish(dealID, domain.Event{
		Type: domain.EventTermOptimizeStarted,
		Data: domain.TermOptimizeStartedPayload{DealID: dealID, JobID: jobID},
	})

	if err := sleepCtx(ctx, uniformDelay(o.opts.OptimizeDelayMin, o.opts.OptimizeDelayMax)); err != nil {
		return err
	}

	createdIDs := make([]string, 0, 2)
	for _, suggestion := range termSuggestions(dealID) {
		created, err := o.store.AddSuggestion(dealID, suggestion)
		if err != nil {
			return err
		}
		createdIDs = append(createdIDs, created.ID)
	}

	o.broker.Publish(dealID, domain.Event{
		Type: domain.EventTermOptimized,
		Data: domain.TermOptimizedPayload{DealID: dealID, SuggestionIDs: createdIDs},
	})
	if _, err := o.store.AppendActivity(dealID, domain.ActivityEvent{
		ID:      "act_" + jobID + "_optimized",
		Type:    string(domain.EventTermOptimized),
		Payload: map[string]any{"suggestionIds": createdIDs},
	}); err != nil {
		return err
	}

	_, err := o.store.UpdateJob(jobID, domain.JobSucceeded,
		map[string]any{"dealId": dealID, "suggestionIds": createdIDs}, nil)
	return err
}

// termSuggestions picks two of the canned improvement templates, with ids
// deterministic per deal and slot.
func termSuggestions(dealID string) []domain.Suggestion {
	templates := []domain.Suggestion{
		{Severity: domain.SeverityInfo, Text: "Consider trimming amortization by 12 months to improve velocity."},
		{Severity: domain.SeverityInfo, Text: "Add 0.5% closing fee to offset rate reductions."},
		{Severity: domain.SeverityWarning, Text: "Introduce DSCR covenant at 1.15x with quarterly testing."},
		{Severity: domain.SeverityCritical, Text: "Re-evaluate collateral appraisal; variance exceeds policy."},
	}
	rand.Shuffle(len(templates), func(i, j int) { templates[i], templates[j] = templates[j], templates[i] })

	selected := templates[:2]
	for i := range selected {
		selected[i].ID = fmt.Sprintf("s_%s_opt_%d", dealID, i+1)
		selected[i].DealID = dealID
	}
	return selected
}

func uniformDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
