// Package pipeline drives a document through the enhancement stages:
// reference discovery and acquisition, text generation, finalization.
// Every stage transition is persisted so a crash loses at most the
// in-flight stage.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"articleforge/config"
	"articleforge/generation"
	"articleforge/store"
	"articleforge/types"
)

// Stage names recorded in the processing log.
const (
	stagePipeline   = "started"
	stageDiscovery  = "discovery"
	stageGeneration = "generation"
	stageCompleted  = "completed"
	stageFailed     = "failed"
)

// Acquirer discovers and fetches reference material for a query.
// Degradations are absorbed: empty results are valid.
type Acquirer interface {
	Acquire(ctx context.Context, query string, maxCandidates, maxFetch int) ([]types.ReferenceCandidate, []types.AcquiredReference)
}

// Generator rewrites a document. It cannot fail: provider failures fall
// through to a local algorithm.
type Generator interface {
	Rewrite(ctx context.Context, title, body string, refs []types.AcquiredReference) generation.Result
}

// Notifier is told about finished attempts. Optional; failures are
// logged, never surfaced.
type Notifier interface {
	DocumentProcessed(ctx context.Context, doc *types.Document) error
}

// Archiver persists a durable record of enhanced documents. Optional;
// failures are logged, never surfaced.
type Archiver interface {
	Archive(ctx context.Context, doc *types.Document) error
}

// Orchestrator is the enhancement state machine. All collaborators are
// injected at construction so tests can substitute doubles.
type Orchestrator struct {
	store     store.Store
	acquirer  Acquirer
	generator Generator
	notifier  Notifier
	archiver  Archiver
	logger    *slog.Logger
	pacing    time.Duration

	// inflight holds one marker per document id with an active attempt.
	inflight sync.Map
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier attaches a completion notifier.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithArchiver attaches an enhanced-document archiver.
func WithArchiver(a Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger.With("component", "pipeline")
		}
	}
}

// WithBulkPacing overrides the delay between bulk items.
func WithBulkPacing(d time.Duration) Option {
	return func(o *Orchestrator) { o.pacing = d }
}

// NewOrchestrator creates an Orchestrator over the given collaborators.
func NewOrchestrator(st store.Store, acquirer Acquirer, generator Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     st,
		acquirer:  acquirer,
		generator: generator,
		logger:    slog.Default().With("component", "pipeline"),
		pacing:    config.BulkPacingDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one enhancement attempt for the document. It returns the
// final document snapshot on success, store.ErrNotFound for unknown ids,
// ErrInvalidState when an attempt is already in flight, or *Error when
// an unexpected fault aborted the attempt (the document is then marked
// failed). Stage-local degradations never abort the attempt.
func (o *Orchestrator) Process(ctx context.Context, id string) (*types.Document, error) {
	if _, loaded := o.inflight.LoadOrStore(id, struct{}{}); loaded {
		return nil, ErrInvalidState
	}
	defer o.inflight.Delete(id)

	doc, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// A processing status without an in-flight marker means another
	// process owns the attempt, or a prior crash left the marker behind;
	// either way this invocation must not race it.
	if doc.Status == types.StatusProcessing {
		return nil, ErrInvalidState
	}

	o.logger.Info("enhancement attempt starting", "document_id", id)

	doc.Status = types.StatusProcessing
	doc.AppendLog(stagePipeline, types.PhaseStarted, "document processing started")
	if err := o.store.Save(ctx, doc); err != nil {
		return nil, o.fail(ctx, doc, fmt.Errorf("persist attempt start: %w", err))
	}

	if err := o.runDiscovery(ctx, doc); err != nil {
		return nil, o.fail(ctx, doc, err)
	}

	if err := o.runGeneration(ctx, doc); err != nil {
		return nil, o.fail(ctx, doc, err)
	}

	if err := o.finalize(ctx, doc); err != nil {
		return nil, o.fail(ctx, doc, err)
	}

	o.logger.Info("enhancement attempt complete",
		"document_id", id,
		"provider", doc.ProviderUsed,
		"elapsed", doc.ProcessingTime)

	o.notifyAndArchive(ctx, doc)
	return doc, nil
}

// runDiscovery executes the discovery+acquisition stage. Empty search
// results and failed fetches degrade quality but never fail the stage;
// only a store fault does.
func (o *Orchestrator) runDiscovery(ctx context.Context, doc *types.Document) error {
	doc.AppendLog(stageDiscovery, types.PhaseStarted, "searching for reference articles")
	if err := o.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist discovery start: %w", err)
	}

	// An empty title still runs discovery with an empty query; it
	// degrades to empty candidates rather than short-circuiting.
	candidates, acquired := o.acquirer.Acquire(ctx, doc.OriginalTitle, config.MaxSearchResults, config.MaxReferenceFetch)
	doc.ReferenceCandidates = candidates
	doc.AcquiredReferences = acquired

	doc.AppendLog(stageDiscovery, types.PhaseCompleted,
		fmt.Sprintf("found %d candidates, acquired %d references", len(candidates), len(acquired)))
	if err := o.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist discovery result: %w", err)
	}
	return nil
}

// runGeneration executes the generation stage and records elapsed time.
func (o *Orchestrator) runGeneration(ctx context.Context, doc *types.Document) error {
	doc.AppendLog(stageGeneration, types.PhaseStarted, "rewriting document")
	if err := o.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist generation start: %w", err)
	}

	start := time.Now()
	result := o.generator.Rewrite(ctx, doc.OriginalTitle, doc.OriginalBody, doc.AcquiredReferences)
	elapsed := time.Since(start)

	doc.SetUpdatedBody(result.Body)
	doc.ProviderUsed = result.Provider
	doc.ProcessingTime = elapsed

	doc.AppendLog(stageGeneration, types.PhaseCompleted,
		fmt.Sprintf("document rewritten using %s in %s", result.Provider, elapsed.Round(time.Millisecond)))
	if err := o.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist generation result: %w", err)
	}
	return nil
}

// finalize moves the document to its terminal success state.
func (o *Orchestrator) finalize(ctx context.Context, doc *types.Document) error {
	doc.UpdatedTitle = config.EnhancedTitlePrefix + doc.OriginalTitle
	doc.LastUpdated = time.Now()
	doc.Status = types.StatusUpdated

	doc.AppendLog(stageCompleted, types.PhaseCompleted, "document processing completed successfully")
	if err := o.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist finalization: %w", err)
	}
	return nil
}

// fail marks the document failed, best-effort persists the terminal log
// entry, and wraps the fault for the caller.
func (o *Orchestrator) fail(ctx context.Context, doc *types.Document, cause error) error {
	o.logger.Error("enhancement attempt failed", "document_id", doc.ID, "err", cause)

	doc.Status = types.StatusFailed
	doc.AppendLog(stageFailed, types.PhaseFailed, fmt.Sprintf("processing failed: %v", cause))
	if saveErr := o.store.Save(ctx, doc); saveErr != nil {
		o.logger.Error("could not persist failed state", "document_id", doc.ID, "err", saveErr)
	}

	o.notifyProcessed(ctx, doc)
	return &Error{DocumentID: doc.ID, Err: cause}
}

func (o *Orchestrator) notifyAndArchive(ctx context.Context, doc *types.Document) {
	o.notifyProcessed(ctx, doc)
	if o.archiver != nil {
		if err := o.archiver.Archive(ctx, doc); err != nil {
			o.logger.Warn("archive failed", "document_id", doc.ID, "err", err)
		}
	}
}

func (o *Orchestrator) notifyProcessed(ctx context.Context, doc *types.Document) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.DocumentProcessed(ctx, doc); err != nil {
		o.logger.Warn("notify failed", "document_id", doc.ID, "err", err)
	}
}
