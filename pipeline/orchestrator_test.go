package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"articleforge/generation"
	"articleforge/store"
	"articleforge/types"
)

type fakeAcquirer struct {
	candidates []types.ReferenceCandidate
	acquired   []types.AcquiredReference
	lastQuery  string
}

func (f *fakeAcquirer) Acquire(ctx context.Context, query string, maxCandidates, maxFetch int) ([]types.ReferenceCandidate, []types.AcquiredReference) {
	f.lastQuery = query
	if f.candidates == nil {
		return []types.ReferenceCandidate{}, []types.AcquiredReference{}
	}
	return f.candidates, f.acquired
}

type fakeGenerator struct {
	result  generation.Result
	block   chan struct{}
	started chan struct{}
}

func (f *fakeGenerator) Rewrite(ctx context.Context, title, body string, refs []types.AcquiredReference) generation.Result {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.result
}

// failingStore wraps a Store and fails the nth Save call (1-based), once.
type failingStore struct {
	store.Store
	mu     sync.Mutex
	saves  int
	failOn int
}

func (f *failingStore) Save(ctx context.Context, doc *types.Document) error {
	f.mu.Lock()
	f.saves++
	n := f.saves
	f.mu.Unlock()
	if n == f.failOn {
		return errors.New("store unavailable")
	}
	return f.Store.Save(ctx, doc)
}

// idFaultStore fails the first Save for one document id and passes
// everything else through.
type idFaultStore struct {
	store.Store
	failID string
	failed bool
}

func (f *idFaultStore) Save(ctx context.Context, doc *types.Document) error {
	if doc.ID == f.failID && !f.failed {
		f.failed = true
		return errors.New("store unavailable")
	}
	return f.Store.Save(ctx, doc)
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []types.Status
}

func (r *recordingNotifier) DocumentProcessed(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, doc.Status)
	return nil
}

func seedDocument(t *testing.T, s store.Store, title, body string) string {
	t.Helper()
	doc := &types.Document{
		OriginalTitle: title,
		OriginalURL:   "https://source.example.com/post",
		Status:        types.StatusOriginal,
		IngestedAt:    time.Now(),
	}
	doc.SetOriginalBody(body)
	if err := s.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	return doc.ID
}

func stagePair(log []types.LogEntry, stage string) (started, terminal bool) {
	for _, e := range log {
		if e.Stage != stage {
			continue
		}
		switch e.Phase {
		case types.PhaseStarted:
			started = true
		case types.PhaseCompleted, types.PhaseFailed:
			terminal = true
		}
	}
	return
}

func TestProcessSuccess(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seedDocument(t, s, "Go Pipelines", "A body with enough words to count.\n\nAnother paragraph of real content here.")

	acq := &fakeAcquirer{
		candidates: []types.ReferenceCandidate{
			{Title: "C1", URL: "https://c1.example.com", Domain: "c1.example.com"},
			{Title: "C2", URL: "https://c2.example.com", Domain: "c2.example.com"},
		},
		acquired: []types.AcquiredReference{
			{Title: "C1", URL: "https://c1.example.com", Body: "ref body", Domain: "c1.example.com"},
		},
	}
	gen := &fakeGenerator{result: generation.Result{Body: "# Rewritten\n\nBetter text.", Provider: "cohere/command-r"}}

	o := NewOrchestrator(s, acq, gen)
	doc, err := o.Process(ctx, id)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if doc.Status != types.StatusUpdated {
		t.Errorf("status = %s, want updated", doc.Status)
	}
	if doc.UpdatedBody == "" {
		t.Error("updated body empty")
	}
	if doc.UpdatedTitle != "Enhanced: Go Pipelines" {
		t.Errorf("updated title = %q", doc.UpdatedTitle)
	}
	if doc.ProviderUsed != "cohere/command-r" {
		t.Errorf("provider = %q", doc.ProviderUsed)
	}
	if doc.ProcessingTime <= 0 {
		t.Error("processing time not recorded")
	}
	if doc.WordCount.Updated == 0 {
		t.Error("updated word count not recomputed")
	}
	if acq.lastQuery != "Go Pipelines" {
		t.Errorf("discovery query = %q", acq.lastQuery)
	}
	if len(doc.ReferenceCandidates) != 2 || len(doc.AcquiredReferences) != 1 {
		t.Errorf("references = %d/%d", len(doc.ReferenceCandidates), len(doc.AcquiredReferences))
	}

	for _, stage := range []string{"started", "discovery", "generation"} {
		started, terminal := stagePair(doc.ProcessingLog, stage)
		if !started {
			t.Errorf("stage %s has no started entry", stage)
		}
		if stage != "started" && !terminal {
			t.Errorf("stage %s has no terminal entry", stage)
		}
	}
	if _, completed := stagePair(doc.ProcessingLog, "completed"); !completed {
		t.Error("missing pipeline-level completed entry")
	}

	// The snapshot must match what was persisted.
	stored, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after process: %v", err)
	}
	if stored.Status != types.StatusUpdated || stored.UpdatedBody != doc.UpdatedBody {
		t.Error("persisted document does not match returned snapshot")
	}
}

func TestProcessNotFound(t *testing.T) {
	o := NewOrchestrator(store.NewMemoryStore(), &fakeAcquirer{}, &fakeGenerator{})
	if _, err := o.Process(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestProcessRejectsProcessingStatus(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seedDocument(t, s, "T", "body")

	doc, _ := s.Get(ctx, id)
	doc.Status = types.StatusProcessing
	if err := s.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	o := NewOrchestrator(s, &fakeAcquirer{}, &fakeGenerator{})
	if _, err := o.Process(ctx, id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("error = %v, want ErrInvalidState", err)
	}
}

func TestProcessRejectsConcurrentAttempt(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seedDocument(t, s, "T", "body text here")

	gen := &fakeGenerator{
		result:  generation.Result{Body: "out", Provider: "p"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	o := NewOrchestrator(s, &fakeAcquirer{}, gen)

	done := make(chan error, 1)
	go func() {
		_, err := o.Process(ctx, id)
		done <- err
	}()

	<-gen.started
	if _, err := o.Process(ctx, id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("concurrent Process error = %v, want ErrInvalidState", err)
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
}

func TestProcessDegradedAcquisitionStillSucceeds(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seedDocument(t, s, "T", "a body paragraph that is long enough to retain")

	// Every fetch failed: empty acquisition.
	acq := &fakeAcquirer{}
	gen := &fakeGenerator{result: generation.Result{Body: "rewritten", Provider: "p"}}

	o := NewOrchestrator(s, acq, gen)
	doc, err := o.Process(ctx, id)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if doc.Status != types.StatusUpdated {
		t.Errorf("status = %s, want updated despite empty acquisition", doc.Status)
	}
	if len(doc.AcquiredReferences) != 0 {
		t.Errorf("acquired = %d, want 0", len(doc.AcquiredReferences))
	}
}

func TestProcessAllProvidersFailUsesFallback(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	body := "Para one here now.\n\nPara two with more than twenty chars."
	id := seedDocument(t, s, "Fallback Title", body)

	// Real generation client with no providers: deterministic fallback.
	gen := generation.NewClient(nil, time.Second, nil)
	o := NewOrchestrator(s, &fakeAcquirer{}, gen)

	doc, err := o.Process(ctx, id)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if doc.ProviderUsed != generation.FallbackName {
		t.Errorf("provider = %q, want fallback", doc.ProviderUsed)
	}
	want := generation.FallbackRewrite("Fallback Title", body, nil)
	if doc.UpdatedBody != want {
		t.Error("updated body differs from deterministic fallback output")
	}
}

func TestProcessStoreFaultMarksFailed(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	id := seedDocument(t, mem, "T", "body text long enough here")

	// Save sequence per attempt: 1 start, 2 discovery start, 3 discovery
	// result, 4 generation start, 5 generation result, 6 finalize.
	fs := &failingStore{Store: mem, failOn: 5}
	gen := &fakeGenerator{result: generation.Result{Body: "out", Provider: "p"}}

	o := NewOrchestrator(fs, &fakeAcquirer{}, gen)
	_, err := o.Process(ctx, id)

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *pipeline.Error", err)
	}

	stored, getErr := mem.Get(ctx, id)
	if getErr != nil {
		t.Fatalf("Get: %v", getErr)
	}
	if stored.Status != types.StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if _, failed := stagePair(stored.ProcessingLog, "failed"); !failed {
		t.Error("missing failed log entry")
	}
}

func TestRetryAfterFailurePreservesLog(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	id := seedDocument(t, mem, "Retry Me", "body text long enough to retain here")

	fs := &failingStore{Store: mem, failOn: 4}
	gen := &fakeGenerator{result: generation.Result{Body: "out", Provider: "p"}}

	o := NewOrchestrator(fs, &fakeAcquirer{}, gen)
	if _, err := o.Process(ctx, id); err == nil {
		t.Fatal("expected first attempt to fail")
	}

	failedDoc, _ := mem.Get(ctx, id)
	failedLen := len(failedDoc.ProcessingLog)
	if failedLen == 0 {
		t.Fatal("failed attempt left no log entries")
	}

	// Second attempt against the healthy store.
	o2 := NewOrchestrator(mem, &fakeAcquirer{}, gen)
	doc, err := o2.Process(ctx, id)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if doc.Status != types.StatusUpdated {
		t.Errorf("status = %s, want updated", doc.Status)
	}
	if len(doc.ProcessingLog) <= failedLen {
		t.Errorf("log length %d did not grow past %d; prior entries lost?", len(doc.ProcessingLog), failedLen)
	}
	// Entries from the failed attempt are still at the front.
	for i, e := range failedDoc.ProcessingLog {
		got := doc.ProcessingLog[i]
		if got.Stage != e.Stage || got.Phase != e.Phase {
			t.Errorf("log entry %d rewritten: %+v vs %+v", i, got, e)
		}
	}
}

func TestProcessNotifiesOnSuccessAndFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	okID := seedDocument(t, mem, "ok", "body text here long enough")
	badID := seedDocument(t, mem, "bad", "body text here long enough")

	n := &recordingNotifier{}
	gen := &fakeGenerator{result: generation.Result{Body: "out", Provider: "p"}}

	o := NewOrchestrator(mem, &fakeAcquirer{}, gen, WithNotifier(n))
	if _, err := o.Process(ctx, okID); err != nil {
		t.Fatalf("Process ok: %v", err)
	}

	fs := &failingStore{Store: mem, failOn: 3}
	o2 := NewOrchestrator(fs, &fakeAcquirer{}, gen, WithNotifier(n))
	if _, err := o2.Process(ctx, badID); err == nil {
		t.Fatal("expected failure")
	}

	if len(n.seen) != 2 || n.seen[0] != types.StatusUpdated || n.seen[1] != types.StatusFailed {
		t.Errorf("notifier saw %v", n.seen)
	}
}

func TestBulkProcessIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	a := seedDocument(t, mem, "A", "body a long enough to matter")
	c := seedDocument(t, mem, "C", "body c long enough to matter")

	gen := &fakeGenerator{result: generation.Result{Body: "out", Provider: "p"}}
	o := NewOrchestrator(mem, &fakeAcquirer{}, gen, WithBulkPacing(0))

	results := o.BulkProcess(ctx, []string{a, "missing-id", c})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].ID != a || !results[0].Success {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].ID != "missing-id" || results[1].Success {
		t.Errorf("result[1] = %+v", results[1])
	}
	if results[2].ID != c || !results[2].Success {
		t.Errorf("result[2] = %+v", results[2])
	}
}

func TestBulkProcessIsolatesStoreFault(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	a := seedDocument(t, mem, "A", "body a long enough to matter")
	b := seedDocument(t, mem, "B", "body b long enough to matter")
	c := seedDocument(t, mem, "C", "body c long enough to matter")

	fs := &idFaultStore{Store: mem, failID: b}
	gen := &fakeGenerator{result: generation.Result{Body: "out", Provider: "p"}}
	o := NewOrchestrator(fs, &fakeAcquirer{}, gen, WithBulkPacing(0))

	results := o.BulkProcess(ctx, []string{a, b, c})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Errorf("success flags = %v/%v/%v", results[0].Success, results[1].Success, results[2].Success)
	}
	if results[1].ID != b || results[1].Message == "" {
		t.Errorf("faulted result = %+v", results[1])
	}

	// The faulted document is left in its terminal failed state while
	// its neighbors completed.
	stored, err := mem.Get(ctx, b)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != types.StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	for _, id := range []string{a, c} {
		doc, _ := mem.Get(ctx, id)
		if doc.Status != types.StatusUpdated {
			t.Errorf("document %s status = %s, want updated", id, doc.Status)
		}
	}
}

func TestBulkProcessPreservesOrderWithPacing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = seedDocument(t, mem, fmt.Sprintf("doc %d", i), "body text long enough to keep")
	}

	gen := &fakeGenerator{result: generation.Result{Body: "out", Provider: "p"}}
	o := NewOrchestrator(mem, &fakeAcquirer{}, gen, WithBulkPacing(10*time.Millisecond))

	start := time.Now()
	results := o.BulkProcess(ctx, ids)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("pacing not applied: run took %s", elapsed)
	}
	for i, r := range results {
		if r.ID != ids[i] {
			t.Errorf("result %d out of order: %s", i, r.ID)
		}
	}
}
