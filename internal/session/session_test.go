package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/data/store"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/internal/rag/ingest"
	"github.com/akolanti/PDFChat/internal/rag/rag_test"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB/chromemDB"
)

type fixture struct {
	manager *Manager
	loader  *rag_test.MockLoader
	embed   *rag_test.MockEmbedder
	llm     *rag_test.MockLLM
	store   *store.InMemoryConversationStore
}

func documentText() string {
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = strings.Repeat("lorem ipsum ", 5) + "line"
	}
	return strings.Join(lines, "\n")
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		loader: &rag_test.MockLoader{OnLoad: func(ctx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error) {
			return ingest.LoadResult{
				Text:      documentText(),
				Documents: []commonModels.Document{{Name: "a.pdf"}, {Name: "b.pdf"}},
			}, nil
		}},
		embed: &rag_test.MockEmbedder{ProviderName: "public-embed"},
		llm:   &rag_test.MockLLM{ProviderName: "public-llm"},
		store: store.InitInMemoryConversationStore(),
	}
	service := rag.NewService(f.loader, ingest.NewSplitter(), chromemDB.NewBuilder(), rag.Providers{
		PublicEmbedder: f.embed,
		PublicLLM:      f.llm,
	})
	f.manager = NewManager(service, f.store, opts...)
	return f
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "session-test")
}

var uploads = []commonModels.Upload{{Name: "a.pdf", Path: "/tmp/a.pdf"}, {Name: "b.pdf", Path: "/tmp/b.pdf"}}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(WithDefaultMode(commonModels.ModeHub))
	ctx := testCtx()

	snap, err := f.manager.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if snap.State != sessionModel.StateUninitialized || snap.Mode != commonModels.ModeHub {
		t.Errorf("unexpected new session %+v", snap)
	}

	got, err := f.manager.Get(ctx, snap.Id)
	if err != nil || got.Id != snap.Id {
		t.Errorf("Get returned %+v, %v", got, err)
	}
	if _, err := f.manager.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAsk_BeforeProcessing(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)

	_, err := f.manager.Ask(ctx, snap.Id, "What is this about?")
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if f.llm.Calls() != 0 || f.embed.Calls() != 0 {
		t.Error("no provider should be called before processing")
	}
}

func TestProcessThenAsk_AppendsOneTurnPerQuestion(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)

	report, err := f.manager.Process(ctx, snap.Id, uploads)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if report.Chunks < 2 {
		t.Errorf("expected several chunks, got %d", report.Chunks)
	}

	for i, q := range []string{"first question", "second question"} {
		answer, err := f.manager.Ask(ctx, snap.Id, q)
		if err != nil {
			t.Fatalf("Ask failed: %v", err)
		}
		if answer.Text == "" {
			t.Error("expected a non-empty answer")
		}
		history, _ := f.manager.History(ctx, snap.Id)
		if len(history) != i+1 {
			t.Fatalf("expected %d turns, got %d", i+1, len(history))
		}
		if history[i].Question != q {
			t.Errorf("turn %d has question %q", i, history[i].Question)
		}
	}

	got, _ := f.manager.Get(ctx, snap.Id)
	if got.State != sessionModel.StateReady || got.Turns != 2 || got.Report == nil {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestAsk_EmptyQuestionIsNoop(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)
	if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if _, err := f.manager.Ask(ctx, snap.Id, "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	history, _ := f.manager.History(ctx, snap.Id)
	if len(history) != 0 || f.llm.Calls() != 0 {
		t.Error("empty question must not reach the generator or the history")
	}
}

func TestProcess_FailureLeavesSessionUninitialized(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)

	f.loader.OnLoad = func(ctx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error) {
		return ingest.LoadResult{Warnings: []string{"No text found on page 1 of scan.pdf"}}, ingest.ErrNoReadableText
	}
	report, err := f.manager.Process(ctx, snap.Id, uploads)
	if !errors.Is(err, ingest.ErrNoReadableText) {
		t.Fatalf("expected ErrNoReadableText, got %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("warnings should be reported on failure, got %v", report.Warnings)
	}
	if f.embed.Calls() != 0 {
		t.Error("no embedding call expected")
	}

	got, _ := f.manager.Get(ctx, snap.Id)
	if got.State != sessionModel.StateUninitialized {
		t.Errorf("state should stay uninitialized, got %s", got.State)
	}
}

func TestProcess_FailedRebuildKeepsPreviousIndexAndHistory(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)
	if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := f.manager.Ask(ctx, snap.Id, "question"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	f.embed.OnEmbedDocuments = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}
	if _, err := f.manager.Process(ctx, snap.Id, uploads); err == nil {
		t.Fatal("expected rebuild to fail")
	}

	history, _ := f.manager.History(ctx, snap.Id)
	if len(history) != 1 {
		t.Errorf("history should survive a failed rebuild, got %d turns", len(history))
	}
	if _, err := f.manager.Ask(ctx, snap.Id, "another question"); err != nil {
		t.Errorf("previous index should still answer, got %v", err)
	}
}

func TestProcess_SuccessfulRebuildResetsHistory(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)
	if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := f.manager.Ask(ctx, snap.Id, "question"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
		t.Fatalf("second Process failed: %v", err)
	}
	history, _ := f.manager.History(ctx, snap.Id)
	if len(history) != 0 {
		t.Errorf("history should be cleared after reprocessing, got %d turns", len(history))
	}
	got, _ := f.manager.Get(ctx, snap.Id)
	if got.Turns != 0 {
		t.Errorf("turn count should reset, got %d", got.Turns)
	}
}

func TestSetMode(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)

	got, err := f.manager.SetMode(ctx, snap.Id, commonModels.ModePaid)
	if err != nil || got.Mode != commonModels.ModePaid {
		t.Fatalf("SetMode returned %+v, %v", got, err)
	}

	report, err := f.manager.Process(ctx, snap.Id, uploads)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if report.Mode != commonModels.ModePaid || len(report.Notes) == 0 {
		t.Errorf("paid mode without credentials should report a fallback note, got %+v", report)
	}
}

func TestBusySessionRejectsSecondRequest(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	f.loader.OnLoad = func(ctx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error) {
		close(started)
		<-release
		return ingest.LoadResult{Text: documentText(), Documents: []commonModels.Document{{Name: "a.pdf"}}}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
			t.Errorf("Process failed: %v", err)
		}
	}()
	<-started

	if _, err := f.manager.Ask(ctx, snap.Id, "question"); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy for Ask, got %v", err)
	}
	if _, err := f.manager.Process(ctx, snap.Id, uploads); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy for Process, got %v", err)
	}
	if err := f.manager.Delete(ctx, snap.Id); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy for Delete, got %v", err)
	}

	close(release)
	wg.Wait()

	if _, err := f.manager.Ask(ctx, snap.Id, "question"); err != nil {
		t.Errorf("Ask after build failed: %v", err)
	}
}

func TestProcess_ClientCancellationDoesNotAbortBuild(t *testing.T) {
	f := newFixture()
	snap, _ := f.manager.Create(testCtx())

	ctx, cancel := context.WithCancel(testCtx())
	f.loader.OnLoad = func(loadCtx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error) {
		cancel()
		if loadCtx.Err() != nil {
			return ingest.LoadResult{}, loadCtx.Err()
		}
		return ingest.LoadResult{Text: documentText(), Documents: []commonModels.Document{{Name: "a.pdf"}}}, nil
	}

	if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
		t.Fatalf("build should finish after the client goes away, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := testCtx()
	snap, _ := f.manager.Create(ctx)
	if _, err := f.manager.Process(ctx, snap.Id, uploads); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := f.manager.Ask(ctx, snap.Id, "question"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if err := f.manager.Delete(ctx, snap.Id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := f.manager.Get(ctx, snap.Id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("deleted session should be gone, got %v", err)
	}
	if history, _ := f.store.GetHistory(ctx, snap.Id); len(history) != 0 {
		t.Error("history should be deleted with the session")
	}
	if err := f.manager.Delete(ctx, snap.Id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	f := newFixture(WithClock(clock), WithIdleTimeout(time.Hour))
	ctx := testCtx()

	old, _ := f.manager.Create(ctx)
	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	fresh, _ := f.manager.Create(ctx)
	if _, err := f.manager.Get(ctx, old.Id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session should be evicted, got %v", err)
	}
	if _, err := f.manager.Get(ctx, fresh.Id); err != nil {
		t.Errorf("fresh session should remain, got %v", err)
	}
	if f.manager.Len() != 1 {
		t.Errorf("expected 1 session, got %d", f.manager.Len())
	}
}

func TestMaxSessions(t *testing.T) {
	f := newFixture(WithMaxSessions(2))
	ctx := testCtx()
	for i := 0; i < 2; i++ {
		if _, err := f.manager.Create(ctx); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}
	if _, err := f.manager.Create(ctx); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("expected ErrTooManySessions, got %v", err)
	}
}
