package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/metrics"
	"github.com/akolanti/PDFChat/internal/rag/embedding"
	"github.com/akolanti/PDFChat/internal/rag/ingest"
	"github.com/akolanti/PDFChat/internal/rag/llm"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// Service is what the session layer calls; the providers and the index backend stay behind it.
type Service interface {
	Build(ctx context.Context, uploads []commonModels.Upload, mode commonModels.ProcessingMode) (*Conversation, sessionModel.ProcessReport, error)
	Answer(ctx context.Context, conv *Conversation, question string, history []commonModels.Turn) (Answer, error)
}

// Loader is satisfied by ingest.Loader.
type Loader interface {
	Load(ctx context.Context, uploads []commonModels.Upload) (ingest.LoadResult, error)
}

// Conversation is everything a ready session needs to answer: the index and the providers that built it.
type Conversation struct {
	index     vectorDB.Index
	embedder  embedding.Embedder
	generator *llm.Fallback
	mode      commonModels.ProcessingMode
}

func (c *Conversation) Mode() commonModels.ProcessingMode { return c.mode }
func (c *Conversation) Chunks() int                       { return c.index.Len() }

func (c *Conversation) Close(ctx context.Context) error {
	if c == nil || c.index == nil {
		return nil
	}
	return c.index.Close(ctx)
}

type Answer struct {
	Text     string
	Provider string
	Sources  []commonModels.ScoredChunk
	Notes    []string
}

// StageError names the pipeline stage a build or answer failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

const (
	StageLoad      = "load"
	StageChunk     = "chunk"
	StageEmbed     = "embed"
	StageIndex     = "index"
	StageGenerator = "generator"
	StageRetrieve  = "retrieve"
	StageGenerate  = "generate"
)

type service struct {
	loader    Loader
	splitter  ingest.Splitter
	builder   vectorDB.Builder
	providers Providers
	topK      int
	logger    *logger_i.Logger
}

func NewService(loader Loader, splitter ingest.Splitter, builder vectorDB.Builder, providers Providers) Service {
	return &service{
		loader:    loader,
		splitter:  splitter,
		builder:   builder,
		providers: providers,
		topK:      config.RetrievalTopK,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Build(ctx context.Context, uploads []commonModels.Upload, mode commonModels.ProcessingMode) (conv *Conversation, report sessionModel.ProcessReport, err error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("mode", mode)
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.CapturePipelineMetrics("build", status, time.Since(start))
	}()

	report.Mode = mode

	loaded, err := s.loader.Load(ctx, uploads)
	report.Warnings = loaded.Warnings
	for _, fe := range loaded.FileErrors {
		report.FileErrors = append(report.FileErrors, sessionModel.FileError{Name: fe.Name, Message: fe.Err})
	}
	for _, doc := range loaded.Documents {
		report.Documents = append(report.Documents, doc.Name)
	}
	metrics.CaptureDocuments("ok", len(loaded.Documents))
	metrics.CaptureDocuments("error", len(loaded.FileErrors))
	if err != nil {
		log.Error("Loading documents failed", "error", err)
		return nil, report, &StageError{Stage: StageLoad, Err: err}
	}
	report.Characters = len([]rune(loaded.Text))

	chunks, err := s.splitter.Split(loaded.Text)
	if err != nil {
		return nil, report, &StageError{Stage: StageChunk, Err: err}
	}
	report.Chunks = len(chunks)
	log.Info("Split documents", "characters", report.Characters, "chunks", len(chunks))

	selected, err := s.providers.selectFor(mode)
	if err != nil {
		return nil, report, &StageError{Stage: StageEmbed, Err: err}
	}
	report.Notes = append(report.Notes, selected.notes...)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embedded, err := embedding.NewChain(selected.paidEmbed, selected.freeEmbed).Embed(ctx, texts)
	if err != nil {
		return nil, report, &StageError{Stage: StageEmbed, Err: err}
	}
	report.EmbeddingProvider = embedded.Embedder.Name()
	report.Notes = append(report.Notes, embedded.Notes...)

	index, err := s.builder.Build(ctx, chunks, embedded.Vectors)
	if err != nil {
		log.Error("Building index failed", "backend", s.builder.Name(), "error", err)
		return nil, report, &StageError{Stage: StageIndex, Err: err}
	}

	generator, err := llm.NewFallback(selected.paidLLM, selected.freeLLM)
	if err != nil {
		if closeErr := index.Close(ctx); closeErr != nil {
			log.Error("Closing unused index failed", "error", closeErr)
		}
		return nil, report, &StageError{Stage: StageGenerator, Err: err}
	}
	report.GeneratorProvider = generator.Name()
	report.BuiltAt = time.Now().UTC()

	log.Info("Documents processed",
		"documents", len(report.Documents),
		"chunks", report.Chunks,
		"embedding", report.EmbeddingProvider,
		"generator", report.GeneratorProvider,
		"elapsed", time.Since(start))

	return &Conversation{
		index:     index,
		embedder:  embedded.Embedder,
		generator: generator,
		mode:      mode,
	}, report, nil
}

func (s *service) Answer(ctx context.Context, conv *Conversation, question string, history []commonModels.Turn) (answer Answer, err error) {
	if conv == nil {
		return Answer{}, errors.New("no documents have been processed")
	}
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.CapturePipelineMetrics("answer", status, time.Since(start))
	}()

	queryCtx, cancel := context.WithTimeout(ctx, config.ProviderTimeout)
	vector, err := conv.embedder.EmbedQuery(queryCtx, question)
	cancel()
	if err != nil {
		log.Error("Embedding question failed", "provider", conv.embedder.Name(), "error", err)
		return Answer{}, &StageError{Stage: StageRetrieve, Err: fmt.Errorf("embedding question with %s: %w", conv.embedder.Name(), err)}
	}

	matches, err := conv.index.Query(ctx, vector, s.topK)
	if err != nil {
		return Answer{}, &StageError{Stage: StageRetrieve, Err: err}
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Chunk.Text
	}
	log.Debug("Retrieved context", "matches", len(matches))

	reply, err := conv.generator.Generate(ctx, question, texts, history)
	if err != nil {
		return Answer{Notes: reply.Notes}, &StageError{Stage: StageGenerate, Err: err}
	}
	return Answer{Text: reply.Text, Provider: reply.Provider, Sources: matches, Notes: reply.Notes}, nil
}
