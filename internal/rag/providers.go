package rag

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/embedding"
	"github.com/akolanti/PDFChat/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/PDFChat/internal/rag/embedding/hfEmbedding"
	"github.com/akolanti/PDFChat/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/PDFChat/internal/rag/hfInference"
	"github.com/akolanti/PDFChat/internal/rag/llm"
	"github.com/akolanti/PDFChat/internal/rag/llm/gemini"
	"github.com/akolanti/PDFChat/internal/rag/llm/hfLLM"
	"github.com/akolanti/PDFChat/internal/rag/llm/openaiLLM"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// Providers holds every embedder and generator the process can use. Paid and Hub entries are
// nil when no valid credential is configured; the Public entries are always set.
type Providers struct {
	PaidEmbedder   embedding.Embedder
	HubEmbedder    embedding.Embedder
	PublicEmbedder embedding.Embedder

	PaidLLM   llm.Provider
	HubLLM    llm.Provider
	PublicLLM llm.Provider
}

// NewProviders creates the provider clients allowed by the configured credentials.
func NewProviders(ctx context.Context, settings *config.Settings, httpClient *http.Client) Providers {
	logger := logger_i.NewLogger("Providers")
	var p Providers

	public := hfInference.New(settings.HuggingFace.InferenceURL, hfInference.WithHTTPClient(httpClient))
	p.PublicEmbedder = hfEmbedding.NewPublic(settings.HuggingFace, public)
	p.PublicLLM = hfLLM.NewPublic(settings.HuggingFace, public)

	if settings.HasHubToken() {
		var err error
		if p.HubEmbedder, err = hfEmbedding.NewHub(settings.HuggingFace); err != nil {
			logger.Error("HuggingFace hub embeddings unavailable", "error", err)
		}
		if p.HubLLM, err = hfLLM.NewHub(settings.HuggingFace); err != nil {
			logger.Error("HuggingFace hub generation unavailable", "error", err)
		}
	}

	if settings.HasPaidCredential() {
		switch settings.PaidProvider {
		case config.PaidProviderGemini:
			p.PaidEmbedder = googleEmbedding.GetGoogleEmbeddingClient(ctx, settings.Google, httpClient)
			p.PaidLLM = gemini.GetGeminiClient(ctx, settings.Google, httpClient)
		default:
			p.PaidEmbedder = openaiEmbedding.New(settings.OpenAI, httpClient)
			p.PaidLLM = openaiLLM.New(settings.OpenAI, httpClient)
		}
	}

	logger.Info("Providers ready",
		"paid_provider", settings.PaidProvider,
		"paid_embedding", nameOf(p.PaidEmbedder),
		"paid_generation", nameOf(p.PaidLLM),
		"hub_embedding", nameOf(p.HubEmbedder),
		"hub_generation", nameOf(p.HubLLM),
		"public_embedding", nameOf(p.PublicEmbedder),
		"public_generation", nameOf(p.PublicLLM),
	)
	return p
}

type selection struct {
	mode      commonModels.ProcessingMode
	paidEmbed embedding.Embedder
	freeEmbed embedding.Embedder
	paidLLM   llm.Provider
	freeLLM   llm.Provider
	notes     []string
}

// selectFor maps a processing mode to providers. A mode whose credentials are missing is served by
// the best free variant instead of failing.
func (p Providers) selectFor(mode commonModels.ProcessingMode) (selection, error) {
	if p.PublicEmbedder == nil || p.PublicLLM == nil {
		return selection{}, fmt.Errorf("no free providers configured")
	}
	s := selection{mode: mode, freeEmbed: p.PublicEmbedder, freeLLM: p.PublicLLM}

	hubReady := p.HubEmbedder != nil && p.HubLLM != nil
	switch mode {
	case commonModels.ModePaid:
		if hubReady {
			s.freeEmbed, s.freeLLM = p.HubEmbedder, p.HubLLM
		}
		s.paidEmbed, s.paidLLM = p.PaidEmbedder, p.PaidLLM
		if p.PaidEmbedder == nil {
			s.notes = append(s.notes, "No valid paid API key is configured, embeddings use "+s.freeEmbed.Name())
		}
		if p.PaidLLM == nil {
			s.notes = append(s.notes, "No valid paid API key is configured, answers use "+s.freeLLM.Name())
		}
	case commonModels.ModeHub:
		if hubReady {
			s.freeEmbed, s.freeLLM = p.HubEmbedder, p.HubLLM
		} else {
			s.notes = append(s.notes, "No valid HuggingFace token is configured, using the public models instead")
		}
	case commonModels.ModePublic:
	default:
		return selection{}, fmt.Errorf("unknown processing mode %q", mode)
	}
	return s, nil
}

type named interface {
	Name() string
}

func nameOf(n named) string {
	if n == nil {
		return "none"
	}
	return n.Name()
}
