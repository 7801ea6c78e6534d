package hfLLM

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/hfInference"
	"github.com/akolanti/PDFChat/internal/rag/llm"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/tmc/langchaingo/llms"
	hfllm "github.com/tmc/langchaingo/llms/huggingface"
)

// hub generates through langchaingo with a HuggingFace token.
type hub struct {
	model  *hfllm.LLM
	name   string
	logger *logger_i.Logger
}

func NewHub(settings config.HuggingFaceSettings) (llm.Provider, error) {
	if !config.ValidCredential(settings.Token) {
		return nil, fmt.Errorf("a HuggingFace token is required for hub generation")
	}
	model, err := hfllm.New(
		hfllm.WithToken(settings.Token),
		hfllm.WithModel(settings.ChatModel),
		hfllm.WithURL(settings.InferenceURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating huggingface client: %w", err)
	}
	return &hub{model: model, name: settings.ChatModel, logger: logger_i.NewLogger("llm_hf_hub")}, nil
}

func (h *hub) Name() string {
	return "HuggingFace Hub " + h.name
}

func (h *hub) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error) {
	prompt := llm.BuildPrompt(question, matches, history)
	answer, err := llms.GenerateFromSinglePrompt(ctx, h.model, prompt,
		llms.WithTemperature(config.HuggingFaceTemperature),
		llms.WithMaxLength(config.HuggingFaceMaxLength),
	)
	if err != nil {
		h.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error generating answer with HuggingFace Hub", "error", err)
		if errors.Is(err, hfllm.ErrEmptyResponse) {
			return "", fmt.Errorf("%w: %v", providerErrors.ErrEmptyOutput, err)
		}
		return "", err
	}
	return answer, nil
}

// public generates through the anonymous inference endpoint.
type public struct {
	client *hfInference.Client
	model  string
	logger *logger_i.Logger
}

func NewPublic(settings config.HuggingFaceSettings, client *hfInference.Client) llm.Provider {
	return &public{client: client, model: settings.ChatModel, logger: logger_i.NewLogger("llm_hf_public")}
}

func (p *public) Name() string {
	return "HuggingFace public " + p.model
}

func (p *public) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error) {
	prompt := llm.BuildPrompt(question, matches, history)
	answer, err := p.client.TextGeneration(ctx, p.model, prompt, hfInference.GenerationParameters{
		Temperature:  config.HuggingFaceTemperature,
		MaxNewTokens: config.HuggingFaceMaxNewTokens,
		MaxLength:    config.HuggingFaceMaxLength,
	})
	if err != nil {
		p.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error generating answer with HuggingFace", "error", err)
		return "", err
	}
	return answer, nil
}
