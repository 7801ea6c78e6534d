package openaiLLM

import (
	"context"
	"net/http"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/llm"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

// New returns nil when the key is not a usable credential.
func New(settings config.OpenAISettings, httpClient *http.Client) llm.Provider {
	if !config.ValidCredential(settings.APIKey) {
		return nil
	}
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	model := settings.ChatModel
	if model == "" {
		model = config.OpenAIChatModel
	}
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI chat client created", "model", model)
	return &llmClient{api: openai.NewClient(opts...), model: model, logger: logger}
}

func (c *llmClient) Name() string {
	return "OpenAI " + c.model
}

func (c *llmClient) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(config.ModelContext + "\n\nContext:\n" + llm.ContextBlock(matches)),
	}
	for _, turn := range history {
		messages = append(messages, openai.UserMessage(turn.Question), openai.AssistantMessage(turn.Answer))
	}
	messages = append(messages, openai.UserMessage(question))

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(float64(config.ModelTemperature)),
	})
	if err != nil {
		log.Error("Error generating answer with OpenAI", "error", err)
		return "", err
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", providerErrors.ErrEmptyOutput
	}
	log.Debug("OpenAI answered", "tokens", completion.Usage.TotalTokens)
	return completion.Choices[0].Message.Content, nil
}
