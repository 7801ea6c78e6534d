package gemini

import (
	"context"
	"net/http"
	"sync"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/llm"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

// GetGeminiClient returns nil when the key is not usable or the client cannot be created.
func GetGeminiClient(ctx context.Context, settings config.GoogleSettings, httpClient *http.Client) llm.Provider {
	if !config.ValidCredential(settings.APIKey) {
		return nil
	}
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, settings, httpClient)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, settings config.GoogleSettings, httpClient *http.Client) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     settings.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	modelName := settings.ChatModel
	if modelName == "" {
		modelName = config.GeminiModelName
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
	go closeClient(ctx)
}

func (c *llmClient) Name() string {
	return "Gemini " + c.modelName
}

func (c *llmClient) Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	systemInstruction := &genai.Content{
		Parts: []*genai.Part{
			{Text: config.ModelContext + "\n\nContext:\n" + llm.ContextBlock(matches)},
		},
	}

	contents := make([]*genai.Content, 0, len(history)*2+1)
	for _, turn := range history {
		contents = append(contents,
			&genai.Content{Role: "user", Parts: []*genai.Part{{Text: turn.Question}}},
			&genai.Content{Role: "model", Parts: []*genai.Part{{Text: turn.Answer}}},
		)
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: question}}})

	temperature := config.ModelTemperature
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       &temperature,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		log.Error("Error generating answer with Gemini", "error", err)
		return "", err
	}
	if result == nil || result.Text() == "" {
		return "", providerErrors.ErrEmptyOutput
	}
	return result.Text(), nil
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}
