package hfInference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

var ErrNoInputs = errors.New("no inputs to embed")

// Client talks to the HuggingFace inference API. The token is optional; without one the
// public endpoint is used and requests are throttled locally.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		limiter: rate.NewLimiter(rate.Limit(config.PublicInferenceRatePerSecond), config.PublicInferenceBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	Inputs  []string       `json:"inputs"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type GenerationParameters struct {
	Temperature    float64 `json:"temperature,omitempty"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	MaxLength      int     `json:"max_length,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generateRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters GenerationParameters `json:"parameters"`
	Options    requestOptions       `json:"options"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// FeatureExtraction returns one sentence vector per input.
func (c *Client) FeatureExtraction(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	body := embedRequest{Inputs: inputs, Options: requestOptions{WaitForModel: true, UseCache: true}}
	raw, err := c.post(ctx, "/pipeline/feature-extraction/"+model, body)
	if err != nil {
		return nil, err
	}

	var pooled [][]float32
	if err := json.Unmarshal(raw, &pooled); err == nil {
		return pooled, nil
	}

	// some models return one vector per token
	var perToken [][][]float32
	if err := json.Unmarshal(raw, &perToken); err != nil {
		return nil, fmt.Errorf("decoding feature extraction response: %w", err)
	}
	out := make([][]float32, len(perToken))
	for i, tokens := range perToken {
		out[i] = meanPool(tokens)
	}
	return out, nil
}

// TextGeneration runs a text2text or text-generation model and returns the generated text.
func (c *Client) TextGeneration(ctx context.Context, model string, prompt string, params GenerationParameters) (string, error) {
	body := generateRequest{Inputs: prompt, Parameters: params, Options: requestOptions{WaitForModel: true}}
	raw, err := c.post(ctx, "/models/"+model, body)
	if err != nil {
		return "", err
	}

	var out []generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		var single generateResponse
		if errSingle := json.Unmarshal(raw, &single); errSingle != nil {
			return "", fmt.Errorf("decoding generation response: %w", err)
		}
		out = []generateResponse{single}
	}
	if len(out) == 0 || strings.TrimSpace(out[0].GeneratedText) == "" {
		return "", providerErrors.ErrEmptyOutput
	}
	return strings.TrimSpace(out[0].GeneratedText), nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &providerErrors.StatusError{
			Provider:   "huggingface",
			StatusCode: resp.StatusCode,
			Body:       errorMessage(raw),
		}
	}
	return raw, nil
}

// errorMessage pulls the "error" field out of an API error body, or a trimmed excerpt of the body.
func errorMessage(raw []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float32, len(tokens[0]))
	for _, token := range tokens {
		for i := range out {
			if i < len(token) {
				out[i] += token[i]
			}
		}
	}
	for i := range out {
		out[i] /= float32(len(tokens))
	}
	return out
}
