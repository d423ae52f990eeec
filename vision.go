package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Receipt images are analyzed through OpenRouter's OpenAI-compatible API.
// Free-tier vision models rate-limit aggressively and go down without
// notice, so a single model is never trusted: the chain below is walked in
// order and the first model that answers wins.

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	visionTemperature = 0.1
	visionMaxTokens   = 300
)

// visionModels, strongest first. Larger Qwen variants read dense receipt
// layouts better; the Gemma and Gemini entries are the safety net when the
// Qwen free tier is saturated.
var visionModels = []string{
	"qwen/qwen2.5-vl-72b-instruct:free",
	"qwen/qwen2.5-vl-32b-instruct:free",
	"google/gemma-3-27b:free",
	"google/gemma-3-12b:free",
	"google/gemini-2.0-flash-exp:free",
}

const receiptPrompt = `You are an expert receipt analyzer. Analyze this receipt image carefully and extract the store name and total amount.

Key guidelines:
- The store name is usually at the TOP of the receipt
- The total amount is usually at the BOTTOM, often labeled as "Total", "Sum", or similar
- Respond ONLY with a JSON object in this exact format: {"storeName": "name of the store", "totalAmount": numeric value}
- totalAmount must be a number, not a string
- If you cannot read a field, use "Unknown" for storeName or 0 for totalAmount`

// visionResult carries the winning model's raw answer.
type visionResult struct {
	Text      string
	UsedModel string
}

// visionClient is satisfied by the OpenRouter-backed client and by test
// doubles.
type visionClient interface {
	AnalyzeImage(ctx context.Context, imageDataURL string) (*visionResult, error)
}

// Sentinel classification for chain failures. allModelsFailedError wraps the
// last per-model error so the handler can map exhaustion, auth failures and
// rate limits to distinct response codes.
type allModelsFailedError struct {
	lastErr error
}

func (e *allModelsFailedError) Error() string {
	return fmt.Sprintf("all vision models failed, last error: %v", e.lastErr)
}

func (e *allModelsFailedError) Unwrap() error {
	return e.lastErr
}

var (
	errRateLimited   = errors.New("vision model rate limited")
	errInvalidAPIKey = errors.New("invalid api key")
)

// headerTransport injects the attribution headers OpenRouter uses to rank
// free-tier traffic.
type headerTransport struct {
	base    http.RoundTripper
	referer string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", t.referer)
	req.Header.Set("X-Title", "Expenses App")
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

type openRouterClient struct {
	client *openai.Client
	models []string
}

func newOpenRouterClient(apiKey, baseURL, referer string) *openRouterClient {
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{
		Transport: &headerTransport{referer: referer},
	}

	return &openRouterClient{
		client: openai.NewClientWithConfig(config),
		models: visionModels,
	}
}

// AnalyzeImage walks the model chain. Any failure moves on to the next
// model; there are no per-model retries since the next model answering is
// faster than the same one recovering.
func (c *openRouterClient) AnalyzeImage(ctx context.Context, imageDataURL string) (*visionResult, error) {
	return tryVisionModels(ctx, c.models, func(ctx context.Context, model string) (string, error) {
		return c.queryModel(ctx, model, imageDataURL)
	})
}

// tryVisionModels runs the fallback chain over the given models. The first
// non-empty answer wins; exhaustion reports the last per-model error.
func tryVisionModels(ctx context.Context, models []string, query func(ctx context.Context, model string) (string, error)) (*visionResult, error) {
	var lastErr error

	for _, model := range models {
		log.Printf("Trying vision model: %s", model)

		text, err := query(ctx, model)
		if err != nil {
			log.Printf("Model %s failed: %v", model, err)
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("Model %s returned an empty response", model)
			lastErr = fmt.Errorf("model %s returned an empty response", model)
			continue
		}

		log.Printf("Model %s succeeded", model)
		return &visionResult{Text: text, UsedModel: shortModelName(model)}, nil
	}

	return nil, &allModelsFailedError{lastErr: lastErr}
}

func (c *openRouterClient) queryModel(ctx context.Context, model, imageDataURL string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: receiptPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageDataURL,
						},
					},
				},
			},
		},
		Temperature: visionTemperature,
		MaxTokens:   visionMaxTokens,
	})
	if err != nil {
		return "", classifyVisionError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyVisionError maps provider HTTP statuses onto the sentinel errors
// the receipt handler reports to clients.
func classifyVisionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", errRateLimited, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", errInvalidAPIKey, err)
		}
	}
	return err
}

// shortModelName strips the provider prefix, e.g.
// "qwen/qwen2.5-vl-72b-instruct:free" -> "qwen2.5-vl-72b-instruct:free".
func shortModelName(model string) string {
	if idx := strings.Index(model, "/"); idx >= 0 {
		return model[idx+1:]
	}
	return model
}
