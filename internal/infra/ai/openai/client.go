package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/pagelint/pagelint/internal/domain/ai"
	"github.com/pagelint/pagelint/internal/domain/corrections"
	"github.com/pagelint/pagelint/internal/infra/ai/prompt"
)

const maxTokens = 4096

// Gemini models are reached through Google's OpenAI-compatible endpoint,
// so a single client implementation covers both backends.
const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

const (
	checkerTemperature   = 0.1
	validatorTemperature = 0.4
)

// Client implements the Generator and Validator ports on top of chat
// completions with a structured response schema. Generator calls go to the
// configured model (OpenAI or Gemini-compat); validation always uses the
// OpenAI validator model.
type Client struct {
	gen          *openai.Client
	val          *openai.Client
	model        string
	valModel     string
	googleBacked bool
	cache        ai.Cache
	log          *logrus.Logger
}

func NewClient(openaiKey, googleKey, model, validatorModel string, cache ai.Cache, log *logrus.Logger) *Client {
	valCfg := openai.DefaultConfig(openaiKey)
	genCfg := valCfg
	googleBacked := strings.HasPrefix(model, "gemini")
	if googleBacked {
		genCfg = openai.DefaultConfig(googleKey)
		genCfg.BaseURL = googleBaseURL
	}
	return &Client{
		gen:          openai.NewClientWithConfig(genCfg),
		val:          openai.NewClientWithConfig(valCfg),
		model:        model,
		valModel:     validatorModel,
		googleBacked: googleBacked,
		cache:        cache,
		log:          log,
	}
}

// Generate asks the primary model for candidate corrections. Results are
// content-addressed: a cache hit returns the stored list with zero token
// cost.
func (c *Client) Generate(ctx context.Context, pageURL, text string, severities []corrections.Severity) ([]corrections.Candidate, ai.Usage, error) {
	key := generateCacheKey(pageURL, severities, c.model, text)
	if cached, ok := c.cachedPayload(key); ok {
		return cached.Corrections, ai.Usage{}, nil
	}

	sevs := make([]string, 0, len(severities))
	for _, s := range severities {
		sevs = append(sevs, string(s))
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: checkerTemperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "corrections",
				Schema: &correctionsSchema,
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetCheckerSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetCheckerUserPrompt(pageURL, text, sevs)},
		},
	}

	resp, err := c.gen.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, ai.Usage{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	payload, err := parsePayload(resp)
	if err != nil {
		return nil, ai.Usage{}, err
	}

	c.store(key, payload)

	usage := ai.Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	if c.googleBacked {
		// The compat endpoint's usage accounting is not trusted; report
		// zero like a backend that does not report usage at all.
		usage = ai.Usage{}
	}
	return payload.Corrections, usage, nil
}

// Validate sends an already-filtered batch to the validator model and
// returns only the corrections it endorses. Cached by the batch content.
func (c *Client) Validate(ctx context.Context, cands []corrections.Candidate) ([]corrections.Candidate, ai.Usage, error) {
	key := validateCacheKey(cands)
	if cached, ok := c.cachedPayload(key); ok {
		return cached.Corrections, ai.Usage{}, nil
	}

	stripped := make([]strippedCandidate, 0, len(cands))
	for _, cand := range cands {
		stripped = append(stripped, strippedCandidate{
			IssueType:       cand.IssueType,
			OriginalText:    cand.OriginalText,
			CorrectedText:   cand.CorrectedText,
			SurroundingText: cand.SurroundingText,
			Explanation:     cand.Explanation,
			Severity:        cand.Severity,
		})
	}
	userPayload, err := json.Marshal(map[string]any{"corrections": stripped})
	if err != nil {
		return nil, ai.Usage{}, fmt.Errorf("encoding validator input: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.valModel,
		Temperature: validatorTemperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "corrections",
				Schema: &correctionsSchema,
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetValidatorSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: string(userPayload)},
		},
	}

	resp, err := c.val.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, ai.Usage{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	payload, err := parsePayload(resp)
	if err != nil {
		return nil, ai.Usage{}, err
	}

	c.store(key, payload)

	usage := ai.Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	return payload.Corrections, usage, nil
}

func parsePayload(resp openai.ChatCompletionResponse) (*correctionsPayload, error) {
	if len(resp.Choices) == 0 {
		return nil, ai.ErrBadModelResponse
	}
	var payload correctionsPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrBadModelResponse, err)
	}
	if payload.Corrections == nil {
		return nil, ai.ErrBadModelResponse
	}
	return &payload, nil
}

func (c *Client) cachedPayload(key string) (*correctionsPayload, bool) {
	raw, ok, err := c.cache.Get(key)
	if err != nil {
		c.log.WithError(err).Warn("cache read failed, falling through to the model")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var payload correctionsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.WithError(err).Warn("discarding unreadable cache entry")
		return nil, false
	}
	return &payload, true
}

func (c *Client) store(key string, payload *correctionsPayload) {
	raw, err := json.Marshal(payload)
	if err == nil {
		err = c.cache.Set(key, raw, cacheTTL)
	}
	if err != nil {
		// Cache writes are best-effort; the response is already in hand.
		c.log.WithError(err).Warn("cache write failed")
	}
}
