// Package openai provides an analysis service backed by an OpenAI compatible
// chat completion endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.AnalysisService = (*Service)(nil)

// Default configuration values.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

const fallbackSystemPrompt = `Answer with a JSON object {"findings": [{"quote", "context", "message", "severity", "payload"}], "summary"}. Quotes must be verbatim.`

// price is USD per million tokens.
type price struct{ input, output float64 }

var prices = map[string]price{
	"gpt-4o-mini":  {0.15, 0.60},
	"gpt-4o":       {2.50, 10.00},
	"gpt-4.1":      {2.00, 8.00},
	"gpt-4.1-mini": {0.40, 1.60},
	"gpt-4.1-nano": {0.10, 0.40},
}

// Config holds configuration for the OpenAI analysis service.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL points at an OpenAI compatible API. Empty uses the OpenAI default.
	BaseURL string

	// Model is the chat model (default: gpt-4o-mini).
	Model string

	// Timeout bounds a single request (default: 120s).
	Timeout time.Duration

	// Prompts supplies the system prompt and per-plugin instruction overrides. May be nil.
	Prompts driven.PromptStore
}

// Service calls the chat completion API once per task.
type Service struct {
	client  openai.Client
	model   string
	prompts driven.PromptStore
}

// New creates an OpenAI analysis service.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrAnalysisUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		// Retries belong to the plugin supervisor.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Service{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		prompts: cfg.Prompts,
	}, nil
}

// Name returns the provider name.
func (s *Service) Name() string { return string(domain.ProviderOpenAI) }

// answer is the JSON object the model is asked to produce.
type answer struct {
	Findings []struct {
		Quote    string         `json:"quote"`
		Context  string         `json:"context"`
		Message  string         `json:"message"`
		Severity string         `json:"severity"`
		Payload  map[string]any `json:"payload"`
	} `json:"findings"`
	Summary string `json:"summary"`
}

// Analyze sends the task's chunks as one excerpt and parses the findings.
func (s *Service) Analyze(ctx context.Context, task driven.AnalysisTask) (*driven.AnalysisResponse, error) {
	var excerpt strings.Builder
	for i, c := range task.Chunks {
		if i > 0 {
			excerpt.WriteString("\n\n")
		}
		if c.Hints != nil && c.Hints.Heading != "" {
			fmt.Fprintf(&excerpt, "(section: %s)\n", c.Hints.Heading)
		}
		excerpt.WriteString(c.Text)
	}

	params := openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.systemPrompt()),
			openai.UserMessage(fmt.Sprintf("Task:\n%s\n\nExcerpt:\n%s", s.instruction(task), excerpt.String())),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0),
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	cost := s.cost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	logger.L().Debug("openai analysis",
		zap.String("plugin", task.PluginID.String()),
		zap.String("model", s.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Float64("cost", cost))

	if len(resp.Choices) == 0 {
		return nil, domain.Classify(domain.ErrorClassUnknown, errors.New("openai: no choices in response"))
	}

	out, err := parseAnswer(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	out.Cost = cost
	return out, nil
}

func (s *Service) systemPrompt() string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(driven.PromptAnalysisSystem); err == nil && p != "" {
			return p
		}
	}
	return fallbackSystemPrompt
}

func (s *Service) instruction(task driven.AnalysisTask) string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(task.PluginID.String()); err == nil && p != "" {
			return p
		}
	}
	return task.Instruction
}

func (s *Service) cost(promptTokens, completionTokens int64) float64 {
	p, ok := prices[s.model]
	if !ok {
		p = prices[DefaultModel]
	}
	return (float64(promptTokens)*p.input + float64(completionTokens)*p.output) / 1e6
}

// parseAnswer decodes the model's JSON, tolerating a markdown fence.
func parseAnswer(content string) (*driven.AnalysisResponse, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var a answer
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		// Malformed output is usually transient; let the supervisor retry it.
		return nil, domain.Classify(domain.ErrorClassUnknown, fmt.Errorf("openai: malformed answer, try again: %w", err))
	}

	out := &driven.AnalysisResponse{Summary: a.Summary}
	for _, f := range a.Findings {
		if strings.TrimSpace(f.Quote) == "" {
			continue
		}
		out.Candidates = append(out.Candidates, domain.Candidate{
			QuotedText:        f.Quote,
			Context:           f.Context,
			Message:           f.Message,
			SuggestedSeverity: strings.ToLower(f.Severity),
			Payload:           f.Payload,
		})
	}
	return out, nil
}

// classify tags API errors with the class the supervisor retries on.
func classify(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch code := apiErr.StatusCode; {
	case code == http.StatusTooManyRequests:
		return domain.Classify(domain.ErrorClassRateLimit, fmt.Errorf("%w: %w", domain.ErrRateLimited, err))
	case code == http.StatusRequestTimeout:
		return domain.Classify(domain.ErrorClassTimeout, err)
	case code >= 500:
		return domain.Classify(domain.ErrorClassNetwork, fmt.Errorf("%w: %w", domain.ErrNetwork, err))
	case code >= 400:
		return domain.Classify(domain.ErrorClassValidation, fmt.Errorf("%w: %w", domain.ErrValidation, err))
	}
	return err
}
