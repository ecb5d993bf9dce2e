package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liamashdown/resolvewatch/internal/config"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/liamashdown/resolvewatch/internal/ratelimit"
)

const (
	apiName      = "openrouter"
	apiEndpoint  = "/chat/completions"
	onlineSuffix = ":online"
	appReferer   = "https://github.com/liamashdown/resolvewatch"
	appTitle     = "resolvewatch"
)

// AIResolver resolves markets with a web-search enabled model on OpenRouter
type AIResolver struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	maxResults  int
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	now         func() time.Time
}

// NewAIResolver creates an OpenRouter-backed resolver
func NewAIResolver(cfg *config.Config) *AIResolver {
	return &AIResolver{
		endpoint:    cfg.OpenRouterBaseURL,
		apiKey:      cfg.OpenRouterAPIKey,
		model:       cfg.AIModel,
		temperature: cfg.AITemperature,
		maxTokens:   cfg.AIMaxTokens,
		maxResults:  cfg.AIMaxWebResults,
		httpClient:  &http.Client{Timeout: cfg.ResolverTimeout},
		limiter:     ratelimit.New(cfg.ResolverRPS, 1),
		now:         time.Now,
	}
}

// Model returns the model id sent upstream, including the web search suffix
func (r *AIResolver) Model() string {
	return r.model + onlineSuffix
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type plugin struct {
	ID         string `json:"id"`
	MaxResults int    `json:"max_results,omitempty"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []chatMessage    `json:"messages"`
	Tools       []toolDefinition `json:"tools"`
	ToolChoice  toolChoice       `json:"tool_choice"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
	Plugins     []plugin         `json:"plugins,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Resolve asks the model for a decision on m. The model is forced to answer
// through the submit_resolution tool.
func (r *AIResolver) Resolve(ctx context.Context, m market.Market) (*Result, error) {
	start := time.Now()
	resp, err := r.complete(ctx, r.buildRequest(m))
	metrics.RecordAPIRequest(apiName, apiEndpoint, time.Since(start), err)
	if err != nil {
		return nil, market.NewResolutionError(market.ErrResolverUpstream, m.ID, err)
	}

	if resp.Error != nil {
		return nil, market.NewResolutionError(market.ErrResolverUpstream, m.ID, fmt.Errorf("api error: %s", resp.Error.Message))
	}

	args, ok := findToolCall(resp)
	if !ok {
		return nil, market.NewResolutionError(market.ErrResolverNoDecision, m.ID, nil)
	}

	sub, err := parseDecision(m, args)
	if err != nil {
		return nil, market.NewResolutionError(market.ErrResolverMalformed, m.ID, err)
	}
	sub.ResolvedAt = r.now().UTC()

	result := &Result{
		Submission: sub,
		ModelUsed:  r.Model(),
	}
	if resp.Usage != nil {
		prompt, completion := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
		result.PromptTokens = &prompt
		result.CompletionTokens = &completion
	}

	return result, nil
}

func (r *AIResolver) buildRequest(m market.Market) chatRequest {
	req := chatRequest{
		Model: r.Model(),
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(m, r.now())},
			{Role: "user", Content: UserPrompt(m)},
		},
		Tools:       []toolDefinition{submitResolutionTool(m.AllowedOutcomes)},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
		Plugins:     []plugin{{ID: "web", MaxResults: r.maxResults}},
	}
	req.ToolChoice.Type = "function"
	req.ToolChoice.Function.Name = submitToolName
	return req
}

func (r *AIResolver) complete(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("HTTP-Referer", appReferer)
	req.Header.Set("X-Title", appTitle)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &decoded, nil
}

// findToolCall returns the arguments of the first submit_resolution call
func findToolCall(resp *chatResponse) (string, bool) {
	for _, choice := range resp.Choices {
		for _, call := range choice.Message.ToolCalls {
			if call.Function.Name == submitToolName {
				return call.Function.Arguments, true
			}
		}
	}
	return "", false
}
