package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You are a static-analysis assistant. Given source files
separated by "=== path ===" markers, extract the AI workflow they implement.
Respond with JSON only: {"nodes": [{"id", "type", "label", "description",
"source": {"file", "function", "line"}, "model"}], "edges": [{"source",
"target", "label", "dataType"}]}. Node types: trigger, llm, tool, decision,
integration, memory, parser, output. Only include nodes you have evidence
for; attribute every node to its source file and line.`

// OpenAIAnalyzer implements Analyzer against an OpenAI-compatible chat
// completion endpoint.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
	log    *logrus.Entry

	mu    sync.Mutex
	usage TokenUsage
}

// NewOpenAIAnalyzer builds an analyzer for the given API key and model.
// baseURL overrides the endpoint for OpenAI-compatible gateways; empty keeps
// the default.
func NewOpenAIAnalyzer(apiKey, model, baseURL string) *OpenAIAnalyzer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    logrus.WithField("component", "remote"),
	}
}

// Analyze sends one batch to the backend and decodes the returned workflow
// graph.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, req Request) (*Response, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: a.buildPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if isQuotaAPIError(err) {
			return nil, &QuotaExhaustedError{}
		}
		return nil, fmt.Errorf("remote analysis failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("remote analysis returned no choices")
	}

	out := &Response{
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	a.recordUsage(out.Usage)

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(stripFences(content)), &out.Graph); err != nil {
		return nil, fmt.Errorf("remote analysis returned malformed graph: %w", err)
	}
	a.log.WithFields(logrus.Fields{
		"files": len(req.FilePaths),
		"nodes": len(out.Graph.Nodes),
		"edges": len(out.Graph.Edges),
	}).Debug("remote analysis complete")
	return out, nil
}

// TotalUsage returns the tokens consumed across all calls so far.
func (a *OpenAIAnalyzer) TotalUsage() TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

func (a *OpenAIAnalyzer) recordUsage(u TokenUsage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.InputTokens += u.InputTokens
	a.usage.OutputTokens += u.OutputTokens
	a.usage.TotalTokens += u.TotalTokens
}

func (a *OpenAIAnalyzer) buildPrompt(req Request) string {
	var sb strings.Builder
	if req.FrameworkHint != "" {
		sb.WriteString("Framework: ")
		sb.WriteString(req.FrameworkHint)
		sb.WriteString("\n\n")
	}
	if len(req.Metadata) > 0 {
		if hints, err := json.Marshal(req.Metadata); err == nil {
			sb.WriteString("Static analysis hints:\n")
			sb.Write(hints)
			sb.WriteString("\n\n")
		}
	}
	for _, hint := range req.ContextHints {
		sb.WriteString(hint)
		sb.WriteString("\n")
	}
	sb.WriteString(req.CombinedSource)
	return sb.String()
}

func isQuotaAPIError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatusCode == 429 {
		return true
	}
	code, ok := apiErr.Code.(string)
	return ok && (code == "insufficient_quota" || code == "quota_exceeded")
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
