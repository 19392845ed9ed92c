package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commercelens/commercelens/internal/config"
	"github.com/commercelens/commercelens/internal/errors"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// ollamaService drives a local Ollama server over its chat API.
type ollamaService struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func newOllamaService(cfg config.LLMConfig) (*ollamaService, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}

	timeout := 60 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil {
		timeout = d
	}

	return &ollamaService{
		baseURL:    baseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (s *ollamaService) Model() string {
	return s.model
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

func (s *ollamaService) GenerateSQL(ctx context.Context, req SQLRequest) (*SQLResult, error) {
	resp, err := s.chat(ctx, req.SystemPrompt+sqlInstructions, buildSQLUserMessage(req))
	if err != nil {
		return nil, err
	}

	return &SQLResult{
		SQL: CleanSQL(resp.Message.Content),
		Usage: Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
		},
	}, nil
}

func (s *ollamaService) Insight(ctx context.Context, req InsightRequest) (*InsightResult, error) {
	resp, err := s.chat(ctx, insightSystemPrompt(req.Language), buildInsightUserMessage(req))
	if err != nil {
		return nil, err
	}

	return &InsightResult{
		Text: resp.Message.Content,
		Usage: Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
		},
	}, nil
}

func (s *ollamaService) chat(ctx context.Context, system, user string) (*ollamaChatResponse, error) {
	reqBody := ollamaChatRequest{
		Model: s.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeLLM, "Ollama request failed").
			WithSuggestion("Check that the Ollama server is running (ollama serve)")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrTypeLLM,
			"Ollama request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	if chatResp.Error != "" {
		return nil, errors.Newf(errors.ErrTypeLLM, "Ollama API error: %s", chatResp.Error)
	}

	return &chatResp, nil
}
