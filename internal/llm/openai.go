package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/commercelens/commercelens/internal/config"
	"github.com/commercelens/commercelens/internal/errors"
)

// openAIService drives OpenAI (or any OpenAI-compatible endpoint) through the
// chat completions API.
type openAIService struct {
	client *openai.Client
	model  string
}

func newOpenAIService(cfg config.LLMConfig) (*openAIService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrTypeConfig, "OpenAI API key is not set").
			WithSuggestion("Set COMMERCELENS_LLM_API_KEY or add llm.api_key to the config file")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &openAIService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

func (s *openAIService) Model() string {
	return s.model
}

func (s *openAIService) GenerateSQL(ctx context.Context, req SQLRequest) (*SQLResult, error) {
	resp, err := s.complete(ctx, req.SystemPrompt+sqlInstructions, buildSQLUserMessage(req))
	if err != nil {
		return nil, err
	}

	return &SQLResult{
		SQL: CleanSQL(resp.content),
		Usage: Usage{
			PromptTokens:     resp.promptTokens,
			CompletionTokens: resp.completionTokens,
		},
	}, nil
}

func (s *openAIService) Insight(ctx context.Context, req InsightRequest) (*InsightResult, error) {
	resp, err := s.complete(ctx, insightSystemPrompt(req.Language), buildInsightUserMessage(req))
	if err != nil {
		return nil, err
	}

	return &InsightResult{
		Text: resp.content,
		Usage: Usage{
			PromptTokens:     resp.promptTokens,
			CompletionTokens: resp.completionTokens,
		},
	}, nil
}

type completion struct {
	content          string
	promptTokens     int
	completionTokens int
}

func (s *openAIService) complete(ctx context.Context, system, user string) (*completion, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeLLM, "OpenAI request failed").
			WithSuggestion("Check the API key and network connectivity")
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.ErrTypeLLM, "OpenAI returned no choices")
	}

	return &completion{
		content:          resp.Choices[0].Message.Content,
		promptTokens:     resp.Usage.PromptTokens,
		completionTokens: resp.Usage.CompletionTokens,
	}, nil
}
