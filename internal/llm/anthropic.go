package llm

import (
	"context"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/commercelens/commercelens/internal/config"
	"github.com/commercelens/commercelens/internal/errors"
)

const anthropicMaxTokens = 2000

// anthropicService drives the Anthropic messages API.
type anthropicService struct {
	client *anthropic.Client
	model  string
}

func newAnthropicService(cfg config.LLMConfig) (*anthropicService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrTypeConfig, "Anthropic API key is not set").
			WithSuggestion("Set COMMERCELENS_LLM_API_KEY or add llm.api_key to the config file")
	}

	opts := []anthropic.ClientOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicService{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
	}, nil
}

func (s *anthropicService) Model() string {
	return s.model
}

func (s *anthropicService) GenerateSQL(ctx context.Context, req SQLRequest) (*SQLResult, error) {
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

func (s *anthropicService) Insight(ctx context.Context, req InsightRequest) (*InsightResult, error) {
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

func (s *anthropicService) complete(ctx context.Context, system, user string) (*completion, error) {
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(user),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeLLM, "Anthropic request failed").
			WithSuggestion("Check the API key and network connectivity")
	}

	return &completion{
		content:          resp.GetFirstContentText(),
		promptTokens:     resp.Usage.InputTokens,
		completionTokens: resp.Usage.OutputTokens,
	}, nil
}
