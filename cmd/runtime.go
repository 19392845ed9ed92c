package cmd

import (
	"fmt"

	"github.com/commercelens/commercelens/internal/agent"
	"github.com/commercelens/commercelens/internal/cache"
	"github.com/commercelens/commercelens/internal/config"
	"github.com/commercelens/commercelens/internal/llm"
	"github.com/commercelens/commercelens/internal/logging"
	"github.com/commercelens/commercelens/internal/prompt"
	"github.com/commercelens/commercelens/internal/storage"
)

// openRepository opens the database and applies migrations.
func openRepository(cfg *config.Config) (*storage.Repository, error) {
	repo, err := storage.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return repo, nil
}

// promptConfig maps configuration onto the prompt builder's config.
func promptConfig(cfg *config.Config) prompt.Config {
	return prompt.Config{
		MaxChars:           cfg.Prompt.MaxChars,
		SampleRowsPerTable: cfg.Prompt.SampleRows,
		IncludeTypes:       cfg.Prompt.IncludeTypes,
		Language:           cfg.Prompt.Language,
	}
}

// buildAgent assembles the question answering agent with its prompt cache.
func buildAgent(cfg *config.Config, repo *storage.Repository) (*agent.Agent, error) {
	service, err := llm.NewService(cfg.LLM)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{}

	promptCache, err := cache.NewPromptCache(cfg.Prompt.CacheDir, cfg.CacheTTLDuration())
	if err != nil {
		logging.GetLogger().Warnf("prompt cache disabled: %v", err)
	} else {
		opts = append(opts, agent.WithPromptCache(promptCache))
	}

	return agent.New(repo, service, promptConfig(cfg), opts...), nil
}
