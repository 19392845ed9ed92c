// Package cmd wires the CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/config"
	"github.com/commercelens/commercelens/internal/logging"
)

// Execute runs the CLI.
func Execute() error {
	// Loads .env if present, silently ignores if not.
	_ = godotenv.Load()

	root := &cli.Command{
		Name:  "commercelens",
		Usage: "Ask natural language questions against the Olist e-commerce dataset",
		Description: `commercelens loads the Olist e-commerce CSV archive into an embedded
DuckDB database and answers natural language questions about it. A language
model translates questions into SQL against an automatically generated schema
prompt; results are executed locally and summarized as business insights.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db-path",
				Usage: "Path to the DuckDB database file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "LLM provider (openai, anthropic, ollama)",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "LLM model name",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Prompt and insight language (en, fa)",
			},
		},
		Commands: []*cli.Command{
			LoadCommand(),
			AskCommand(),
			ChatCommand(),
			AnalyzeCommand(),
			PromptCommand(),
			ExportReviewsCommand(),
			StatusCommand(),
			ConfigCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	return nil
}

// loadConfig builds the effective configuration from file, environment, and
// the root command's global flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	overrides := map[string]interface{}{
		"db-path":   cmd.String("db-path"),
		"log-level": cmd.String("log-level"),
		"provider":  cmd.String("provider"),
		"model":     cmd.String("model"),
		"language":  cmd.String("language"),
	}

	cfg, err := config.LoadWithOverrides(overrides)
	if err != nil {
		return nil, err
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return cfg, nil
}
