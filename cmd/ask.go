package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

const spinnerInterval = 100 * time.Millisecond

func AskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a natural language question about the data",
		ArgsUsage: " <question>",
		Description: `Translate a natural language question into SQL, execute it against the
local database, and summarize the results. Failed queries are retried up to
three times with the error fed back to the model.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "sql-only",
				Usage: "Print the generated SQL without an insight summary",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if question == "" {
				return fmt.Errorf("expected a question, e.g.: commercelens ask \"How many orders were delivered?\"")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			repo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}

			a, err := buildAgent(cfg, repo)
			if err != nil {
				return err
			}

			sp := newSpinner("Thinking...")
			sp.Start()

			answer, err := a.Ask(ctx, question)

			sp.Stop()

			if err != nil {
				return err
			}

			fmt.Printf("SQL: %s\n\n", answer.SQL)
			fmt.Println(answer.Results.Format())

			if !cmd.Bool("sql-only") && answer.Insight != "" {
				fmt.Printf("Insight: %s\n", answer.Insight)
			}

			if len(answer.Attempts) > 0 {
				fmt.Printf("\n(%d failed attempt(s) before this answer)\n", len(answer.Attempts))
			}

			fmt.Printf("\nTokens: %d prompt, %d completion | %s\n",
				answer.Usage.PromptTokens, answer.Usage.CompletionTokens,
				answer.Duration.Round(time.Millisecond))

			return nil
		},
	}
}
