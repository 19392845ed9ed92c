package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/llm"
	"github.com/commercelens/commercelens/internal/prompt"
)

func PromptCommand() *cli.Command {
	return &cli.Command{
		Name:  "prompt",
		Usage: "Build and print the schema system prompt",
		Description: `Snapshot the current database schema, build the bounded-length system
prompt, and print it along with its fingerprint. Useful for inspecting what
the language model sees.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the prompt text to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "fingerprint-only",
				Usage: "Print only the schema fingerprint",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
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

			pcfg := promptConfig(cfg)

			desc, err := repo.Introspect(ctx, pcfg.SampleRowsPerTable)
			if err != nil {
				return fmt.Errorf("schema introspection failed: %w", err)
			}

			artifact, err := prompt.Build(desc, pcfg)
			if err != nil {
				return err
			}

			if cmd.Bool("fingerprint-only") {
				fmt.Println(artifact.Fingerprint)
				return nil
			}

			if out := cmd.String("out"); out != "" {
				if err := os.WriteFile(out, []byte(artifact.Text), 0644); err != nil {
					return fmt.Errorf("failed to write prompt file: %w", err)
				}

				fmt.Printf("Wrote %d bytes to %s\n", len(artifact.Text), out)
			} else {
				fmt.Println(artifact.Text)
				fmt.Println()
			}

			fmt.Printf("Fingerprint: %s\n", artifact.Fingerprint)
			fmt.Printf("Length: %d / %d bytes\n", len(artifact.Text), pcfg.MaxChars)
			fmt.Printf("Estimated tokens: %d (%s)\n",
				llm.CountTokens(cfg.LLM.Model, artifact.Text), cfg.LLM.Model)

			if artifact.TablesOmitted > 0 || artifact.SampleRowsDropped > 0 {
				fmt.Printf("Truncation: %d tables omitted, %d sample rows dropped\n",
					artifact.TablesOmitted, artifact.SampleRowsDropped)
			}

			return nil
		},
	}
}
