package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show database and configuration status",
		Description: `Report the database location, per-table row counts, total size, and the
configured LLM provider.`,
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

			stats, err := repo.GetStats(ctx)
			if err != nil {
				return fmt.Errorf("failed to collect stats: %w", err)
			}

			fmt.Printf("Database: %s (%.1f MB)\n\n", cfg.Database.Path, stats.DatabaseSizeMB)

			for _, tc := range stats.Tables {
				fmt.Printf("  %-22s %8d rows\n", tc.Table, tc.Rows)
			}

			fmt.Printf("\nTotal rows: %d\n", stats.TotalRows)

			if stats.TotalRows == 0 {
				fmt.Println("\nThe database is empty. Run 'commercelens load' to import the archive.")
			}

			fmt.Printf("\nLLM: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
			fmt.Printf("Prompt: max %d chars, %d sample rows, language %s\n",
				cfg.Prompt.MaxChars, cfg.Prompt.SampleRows, cfg.Prompt.Language)

			return nil
		},
	}
}
