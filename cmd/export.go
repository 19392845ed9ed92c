package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/export"
)

func ExportReviewsCommand() *cli.Command {
	return &cli.Command{
		Name:  "export-reviews",
		Usage: "Export commented reviews to a CSV file",
		Description: `Extract every review that carries comment text, joined with its order
status and product category, and write the rows to a CSV file for downstream
text analysis.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output CSV path",
				Value: "reviews_export.csv",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of reviews to export (0 = all)",
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

			out := cmd.String("out")

			n, err := export.Reviews(ctx, repo, out, int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d reviews to %s\n", n, out)

			return nil
		},
	}
}
