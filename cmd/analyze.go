package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/analysis"
)

func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Run pre-built analytical reports",
		ArgsUsage: " [report]",
		Description: `Run canned analytical reports against the loaded dataset. Without an
argument, every report is run in turn.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List available reports without running them",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("list") {
				for _, r := range analysis.List() {
					fmt.Printf("  %-22s %s\n", r.Name, r.Description)
				}

				return nil
			}

			var selected []analysis.Report

			if name := cmd.Args().First(); name != "" {
				report, err := analysis.Lookup(name)
				if err != nil {
					return err
				}

				selected = []analysis.Report{report}
			} else {
				selected = analysis.List()
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

			runner := analysis.NewRunner(repo)

			for _, report := range selected {
				rs, err := runner.Run(ctx, report.Name)
				if err != nil {
					return fmt.Errorf("report %s failed: %w", report.Name, err)
				}

				fmt.Printf("%s (%s)\n\n", report.Description, report.Name)
				fmt.Println(rs.Format())
			}

			return nil
		},
	}
}
