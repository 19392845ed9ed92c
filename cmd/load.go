package cmd

import (
	"context"
	"fmt"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/logging"
)

func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Import the Olist CSV archive into the database",
		Description: `Load all nine Olist CSV files from the archive directory into the
embedded DuckDB database. Any previously loaded data is replaced. The
seller_products bridge table is derived from the imported order items.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "archive",
				Usage: "Directory containing the Olist CSV files",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if dir := cmd.String("archive"); dir != "" {
				cfg.Archive.Dir = dir
			}

			repo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}

			sp := newSpinner("Loading archive...")
			sp.Start()

			results, err := repo.LoadArchive(ctx, cfg.Archive.Dir)

			sp.Stop()

			if err != nil {
				return err
			}

			var total int64

			fmt.Printf("Loaded %s into %s\n\n", cfg.Archive.Dir, cfg.Database.Path)

			for _, res := range results {
				fmt.Printf("  %-22s %8d rows  (%s)\n", res.Table, res.Rows, res.File)
				total += res.Rows
			}

			fmt.Printf("\nTotal: %d rows\n", total)
			logging.GetLogger().Infof("archive load complete: %d rows", total)

			return nil
		},
	}
}

// newSpinner builds the standard progress spinner used by long commands.
func newSpinner(suffix string) *spinner.Spinner {
	sp := spinner.New(spinner.CharSets[14], spinnerInterval)
	sp.Suffix = " " + suffix

	return sp
}
