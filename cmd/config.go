package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/config"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or save the effective configuration",
		Description: `Print the effective configuration after merging the config file,
environment variables, and command line flags. With --save, write it to the
config file so it becomes the new baseline.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write the effective configuration to the config file",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Bool("save") {
				if err := config.Save(cfg); err != nil {
					return err
				}

				fmt.Println("Configuration saved.")

				return nil
			}

			// Never print credentials.
			display := *cfg
			if display.LLM.APIKey != "" {
				display.LLM.APIKey = "(set)"
			}

			data, err := json.MarshalIndent(display, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			fmt.Println(string(data))

			return nil
		},
	}
}
