package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/commercelens/commercelens/internal/analysis"
	"github.com/commercelens/commercelens/internal/chat"
	"github.com/commercelens/commercelens/internal/logging"
	"github.com/commercelens/commercelens/internal/metrics"
)

func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Serve the browser chat UI",
		Description: `Start an HTTP server with a chat interface for asking questions and a
set of pre-built analytical reports. When metrics are enabled, a Prometheus
endpoint is served on a second port.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8501",
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

			a, err := buildAgent(cfg, repo)
			if err != nil {
				return err
			}

			server := chat.NewServer(a, analysis.NewRunner(repo), cmd.String("addr"))
			logger := logging.GetLogger()

			var metricsServer *metrics.Server
			if cfg.Metrics.Enabled {
				metricsServer = metrics.NewServer(cfg.Metrics.Port)

				go func() {
					if err := metricsServer.Start(); err != nil {
						logger.Errorf("metrics server: %v", err)
					}
				}()

				logger.Infof("metrics listening on :%d", cfg.Metrics.Port)
			}

			errCh := make(chan error, 1)

			go func() {
				errCh <- server.Start()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
				logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if metricsServer != nil {
				_ = metricsServer.Shutdown(shutdownCtx)
			}

			return server.Shutdown(shutdownCtx)
		},
	}
}
