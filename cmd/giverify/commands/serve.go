// cmd/giverify/commands/serve.go
package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/GIVerify/internal/monitoring"
	"github.com/valpere/GIVerify/internal/server"
	"github.com/valpere/GIVerify/pkg/api"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if address != "" {
				cfg.Server.Address = address
			}

			opts := api.Options{Browser: &cfg.Browser, Logger: logger}
			serverOpts := []server.Option{server.WithLogger(logger.Named("http"))}

			if cfg.Metrics.Enabled {
				metrics := monitoring.NewMetricsManager(cfg.Metrics)
				opts.Recorder = metrics
				serverOpts = append(serverOpts, server.WithMetrics(metrics, cfg.Metrics.Path))
			}

			verifier := newVerifier(opts)
			defer verifier.Close()

			health := monitoring.NewHealthManager(version)
			health.Register("scheduler", schedulerCheck(verifier))
			serverOpts = append(serverOpts, server.WithHealth(health))

			httpServer := &http.Server{
				Addr:         cfg.Server.Address,
				Handler:      server.New(verifier, serverOpts...).Routes(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("listening", zap.String("address", cfg.Server.Address))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return eris.Wrap(err, "http server failed")
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&address, "addr", "", "listen address, overrides server.address")

	return cmd
}

// schedulerCheck reports queue state; a deep queue is degraded, not down
func schedulerCheck(verifier verifierService) monitoring.HealthCheckFunc {
	return func(ctx context.Context) monitoring.HealthCheckResult {
		queued := verifier.QueueLength()
		status := monitoring.HealthStatusHealthy
		message := ""
		if queued >= degradedQueueLength {
			status = monitoring.HealthStatusDegraded
			message = "verification queue is backing up"
		}
		return monitoring.HealthCheckResult{
			Status:  status,
			Message: message,
			Metadata: map[string]interface{}{
				"queue_length": queued,
				"active":       verifier.Busy(),
				"cache_size":   verifier.CacheSize(),
			},
		}
	}
}

// degradedQueueLength is the backlog at which health reports degraded
const degradedQueueLength = 10
