package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chitieu/internal/cli"
	"chitieu/internal/config"
	apphttp "chitieu/internal/http"
	"chitieu/internal/log"
	"chitieu/internal/worker"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session views as a JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			h, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer h.Close()

			srv := apphttp.NewServer(":"+cfg.Port, h.session, apphttp.Options{Logger: logger})
			ctx, done := cli.GracefulShutdown(cmd.Context(), logger, 30*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.LogError(ctx, "Server shutdown error", err, log.OpShutdown, nil)
				}
			})

			if h.changes != nil {
				listener := worker.NewChangeListener(h.session, logger)
				go func() {
					_ = listener.Run(ctx, h.changes)
				}()
			}

			logger.Info("Starting chitieu server", "port", cfg.Port, log.FieldSheetID, cfg.SheetID)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			<-ctx.Done()
			<-done
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().String("port", "8080", "HTTP port (PORT)")
	cmd.Flags().Bool("stale-guard", false, "discard fetch results overtaken by a newer fetch")
	_ = viper.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag(config.KeyStaleGuard, cmd.Flags().Lookup("stale-guard"))
	return cmd
}
