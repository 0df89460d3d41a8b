package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chitieu/internal/backend"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	"chitieu/internal/log"
	"chitieu/internal/stub"
)

func stubCmd() *cobra.Command {
	var proxyHosts []string
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local stand-in for the remote store",
		Long: `Serve the remote store's action protocol from a memory or SQLite backend,
together with a pass-through proxy. Point --api at http://localhost:<port>/exec
and --proxy-base at http://localhost:<port>/proxy?url= to use it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			store, err := backend.Open(cmd.Context(), bcfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("Closing store failed", log.FieldError, err.Error())
				}
			}()

			st := stub.New(store, stub.Options{
				SheetID:    cfg.SheetID,
				Logger:     logger,
				ProxyHosts: proxyHosts,
			})
			defer st.Close()

			srv := &http.Server{
				Addr:              ":" + cfg.StubPort,
				Handler:           st.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx, done := cli.GracefulShutdown(cmd.Context(), logger, 10*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.LogError(ctx, "Stub shutdown error", err, log.OpShutdown, nil)
				}
			})

			logger.Info("Starting stub store",
				"port", cfg.StubPort,
				"backend", string(bcfg.Type),
				"proxy_hosts", strings.Join(proxyHosts, ","))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			<-ctx.Done()
			<-done
			return nil
		},
	}
	cmd.Flags().String("port", "8090", "stub HTTP port (STUB_PORT)")
	cmd.Flags().String("backend", "memory", "memory, sqlite or sheets (STUB_BACKEND)")
	cmd.Flags().String("db", "./data/chitieu.db", "SQLite database path (SQLITE_DB_PATH)")
	cmd.Flags().String("spreadsheet", "", "spreadsheet for the sheets backend, defaults to --sheet-id (GOOGLE_SPREADSHEET_ID)")
	cmd.Flags().String("credentials", "", "service account file for the sheets backend (GOOGLE_APPLICATION_CREDENTIALS)")
	cmd.Flags().StringSliceVar(&proxyHosts, "proxy-host", nil, "hosts the proxy may forward to; empty allows any")
	_ = viper.BindPFlag(config.KeyStubPort, cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag(config.KeyStubBackend, cmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag(config.KeySQLiteDBPath, cmd.Flags().Lookup("db"))
	_ = viper.BindPFlag(config.KeySpreadsheetID, cmd.Flags().Lookup("spreadsheet"))
	_ = viper.BindPFlag(config.KeyCredentialsFile, cmd.Flags().Lookup("credentials"))
	return cmd
}
