package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chitieu/internal/cli"
	"chitieu/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "chitieu",
		Short: "Personal income and expense tracker backed by a remote sheet",
		Long: `chitieu browses and edits transactions kept in a remote spreadsheet store.

Views are cached per session; any change invalidates what it can make stale.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("api", "", "remote store URL (API_URL)")
	rootCmd.PersistentFlags().String("sheet-id", "", "sheet id (SHEET_ID)")
	rootCmd.PersistentFlags().String("proxy-base", config.DefaultProxyBase, "proxy prefix for remote calls, empty to call directly")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag(config.KeyAPIURL, rootCmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag(config.KeySheetID, rootCmd.PersistentFlags().Lookup("sheet-id"))
	_ = viper.BindPFlag(config.KeyProxyBase, rootCmd.PersistentFlags().Lookup("proxy-base"))
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dailyCmd())
	rootCmd.AddCommand(monthCmd())
	rootCmd.AddCommand(chartCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(keywordsCmd())
	rootCmd.AddCommand(stubCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		cli.NewRenderer(os.Stderr).Error(err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "chitieu", version)
		},
	}
}
