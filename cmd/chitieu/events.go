package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"chitieu/internal/amqp"
	"chitieu/internal/cli"
	"chitieu/internal/log"
)

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print transaction changes published by other sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			logger.Info("Listening for transaction changes", "exchange", cfg.AMQPExchange)
			err = client.ConsumeChanges(cmd.Context(), func(_ context.Context, msg *amqp.TransactionChange) error {
				fmt.Fprintln(out, formatChange(msg))
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.LogError(cmd.Context(), "Consumer stopped", err, log.OpConsume, nil)
				return err
			}
			return nil
		},
	}
}

func formatChange(msg *amqp.TransactionChange) string {
	line := fmt.Sprintf("%s %s %s %s", msg.Timestamp.Format("15:04:05"), msg.Kind, msg.Date, msg.Amount)
	if msg.Category != "" {
		line += " " + msg.Category
	}
	if msg.Kind == amqp.ChangeDeleted {
		return cli.ErrorStyle.Render(line)
	}
	return cli.SuccessStyle.Render(line)
}
