package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/erum21/skytools/internal/config"
	"github.com/erum21/skytools/internal/pgq"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the configured consumer on the queue",
	Long: `Registers the consumer name on the queue without starting the loop.
The run command registers on startup as well; this exists so the consumer
can start accumulating events before the loader is first launched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		queue, err := pgq.Open(cfg.QueueDB)
		if err != nil {
			return err
		}
		defer queue.Close()

		if err := queue.Register(context.Background(), cfg.QueueName, cfg.ConsumerName); err != nil {
			return err
		}
		logger.Info("consumer registered", "queue", cfg.QueueName, "consumer", cfg.ConsumerName)
		return nil
	},
}
