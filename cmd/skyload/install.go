package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erum21/skytools/internal/config"
	"github.com/erum21/skytools/internal/pgq"
)

var installQueueDB string

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the queue schema on the queue database",
	Long: `Applies the embedded queue schema migrations. Safe to run repeatedly.
The database is taken from --queue-db, SKYLOAD_QUEUE_DB, or the config file,
in that order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		dsn := installQueueDB
		if dsn == "" {
			dsn = os.Getenv("SKYLOAD_QUEUE_DB")
		}
		if dsn == "" && configPath != "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			dsn = cfg.QueueDB
		}
		if dsn == "" {
			return fmt.Errorf("no queue database given (use --queue-db, SKYLOAD_QUEUE_DB, or --config)")
		}

		queue, err := pgq.Open(dsn)
		if err != nil {
			return err
		}
		defer queue.Close()

		if err := queue.InstallSchema(); err != nil {
			return err
		}
		logger.Info("queue schema installed")
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installQueueDB, "queue-db", "", "queue database DSN")
}
