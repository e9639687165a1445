package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erum21/skytools/internal/config"
	"github.com/erum21/skytools/internal/events"
	"github.com/erum21/skytools/internal/idgen"
	"github.com/erum21/skytools/internal/loader"
	"github.com/erum21/skytools/internal/pgq"
	"github.com/erum21/skytools/internal/render"
	"github.com/erum21/skytools/internal/sink"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the consumer loop until shutdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		// Configuration and template problems are fatal here, before any
		// batch is claimed.
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		renderer, err := render.New(cfg.Statement, cfg.FieldMap)
		if err != nil {
			return fmt.Errorf("statement template: %w", err)
		}

		queue, err := pgq.Open(cfg.QueueDB)
		if err != nil {
			return err
		}
		defer queue.Close()

		target, err := sink.Open(cfg.TargetDB)
		if err != nil {
			return err
		}
		defer target.Close()

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (nats_url not set)")
		}
		defer publisher.Close()

		instanceID, err := idgen.Generate()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loop := loader.NewLoop(queue, loader.NewProcessor(renderer, target), publisher, logger, loader.Options{
			QueueName:        cfg.QueueName,
			ConsumerName:     cfg.ConsumerName,
			InstanceID:       instanceID,
			PollInterval:     cfg.PollInterval,
			MaxQueueFailures: cfg.MaxQueueFailures,
		})
		return loop.Run(ctx)
	},
}
