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
)

var watchNATSURL string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail loader lifecycle events from NATS",
	Long: `Subscribes to the skytools.> subjects and prints each published event
as a JSON line. The NATS URL is taken from --nats-url, SKYLOAD_NATS_URL, or
the config file, in that order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := watchNATSURL
		if url == "" {
			url = os.Getenv("SKYLOAD_NATS_URL")
		}
		if url == "" && configPath != "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			url = cfg.NATSURL
		}
		if url == "" {
			return fmt.Errorf("no NATS URL given (use --nats-url, SKYLOAD_NATS_URL, or --config)")
		}

		sub, err := events.NewNATSSubscriber(url)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe("skytools.>")
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, open := <-ch:
				if !open {
					return nil
				}
				fmt.Println(string(msg))
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchNATSURL, "nats-url", "", "NATS server URL")
}
