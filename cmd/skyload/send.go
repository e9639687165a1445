package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erum21/skytools/internal/config"
	"github.com/erum21/skytools/internal/pgq"
)

var sendCmd = &cobra.Command{
	Use:   "send <event-type> [field=value...]",
	Short: "Enqueue one event on the configured queue",
	Long: `Inserts a single event, mainly for smoke-testing a freshly installed
queue or a statement template. Payload fields are given as field=value pairs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		payload, err := parsePayloadArgs(args[1:])
		if err != nil {
			return err
		}

		queue, err := pgq.Open(cfg.QueueDB)
		if err != nil {
			return err
		}
		defer queue.Close()

		id, err := queue.InsertEvent(context.Background(), cfg.QueueName, args[0], payload)
		if err != nil {
			return err
		}
		fmt.Printf("event %d queued on %s\n", id, cfg.QueueName)
		return nil
	},
}

// parsePayloadArgs turns field=value arguments into a payload map.
func parsePayloadArgs(args []string) (map[string]string, error) {
	payload := make(map[string]string, len(args))
	for _, pair := range args {
		key, val, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("payload field %q is not of the form field=value", pair)
		}
		payload[key] = val
	}
	return payload, nil
}
