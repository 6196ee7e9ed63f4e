package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func monitorCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll and print engine snapshots",
		Long:  "Polls the pvstd daemon's control socket for a snapshot at a fixed interval and prints each one, until interrupted (Ctrl+C).\nThe control channel has no push-based event stream (spec §6.6); this is a client-side poll loop, not a server push.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				resp, err := cl.snapshot()
				if err != nil {
					return fmt.Errorf("snapshot: %w", err)
				}

				out, err := formatInstances(resp.Snapshot.Instances, outputFormat)
				if err != nil {
					return fmt.Errorf("format instances: %w", err)
				}

				fmt.Printf("--- %s ---\n%s", time.Now().Format(time.RFC3339), out)

				select {
				case <-ctx.Done():
					if errors.Is(ctx.Err(), context.Canceled) {
						return nil
					}
					return ctx.Err()
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")

	return cmd
}
