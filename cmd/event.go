package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect and flush the transactional outbox.`,
}

var flushEventCmd = &cobra.Command{
	Use:   "flush",
	Short: "Publish one batch of pending outbox events",
	Long:  `Send one batch of pending outbox events to kafka and exit. Useful after a broker outage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return flushEvents(cmd.Context())
	},
}

var pendingEventCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending outbox events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPendingEvents(cmd.Context())
	},
}

var eventLimit int

func flushEvents(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	deps, err := initializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	relay, closeWriter, err := newRelay(deps)
	if err != nil {
		return err
	}
	defer closeWriter()

	sent, err := relay.ProcessPending(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("published %d outbox events\n", sent)
	return nil
}

func listPendingEvents(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	deps, err := initializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	pending, err := deps.Outbox.ListPending(ctx, eventLimit)
	if err != nil {
		return err
	}
	for _, evt := range pending {
		fmt.Printf("%s\t%s\t%s:%s\tattempts=%d\t%s\n",
			evt.ID, evt.EventType, evt.AggregateType, evt.AggregateID, evt.Attempts, evt.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	fmt.Printf("%d pending\n", len(pending))
	return nil
}

func init() {
	pendingEventCmd.Flags().IntVar(&eventLimit, "limit", 50, "maximum rows to list")

	eventCmd.AddCommand(flushEventCmd)
	eventCmd.AddCommand(pendingEventCmd)
}
