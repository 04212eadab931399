package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start long running workers such as the outbox relay.`,
}

// Event relay worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start the outbox relay",
	Long:  `Poll pending outbox events and publish them to kafka until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startEventWorker()
	},
}

func newRelay(deps *Dependencies) (*events.Relay, func() error, error) {
	cfg := deps.Config.Messaging
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil, nil, fmt.Errorf("messaging.kafka_brokers is not configured")
	}

	writer := events.NewKafkaWriter(brokers)
	relay := events.NewRelay(deps.Outbox, writer, events.RelayConfig{
		Topic:        cfg.Topic,
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
	}, deps.Logger)
	return relay, writer.Close, nil
}

func startEventWorker() error {
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
	defer func() {
		if err := closeWriter(); err != nil {
			deps.Logger.Error("kafka writer close error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps.Logger.Info("outbox relay is running. Press Ctrl+C to stop.", "brokers", cfg.Messaging.Brokers())
	relay.Run(ctx)
	deps.Logger.Info("outbox relay shutdown complete")
	return nil
}

func init() {
	workerCmd.AddCommand(eventWorkerCmd)
}
