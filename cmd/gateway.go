package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"earthquery/pkg/channel"
	"earthquery/pkg/channel/stream"
	"earthquery/pkg/config"
	"earthquery/pkg/gateway"
	"earthquery/pkg/logger"
	"earthquery/pkg/publisher"

	"github.com/spf13/cobra"
)

const redisChannelName = "redis"

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the directive gateway",
	Long:  "Runs earthquery as a gateway: subscribes to directive channels, translates each message into query text, and publishes it to the query file.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.gateway")

		pub, err := publisher.New(publisherConfig(cfg), log)
		if err != nil {
			log.Error("Failed to initialize query file publisher", "error", err)
			return
		}

		adapters, err := enabledAdapters(cfg, log)
		if err != nil {
			log.Error("Gateway configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := gateway.NewService(cfg, adapters, pub, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Gateway started", "channels", enabledChannelNames(adapters), "query_file", pub.Target())
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func publisherConfig(cfg *config.Config) publisher.Config {
	return publisher.Config{
		Location:     cfg.Query.Location,
		WriteRetries: cfg.Query.WriteRetries,
		RetryDelay:   time.Duration(cfg.Query.RetryDelayMS) * time.Millisecond,
	}
}

func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 1)

	if cfg.Channels.Redis.Enabled {
		subscriber, err := stream.NewRedisSubscriber(cfg.Channels.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", redisChannelName, err)
		}

		adapter, err := stream.NewAdapter(redisChannelName, cfg.Channels.Redis.Stream, subscriber, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", redisChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, errors.New("no channels are enabled")
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}
