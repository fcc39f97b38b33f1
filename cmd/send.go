package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"earthquery/pkg/config"
	"earthquery/pkg/directive"
	"earthquery/pkg/channel/stream"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sendFile string

var sendCmd = &cobra.Command{
	Use:   "send [message-json]",
	Short: "Publish a directive message onto the Redis stream",
	Long:  "Validates one directive message envelope and publishes it onto the configured Redis stream, where a running gateway picks it up.",
	Run: func(cmd *cobra.Command, args []string) {
		payload, err := resolvePayload(args, sendFile)
		if err != nil {
			fmt.Printf("invalid message: %v\n", err)
			return
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		publisher, err := stream.NewRedisPublisher(cfg.Channels.Redis, nil)
		if err != nil {
			fmt.Printf("failed to initialize redis publisher: %v\n", err)
			return
		}
		defer func() { _ = publisher.Close() }()

		msg := message.NewMessage(uuid.NewString(), payload)
		if err := publisher.Publish(cfg.Channels.Redis.Stream, msg); err != nil {
			fmt.Printf("failed to publish message: %v\n", err)
			return
		}

		fmt.Printf("sent %s to %s\n", msg.UUID, cfg.Channels.Redis.Stream)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "read the message envelope from a file")
}

// resolvePayload reads the message envelope from the argument or file and
// rejects it early when it would not decode on the gateway side.
func resolvePayload(args []string, file string) ([]byte, error) {
	var payload []byte

	switch {
	case strings.TrimSpace(file) != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read message file: %w", err)
		}
		payload = content
	case len(args) == 1 && strings.TrimSpace(args[0]) != "":
		payload = []byte(args[0])
	default:
		return nil, errors.New("provide the message envelope as an argument or with --file")
	}

	if _, err := directive.Decode(payload); err != nil {
		return nil, err
	}

	return payload, nil
}
