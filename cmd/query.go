package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"earthquery/pkg/config"
	"earthquery/pkg/directive"
	"earthquery/pkg/publisher"

	"github.com/spf13/cobra"
)

var queryFile string

var queryCmd = &cobra.Command{
	Use:   "query [message-json]",
	Short: "Translate one directive message and write the query file directly",
	Long:  "Decodes one directive message envelope, serializes it into query text, and publishes it to the configured query file without going through a transport.",
	Run: func(cmd *cobra.Command, args []string) {
		payload, err := resolvePayload(args, queryFile)
		if err != nil {
			fmt.Printf("invalid message: %v\n", err)
			return
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		d, err := directive.Decode(payload)
		if err != nil {
			fmt.Printf("failed to decode message: %v\n", err)
			return
		}

		text, err := directive.Serialize(d)
		if err != nil {
			fmt.Printf("failed to serialize directive: %v\n", err)
			return
		}

		pub, err := publisher.New(publisherConfig(cfg), nil)
		if err != nil {
			fmt.Printf("failed to initialize publisher: %v\n", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := pub.Publish(runCtx, text); err != nil {
			fmt.Printf("failed to publish query: %v\n", err)
			return
		}

		fmt.Println(text)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "read the message envelope from a file")
}
