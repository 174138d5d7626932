package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/groblegark/configstore/internal/events"
	"github.com/groblegark/configstore/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:               "watch [topic]",
	Short:             "Stream lookup and fixture events from NATS",
	GroupID:           "system",
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		if natsURL == "" {
			return fmt.Errorf("no NATS URL (set --nats-url or CONFIGSTORE_NATS_URL)")
		}
		topic := events.TopicAll
		if len(args) == 1 {
			topic = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		return watchEvents(ctx, os.Stdout, sub, topic)
	},
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("CONFIGSTORE_NATS_URL"), "NATS server URL")
}

// watchEvents prints every message on topic until ctx is done or the
// subscription closes.
func watchEvents(ctx context.Context, w io.Writer, sub events.Subscriber, topic string) error {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", msg.Topic, msg.Data)
			} else {
				fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(msg.Topic), msg.Data)
			}
		}
	}
}
