package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"earthquery/pkg/bus"
	"earthquery/pkg/channel"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Adapter bridges a Watermill subscription into earthquery inbound messages.
// Redis Streams backs it in production; tests use the in-process gochannel
// Pub/Sub.
type Adapter struct {
	name       string
	topic      string
	subscriber message.Subscriber
	log        *slog.Logger
}

// NewAdapter wraps a subscriber as a named channel adapter for one topic.
func NewAdapter(name string, topic string, subscriber message.Subscriber, log *slog.Logger) (*Adapter, error) {
	if name == "" {
		return nil, errors.New("channel name is required")
	}
	if topic == "" {
		return nil, errors.New("stream topic is required")
	}
	if subscriber == nil {
		return nil, errors.New("subscriber is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		name:       name,
		topic:      topic,
		subscriber: subscriber,
		log:        log.With("component", "channel."+name),
	}, nil
}

// Name returns the channel identifier used in bus metadata and logs.
func (a *Adapter) Name() string {
	return a.name
}

// Run consumes the subscription until the context ends, handing each message
// to the gateway pipeline.
//
// Messages are acked unconditionally: a payload the pipeline cannot use is
// logged and dropped, never redelivered.
func (a *Adapter) Run(ctx context.Context, deliver channel.Deliver) error {
	if deliver == nil {
		return errors.New("deliver func is required")
	}

	messages, err := a.subscriber.Subscribe(ctx, a.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", a.topic, err)
	}

	a.log.Info("Stream channel started", "topic", a.topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("subscription to %s closed", a.topic)
			}

			inbound := bus.InboundMessage{
				Channel:   a.name,
				MessageID: msg.UUID,
				Payload:   msg.Payload,
			}
			if err := deliver(ctx, inbound); err != nil {
				a.log.Error("Failed to hand off inbound message", "message_id", msg.UUID, "error", err)
			}

			msg.Ack()
		}
	}
}
