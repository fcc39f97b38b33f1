package stream

import (
	"context"
	"testing"
	"time"

	"earthquery/pkg/bus"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

func TestNewAdapterValidation(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	if _, err := NewAdapter("", "topic", pubSub, nil); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewAdapter("redis", "", pubSub, nil); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if _, err := NewAdapter("redis", "topic", nil, nil); err == nil {
		t.Fatal("expected error for nil subscriber")
	}
}

func TestRunDeliversMessages(t *testing.T) {
	t.Parallel()

	// Persistent mode replays messages published before the adapter
	// subscribes, which keeps the test deterministic.
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	payload := []byte(`{"type": "planet", "data": {"destination": "mars"}}`)
	if err := pubSub.Publish("directives", message.NewMessage("msg-1", payload)); err != nil {
		t.Fatalf("publish test message: %v", err)
	}

	adapter, err := NewAdapter("local", "directives", pubSub, nil)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}

	delivered := make(chan bus.InboundMessage, 1)
	deliver := func(_ context.Context, inbound bus.InboundMessage) error {
		delivered <- inbound
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- adapter.Run(ctx, deliver) }()

	select {
	case inbound := <-delivered:
		if inbound.Channel != "local" {
			t.Fatalf("channel = %q, want %q", inbound.Channel, "local")
		}
		if inbound.MessageID != "msg-1" {
			t.Fatalf("message_id = %q, want %q", inbound.MessageID, "msg-1")
		}
		if string(inbound.Payload) != string(payload) {
			t.Fatalf("payload = %q, want %q", inbound.Payload, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func TestRunRequiresDeliverFunc(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	adapter, err := NewAdapter("local", "directives", pubSub, nil)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}

	if err := adapter.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil deliver func")
	}
}
