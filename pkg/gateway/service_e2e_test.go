package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"earthquery/pkg/bus"
	"earthquery/pkg/channel"
	"earthquery/pkg/config"
	"earthquery/pkg/publisher"

	"github.com/stretchr/testify/require"
)

// scriptedAdapter delivers a fixed payload sequence, then idles until the
// context ends.
type scriptedAdapter struct {
	name     string
	payloads [][]byte
}

func (a *scriptedAdapter) Name() string { return a.name }

func (a *scriptedAdapter) Run(ctx context.Context, deliver channel.Deliver) error {
	for i, payload := range a.payloads {
		inbound := bus.InboundMessage{
			Channel:   a.name,
			MessageID: fmt.Sprintf("msg-%d", i+1),
			Payload:   payload,
		}
		if err := deliver(ctx, inbound); err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}

func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	return port
}

func waitForEvent(t *testing.T, events <-chan bus.Event, want bus.EventType) bus.Event {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "event channel closed while waiting for %s", want)
			if event.Type == want {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

func TestServiceEndToEnd(t *testing.T) {
	queryFile := filepath.Join(t.TempDir(), "query.txt")

	pub, err := publisher.New(publisher.Config{
		Location:     queryFile,
		WriteRetries: 200,
		RetryDelay:   10 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	port := freePort(t)
	cfg := &config.Config{Gateway: config.GatewayConfig{Host: "127.0.0.1", Port: port}}

	adapter := &scriptedAdapter{
		name: "scripted",
		payloads: [][]byte{
			[]byte(`{"type": "planet", "data": {"destination": "mars"}}`),
			[]byte(`{"type": "flyto", "data": {"type": "globe", "latitude": 1, "longitude": 2, "altitude": 3}}`),
			[]byte(`{"type": "search", "data": {"latitude": 45.5, "longitude": -122.6, "label": "Portland"}}`),
		},
	}

	svc, err := NewService(cfg, []channel.Adapter{adapter}, pub, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := svc.Events(ctx, 16)
	defer unsubscribe()

	runDone := make(chan error, 1)
	go func() { runDone <- svc.Run(ctx) }()

	// First directive lands in the query file.
	waitForEvent(t, events, bus.EventPublishRenamed)
	content, err := os.ReadFile(queryFile)
	require.NoError(t, err)
	require.Equal(t, "planet=mars", string(content))

	// Second directive is undecodable and must not touch the file; the
	// reader consumes the first query meanwhile.
	waitForEvent(t, events, bus.EventDecodeFailed)
	require.NoError(t, os.Remove(queryFile))

	// Third directive becomes the new query once the path is free.
	event := waitForEvent(t, events, bus.EventPublishRenamed)
	require.Equal(t, "search", event.Operation)
	content, err = os.ReadFile(queryFile)
	require.NoError(t, err)
	require.Equal(t, "search=45.5,-122.6(Portland)", string(content))

	// Status endpoint reports the pipeline counters.
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/readyz", port))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	cancel()
	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop on context cancel")
	}
}
