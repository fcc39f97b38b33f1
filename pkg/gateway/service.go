package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"earthquery/pkg/bus"
	"earthquery/pkg/channel"
	"earthquery/pkg/config"
	"earthquery/pkg/directive"
	"earthquery/pkg/publisher"
)

const (
	defaultStatusHost = "0.0.0.0"
	defaultStatusPort = 18890
)

// Service runs the directive pipeline: channel adapters feed raw messages onto
// the bus, and a single worker decodes, serializes and publishes each message
// fully before taking the next.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	bus      *bus.MessageBus
	pub      *publisher.Publisher
	channels []channel.Adapter

	mu             sync.RWMutex
	startedAt      time.Time
	lastRenamedAt  time.Time
	lastAbortError string
	renamed        uint64
	aborted        uint64
	decodeFailed   uint64
	channelStates  map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status         string                  `json:"status"`
	UptimeSeconds  int64                   `json:"uptime_seconds"`
	QueryFile      string                  `json:"query_file"`
	Renamed        uint64                  `json:"renamed"`
	Aborted        uint64                  `json:"aborted"`
	DecodeFailures uint64                  `json:"decode_failures"`
	LastRenamedAt  string                  `json:"last_renamed_at,omitempty"`
	LastAbortError string                  `json:"last_abort_error,omitempty"`
	Channels       map[string]channelState `json:"channels"`
}

func NewService(cfg *config.Config, adapters []channel.Adapter, pub *publisher.Publisher, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		bus:           bus.NewMessageBus(),
		pub:           pub,
		channels:      adapters,
		channelStates: channelStates,
	}, nil
}

// Events exposes pipeline outcome events for observers.
func (s *Service) Events(ctx context.Context, buffer int) (<-chan bus.Event, func()) {
	return s.bus.SubscribeEvents(ctx, buffer)
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	defer s.bus.Close()

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.processLoop(ctx)
	}()

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		adapter := adapter
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, s.deliver)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

// deliver enqueues one raw inbound message for the pipeline worker.
func (s *Service) deliver(ctx context.Context, inbound bus.InboundMessage) error {
	if ok := s.bus.PublishInbound(ctx, inbound); !ok {
		return errors.New("message bus is closed")
	}

	return nil
}

// processLoop drains the bus one message at a time until the context ends.
func (s *Service) processLoop(ctx context.Context) {
	for {
		inbound, ok := s.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}

		s.handleMessage(ctx, inbound)
	}
}

// handleMessage runs one message through decode, serialize and publish. Every
// failure mode is non-fatal: the message is dropped and the loop keeps
// accepting new directives.
func (s *Service) handleMessage(ctx context.Context, inbound bus.InboundMessage) {
	d, err := directive.Decode(inbound.Payload)
	if err != nil {
		s.countDecodeFailure()
		s.log.Warn("Dropping undecodable directive message",
			"channel", inbound.Channel, "message_id", inbound.MessageID,
			"category", directive.DecodeCategory(err), "error", err)
		s.bus.PublishEvent(ctx, bus.Event{
			Type:      bus.EventDecodeFailed,
			Channel:   inbound.Channel,
			MessageID: inbound.MessageID,
			Error:     err.Error(),
		})
		return
	}

	operation := string(d.Kind())
	s.bus.PublishEvent(ctx, bus.Event{
		Type:      bus.EventDirectiveDecoded,
		Channel:   inbound.Channel,
		MessageID: inbound.MessageID,
		Operation: operation,
	})

	query, err := directive.Serialize(d)
	if err != nil {
		// Decode invariants make this unreachable for wire messages; guard
		// anyway so a bug never produces a broken query file.
		s.log.Warn("Dropping unserializable directive",
			"operation", operation, "message_id", inbound.MessageID, "error", err)
		return
	}

	if err := s.pub.Publish(ctx, query); err != nil {
		s.handlePublishError(ctx, inbound, operation, query, err)
		return
	}

	s.countRenamed()
	s.log.Info("Published query", "operation", operation, "query", query, "file", s.pub.Target())
	s.bus.PublishEvent(ctx, bus.Event{
		Type:      bus.EventPublishRenamed,
		Channel:   inbound.Channel,
		MessageID: inbound.MessageID,
		Operation: operation,
		Query:     query,
	})
}

func (s *Service) handlePublishError(ctx context.Context, inbound bus.InboundMessage, operation string, query string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	if publisher.IsContention(err) {
		s.countAborted(err)
		s.log.Warn("Aborting publish, query file not consumed in time",
			"operation", operation, "message_id", inbound.MessageID, "error", err)
		s.bus.PublishEvent(ctx, bus.Event{
			Type:      bus.EventPublishAborted,
			Channel:   inbound.Channel,
			MessageID: inbound.MessageID,
			Operation: operation,
			Query:     query,
			Error:     err.Error(),
		})
		return
	}

	s.countAborted(err)
	s.log.Error("Failed to write query file",
		"operation", operation, "message_id", inbound.MessageID,
		"category", publisher.CategoryFromError(err), "error", err)
	s.bus.PublishEvent(ctx, bus.Event{
		Type:      bus.EventPublishFailed,
		Channel:   inbound.Channel,
		MessageID: inbound.MessageID,
		Operation: operation,
		Error:     err.Error(),
	})
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultStatusHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultStatusPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	lastRenamed := ""
	if !s.lastRenamedAt.IsZero() {
		lastRenamed = s.lastRenamedAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:         status,
		UptimeSeconds:  uptime,
		QueryFile:      s.pub.Target(),
		Renamed:        s.renamed,
		Aborted:        s.aborted,
		DecodeFailures: s.decodeFailed,
		LastRenamedAt:  lastRenamed,
		LastAbortError: s.lastAbortError,
		Channels:       channels,
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func (s *Service) countRenamed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renamed++
	s.lastRenamedAt = time.Now().UTC()
}

func (s *Service) countAborted(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted++
	s.lastAbortError = errorString(err)
}

func (s *Service) countDecodeFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decodeFailed++
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
