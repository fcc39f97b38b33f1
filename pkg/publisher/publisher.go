package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultWriteRetries is how many times a publish waits for the reader to
	// consume the previous query file before aborting.
	DefaultWriteRetries = 5

	// DefaultRetryDelay is the pause between those waits.
	DefaultRetryDelay = time.Second
)

// Config holds the publish target and retry policy.
type Config struct {
	// Location is the query file path the external viewer polls. Required.
	Location string

	// WriteRetries and RetryDelay bound how long one publish waits for the
	// target path to become free. Zero values take the defaults.
	WriteRetries int
	RetryDelay   time.Duration
}

// Publisher makes query text visible at a fixed target path.
//
// Content only ever appears via rename-into-place: the text is written to a
// uniquely named temp file in the target's directory and renamed onto the
// target in one filesystem operation, so a reader polling the path never sees
// a partial query. The external reader deletes the file once consumed; a
// publish waits a bounded number of retries for that to happen and aborts
// otherwise, dropping the directive's output.
type Publisher struct {
	target  string
	dir     string
	retries int
	delay   time.Duration
	log     *slog.Logger

	// Serializes the whole write-poll-rename sequence. A newer publish blocks
	// behind an older one polling for the reader; it never cancels it.
	mu sync.Mutex
}

// New resolves the target path, ensures its directory exists, and returns a
// ready publisher.
func New(cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}

	target, err := resolveTarget(cfg.Location)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewError(CategoryFromError(err), fmt.Sprintf("create query directory: %v", err))
	}

	retries := cfg.WriteRetries
	if retries <= 0 {
		retries = DefaultWriteRetries
	}

	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	return &Publisher{
		target:  target,
		dir:     dir,
		retries: retries,
		delay:   delay,
		log:     log.With("component", "publisher"),
	}, nil
}

// Target returns the resolved query file path.
func (p *Publisher) Target() string {
	return p.target
}

// Publish writes text to a temp file, waits for the previous query file to be
// consumed, and renames the temp file onto the target path.
//
// Only one publish runs at a time; concurrent callers block until the prior
// sequence completes. ctx only covers process shutdown: an in-flight publish
// is never cancelled by a newer directive arriving.
func (p *Publisher) Publish(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tmpPath, err := p.writeTemp(text)
	if err != nil {
		return err
	}

	cleared, err := p.awaitTargetClear(ctx)
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if !cleared {
		// Aborted publishes remove their own temp file so orphans never
		// accumulate in the query directory.
		_ = os.Remove(tmpPath)
		return NewError(ErrorContention,
			fmt.Sprintf("%s has existed for too long (%d retries)", p.target, p.retries))
	}

	if err := os.Rename(tmpPath, p.target); err != nil {
		_ = os.Remove(tmpPath)
		return NewError(CategoryFromError(err), fmt.Sprintf("rename query file: %v", err))
	}

	return nil
}

// writeTemp writes the full query text to a uniquely named temp file in the
// target directory, so a half-written file is never the rename source.
func (p *Publisher) writeTemp(text string) (string, error) {
	tmp, err := os.CreateTemp(p.dir, "query-*.tmp")
	if err != nil {
		return "", NewError(CategoryFromError(err), fmt.Sprintf("create temp query file: %v", err))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", NewError(CategoryFromError(err), fmt.Sprintf("write temp query file: %v", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", NewError(CategoryFromError(err), fmt.Sprintf("close temp query file: %v", err))
	}

	return tmpPath, nil
}

// awaitTargetClear polls for the target path's absence up to the retry budget,
// giving the external reader time to consume and remove the previous file. It
// reports false when the budget is exhausted with the target still present.
func (p *Publisher) awaitTargetClear(ctx context.Context) (bool, error) {
	if !p.targetExists() {
		return true, nil
	}

	p.log.Debug("Waiting for previous query file to be consumed", "target", p.target)

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	for attempt := 0; attempt < p.retries; attempt++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}

		if !p.targetExists() {
			return true, nil
		}
		timer.Reset(p.delay)
	}

	return false, nil
}

func (p *Publisher) targetExists() bool {
	_, err := os.Stat(p.target)
	return err == nil
}

// resolveTarget normalizes the configured query file location.
func resolveTarget(location string) (string, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return "", NewError(ErrorInvalidPath, "query file location must not be empty")
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", NewError(ErrorInvalidPath, fmt.Sprintf("resolve query file path: %v", err))
	}

	return filepath.Clean(absPath), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", NewError(ErrorInvalidPath, fmt.Sprintf("resolve home directory: %v", err))
	}
	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"+string(filepath.Separator))), nil
}
