package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	applog "github.com/kong/loopctl/internal/log"
)

const (
	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600

	summaryFileName = "summary.json"
	eventsFileName  = "events.jsonl"
)

// EventKind enumerates the recorded telemetry events.
type EventKind string

const (
	EventKindURLExpiry EventKind = "url_expiry"
)

// Event is a single line of the events log.
type Event struct {
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	ExpiresAt int64     `json:"expires_at,omitempty"`
}

// Summary aggregates the events log.
type Summary struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	EventCount    int64     `json:"event_count"`
	LastExpiresAt int64     `json:"last_expires_at,omitempty"`
	CLIVersion    string    `json:"cli_version,omitempty"`
}

// Recorder appends telemetry events to a JSONL file and keeps a summary
// next to it. It satisfies loop.Telemetry.
type Recorder struct {
	dir         string
	summaryPath string
	eventsPath  string
	now         func() time.Time

	mu      sync.Mutex
	summary Summary
}

// NewRecorder opens or creates the recorder stored in dir.
func NewRecorder(dir, cliVersion string) (*Recorder, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("telemetry directory cannot be empty")
	}
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	r := &Recorder{
		dir:         dir,
		summaryPath: filepath.Join(dir, summaryFileName),
		eventsPath:  filepath.Join(dir, eventsFileName),
		now:         func() time.Time { return time.Now().UTC() },
	}

	summary, err := r.loadSummary()
	if err != nil {
		return nil, err
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = r.now()
		summary.UpdatedAt = summary.CreatedAt
	}
	if v := strings.TrimSpace(cliVersion); v != "" {
		summary.CLIVersion = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = summary
	if err := r.saveSummaryLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

// Directory exposes the path used for persistence.
func (r *Recorder) Directory() string {
	return r.dir
}

// NoteURLExpiry records that a call URL expiring at expiresAt left the panel.
// Failures are logged, never returned.
func (r *Recorder) NoteURLExpiry(ctx context.Context, expiresAt int64) {
	if err := r.Append(Event{Kind: EventKindURLExpiry, ExpiresAt: expiresAt}); err != nil {
		applog.FromContext(ctx).LogAttrs(ctx, slog.LevelWarn, "failed to record url expiry telemetry",
			slog.String("error", err.Error()),
			slog.String("dir", r.dir))
	}
}

// Append writes evt as the next line and updates the summary.
func (r *Recorder) Append(evt Event) error {
	if evt.Kind == "" {
		return errors.New("event kind cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.Timestamp.IsZero() {
		evt.Timestamp = r.now()
	} else {
		evt.Timestamp = evt.Timestamp.UTC()
	}
	evt.Sequence = r.summary.EventCount + 1

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := appendLine(r.eventsPath, payload); err != nil {
		return err
	}

	r.summary.EventCount = evt.Sequence
	r.summary.UpdatedAt = evt.Timestamp
	if evt.Kind == EventKindURLExpiry {
		r.summary.LastExpiresAt = evt.ExpiresAt
	}
	return r.saveSummaryLocked()
}

// Summary returns a copy of the current summary.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// Events reads back every recorded event.
func (r *Recorder) Events() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.eventsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", len(events)+1, err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func (r *Recorder) loadSummary() (Summary, error) {
	raw, err := os.ReadFile(r.summaryPath)
	if errors.Is(err, os.ErrNotExist) {
		return Summary{}, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("read summary: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

func (r *Recorder) saveSummaryLocked() error {
	raw, err := json.MarshalIndent(r.summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return writeAtomic(r.summaryPath, raw, defaultFilePerm)
}

func appendLine(path string, payload []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	return f.Sync()
}

func writeAtomic(path string, payload []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".summary-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp summary: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(payload); err != nil {
		return fmt.Errorf("write temp summary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp summary: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod summary: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace summary: %w", err)
	}
	return nil
}
