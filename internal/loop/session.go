package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kong/loopctl/internal/log"
	"github.com/kong/loopctl/internal/util"
	"github.com/kong/loopctl/internal/util/i18n"
)

// Status is the fetch state of a Session.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusReady
	// StatusFailed is reported through OutcomeFailed; a session never rests in it.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a copy of the session fields. URL and Token are set only when
// Status is StatusReady. ExpiresAt is zero when the expiry is unknown: a
// pre-seeded session and a payload without expiresAt are Ready with
// ExpiresAt 0, and expiry telemetry is skipped for them.
type State struct {
	Status         Status `json:"status"                    yaml:"status"`
	URL            string `json:"url,omitempty"             yaml:"url,omitempty"`
	ExpiresAt      int64  `json:"expires_at,omitempty"      yaml:"expires_at,omitempty"`
	Token          string `json:"token,omitempty"           yaml:"token,omitempty"`
	ConversationID string `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	Copied         bool   `json:"copied"                    yaml:"copied"`
	Generation     uint64 `json:"generation"                yaml:"generation"`
	LastError      string `json:"last_error,omitempty"      yaml:"last_error,omitempty"`
}

// Outcome reports what Apply did with a Result.
type Outcome int

const (
	OutcomeReady Outcome = iota
	OutcomeFailed
	// OutcomeStale means the result belonged to a superseded request and was dropped.
	OutcomeStale
)

func (o Outcome) String() string {
	return [...]string{"ready", "failed", "stale"}[o]
}

// Result is the answer to one Request, tagged with its generation.
type Result struct {
	Generation     uint64
	ConversationID string
	Data           *CallURLData
	Err            error
}

// Request is a single call URL request issued by Refresh. Do performs it at
// most once; later calls return the first result.
type Request struct {
	Generation     uint64
	ConversationID string

	client URLRequester
	once   sync.Once
	result Result
}

// Do performs the request. It blocks and is meant to run off the UI goroutine.
func (r *Request) Do(ctx context.Context) Result {
	r.once.Do(func() {
		ctx = log.WithRequestLogContext(ctx, log.RequestLogContext{
			ConversationID: r.ConversationID,
			Generation:     r.Generation,
		})
		data, err := r.client.RequestCallURL(ctx, r.ConversationID)
		r.result = Result{
			Generation:     r.Generation,
			ConversationID: r.ConversationID,
			Data:           data,
			Err:            err,
		}
	})
	return r.result
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Client        URLRequester
	Notifications *NotificationCenter
	Telemetry     Telemetry
	// InitialURL pre-seeds the session as ready; Mount then skips the fetch.
	InitialURL string
	// NewConversationID overrides the identifier generator.
	NewConversationID func() string
}

// Session owns the lifecycle of one call URL: at most one request in
// flight, results from superseded requests dropped by generation, and the
// copy/telemetry actions that read the current URL.
type Session struct {
	mu            sync.Mutex
	client        URLRequester
	notifications *NotificationCenter
	telemetry     Telemetry
	newID         func() string
	preseeded     bool
	seedErr       error
	closed        bool
	state         State
}

func NewSession(opts SessionOptions) *Session {
	s := &Session{
		client:        opts.Client,
		notifications: opts.Notifications,
		telemetry:     opts.Telemetry,
		newID:         opts.NewConversationID,
	}
	if s.notifications == nil {
		s.notifications = NewNotificationCenter(nil)
	}
	if s.telemetry == nil {
		s.telemetry = NopTelemetry
	}
	if s.newID == nil {
		s.newID = util.NewConversationID
	}
	if opts.InitialURL != "" {
		parsed, err := ParseCallURL(opts.InitialURL, "")
		if err != nil {
			s.seedErr = err
		} else {
			s.state = State{Status: StatusReady, URL: parsed.URL, Token: parsed.Token}
			s.preseeded = true
		}
	}
	return s
}

// Notifications returns the center the session reports into.
func (s *Session) Notifications() *NotificationCenter {
	return s.notifications
}

// Mount starts the first fetch unless the session was pre-seeded with a URL.
func (s *Session) Mount(ctx context.Context) *Request {
	s.mu.Lock()
	skip := s.preseeded && s.state.URL != ""
	seedErr := s.seedErr
	s.seedErr = nil
	s.mu.Unlock()
	if seedErr != nil {
		logWarn(ctx, "initial call url ignored", slog.String("error", seedErr.Error()))
	}
	if skip {
		logDebug(ctx, "call url pre-seeded, skipping mount fetch")
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh moves the session to pending and returns the request to perform.
// It returns nil while a request is pending or after Close.
func (s *Session) Refresh(ctx context.Context) *Request {
	s.mu.Lock()
	if s.closed || s.state.Status == StatusPending {
		status := s.state.Status
		s.mu.Unlock()
		logDebug(ctx, "call url refresh ignored", slog.String("status", status.String()))
		return nil
	}

	gen := s.state.Generation + 1
	id := s.newID()
	s.state = State{
		Status:         StatusPending,
		ConversationID: id,
		Generation:     gen,
	}
	s.mu.Unlock()

	s.notifications.Reset()
	logDebug(ctx, "call url refresh",
		slog.String("conversation_id", id),
		slog.Uint64("generation", gen))

	return &Request{Generation: gen, ConversationID: id, client: s.client}
}

// Apply folds a result into the session.
func (s *Session) Apply(ctx context.Context, res Result) Outcome {
	outcome, _ := s.apply(ctx, res)
	return outcome
}

func (s *Session) apply(ctx context.Context, res Result) (Outcome, error) {
	s.mu.Lock()
	if s.closed || s.state.Status != StatusPending || res.Generation != s.state.Generation {
		current := s.state.Generation
		s.mu.Unlock()
		logDebug(ctx, "stale call url result dropped",
			slog.Uint64("generation", res.Generation),
			slog.Uint64("current_generation", current))
		return OutcomeStale, nil
	}

	err := res.Err
	var parsed ParsedCallURL
	if err == nil {
		parsed, err = res.Data.Validate()
	}

	if err != nil {
		s.state = State{
			Status:         StatusIdle,
			ConversationID: s.state.ConversationID,
			Generation:     s.state.Generation,
			LastError:      err.Error(),
		}
		s.mu.Unlock()

		s.notifications.Reset()
		s.notifications.ErrorL10n(i18n.UnableRetrieveURL)
		attrs := []slog.Attr{
			slog.String("conversation_id", res.ConversationID),
			slog.String("error", err.Error()),
		}
		if errors.Is(err, ErrMalformedPayload) {
			logWarn(ctx, "malformed call url payload", attrs...)
		} else {
			logWarn(ctx, "call url request failed", append(attrs, slog.Bool("transient", IsTransientError(err)))...)
		}
		return OutcomeFailed, err
	}

	s.state = State{
		Status:         StatusReady,
		URL:            parsed.URL,
		ExpiresAt:      res.Data.ExpiresAt,
		Token:          parsed.Token,
		ConversationID: s.state.ConversationID,
		Generation:     s.state.Generation,
	}
	s.preseeded = false
	s.mu.Unlock()

	s.notifications.Reset()
	logInfo(ctx, "call url ready",
		slog.String("conversation_id", res.ConversationID),
		slog.Int64("expires_at", res.Data.ExpiresAt))
	return OutcomeReady, nil
}

// Fetch runs Refresh, the request and Apply synchronously.
func (s *Session) Fetch(ctx context.Context) (State, error) {
	req := s.Refresh(ctx)
	if req == nil {
		if s.isClosed() {
			return s.Snapshot(), ErrSessionClosed
		}
		return s.Snapshot(), ErrRequestPending
	}
	outcome, err := s.apply(ctx, req.Do(ctx))
	if outcome == OutcomeStale {
		err = fmt.Errorf("call url result for generation %d was superseded", req.Generation)
	}
	return s.Snapshot(), err
}

// RecordExpiryTelemetry reports the current expiry, if any, to telemetry.
// It runs on each copy or email of the link.
func (s *Session) RecordExpiryTelemetry(ctx context.Context) {
	s.mu.Lock()
	expiresAt := s.state.ExpiresAt
	s.mu.Unlock()
	if expiresAt <= 0 {
		return
	}
	s.telemetry.NoteURLExpiry(ctx, expiresAt)
}

// MarkCopied flags the current URL as copied. Nothing else changes.
func (s *Session) MarkCopied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Copied = true
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. Results still in flight are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.state.Generation++
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
