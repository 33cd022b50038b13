package loop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/kong/loopctl/internal/httpclient"
	"github.com/kong/loopctl/internal/meta"
)

const (
	callURLPathSegment = "call-url"
	maxErrorBodyBytes  = 1 << 20
)

// URLRequester requests a new call URL for a conversation.
type URLRequester interface {
	RequestCallURL(ctx context.Context, conversationID string) (*CallURLData, error)
}

// URLRequesterFunc adapts a function to URLRequester.
type URLRequesterFunc func(ctx context.Context, conversationID string) (*CallURLData, error)

func (f URLRequesterFunc) RequestCallURL(ctx context.Context, conversationID string) (*CallURLData, error) {
	return f(ctx, conversationID)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL      string
	SessionToken string
	// ExpiresIn is the requested URL lifetime in hours; zero lets the
	// service pick.
	ExpiresIn  int
	HTTPClient httpclient.Doer
	UserAgent  string
}

// Client talks to the call URL service over HTTP.
type Client struct {
	endpoint  string
	token     string
	expiresIn int
	http      httpclient.Doer
	userAgent string
}

type callURLRequest struct {
	CallerID  string `json:"callerId"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type serviceErrorBody struct {
	Code    int    `json:"code"`
	Errno   int    `json:"errno"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient builds a Client for opts.BaseURL.
func NewClient(opts ClientOptions) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("call url service base url is required")
	}
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("invalid call url service base url %q", base)
	}
	endpoint, err := url.JoinPath(base, callURLPathSegment)
	if err != nil {
		return nil, fmt.Errorf("failed to construct call url endpoint: %w", err)
	}

	doer := opts.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = meta.CLIName
	}
	return &Client{
		endpoint:  endpoint,
		token:     strings.TrimSpace(opts.SessionToken),
		expiresIn: opts.ExpiresIn,
		http:      doer,
		userAgent: ua,
	}, nil
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RequestCallURL asks the service for a new call URL. No retry is performed.
func (c *Client) RequestCallURL(ctx context.Context, conversationID string) (*CallURLData, error) {
	body, err := json.Marshal(callURLRequest{CallerID: conversationID, ExpiresIn: c.expiresIn})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call url request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build call url request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logDebug(ctx, "call url request",
		slog.String("endpoint", c.endpoint),
		slog.String("conversation_id", conversationID))

	resp, err := c.http.Do(req)
	if err != nil {
		logError(ctx, "call url request failed",
			slog.String("endpoint", c.endpoint),
			slog.String("error", err.Error()))
		return nil, wrapIfTransient(fmt.Errorf("failed to execute call url request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.serviceError(ctx, resp)
	}

	var data CallURLData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, wrapIfTransient(fmt.Errorf("%w: %w", ErrMalformedPayload, err))
	}

	logInfo(ctx, "call url received",
		slog.String("conversation_id", conversationID),
		slog.Int64("expires_at", data.ExpiresAt))
	return &data, nil
}

func (c *Client) serviceError(ctx context.Context, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	snippet := strings.TrimSpace(string(raw))

	svcErr := &ServiceError{Status: resp.StatusCode, Message: snippet}
	var payload serviceErrorBody
	if err := json.Unmarshal(raw, &payload); err == nil {
		svcErr.Code = payload.Code
		svcErr.Errno = payload.Errno
		switch {
		case strings.TrimSpace(payload.Message) != "":
			svcErr.Message = strings.TrimSpace(payload.Message)
		case strings.TrimSpace(payload.Error) != "":
			svcErr.Message = strings.TrimSpace(payload.Error)
		}
	}
	if svcErr.Message == "" {
		svcErr.Message = http.StatusText(resp.StatusCode)
	}

	logError(ctx, "call url unexpected status",
		slog.String("endpoint", c.endpoint),
		slog.Int("status", resp.StatusCode),
		slog.String("snippet", truncateSnippet(snippet, 512)))
	return svcErr
}

func truncateSnippet(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
