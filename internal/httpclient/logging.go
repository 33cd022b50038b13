package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kong/loopctl/internal/log"
)

const (
	redactedValue   = "[REDACTED]"
	maxLoggedBody   = 1000
	logTypeRequest  = "request"
	logTypeResponse = "response"
)

// Doer is the subset of *http.Client used by the call URL client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoggingHTTPClient wraps an HTTP client and logs each exchange at trace
// level, with credentials redacted.
type LoggingHTTPClient struct {
	wrapped *http.Client
	logger  *slog.Logger
}

// NewLoggingHTTPClient creates a logging client with the given timeout.
func NewLoggingHTTPClient(logger *slog.Logger, timeout time.Duration) *LoggingHTTPClient {
	return NewLoggingHTTPClientWithClient(&http.Client{Timeout: timeout}, logger)
}

// NewLoggingHTTPClientWithClient wraps an existing HTTP client
func NewLoggingHTTPClientWithClient(client *http.Client, logger *slog.Logger) *LoggingHTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LoggingHTTPClient{wrapped: client, logger: logger}
}

func (c *LoggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !c.logger.Enabled(ctx, log.LevelTrace) {
		return c.wrapped.Do(req)
	}

	start := time.Now()
	c.logRequest(req)

	resp, err := c.wrapped.Do(req)
	duration := time.Since(start)
	if err != nil {
		attrs := append(log.RequestLogAttrs(ctx),
			slog.String("log_type", logTypeResponse),
			slog.String("method", req.Method),
			slog.String("route", req.URL.Path),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		c.logger.LogAttrs(ctx, log.LevelTrace, "HTTP request failed", attrs...)
		return nil, err
	}

	c.logResponse(req, resp, duration)
	return resp, nil
}

func (c *LoggingHTTPClient) logRequest(req *http.Request) {
	attrs := append(log.RequestLogAttrs(req.Context()),
		slog.String("log_type", logTypeRequest),
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("route", req.URL.Path),
		slog.Any("headers", redactHeaders(req.Header)),
	)
	if req.ContentLength > 0 {
		attrs = append(attrs, slog.Int64("content_length", req.ContentLength))
	}
	if body, ok := peekRequestBody(req); ok {
		attrs = append(attrs, slog.String("request_body", truncateBody(body)))
	}
	c.logger.LogAttrs(req.Context(), log.LevelTrace, "HTTP request", attrs...)
}

func (c *LoggingHTTPClient) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	attrs := append(log.RequestLogAttrs(req.Context()),
		slog.String("log_type", logTypeResponse),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.Any("headers", redactHeaders(resp.Header)),
	)
	if resp.StatusCode >= 400 {
		if body, ok := peekResponseBody(resp); ok {
			attrs = append(attrs, slog.String("response_body", truncateBody(body)))
		}
	}
	c.logger.LogAttrs(req.Context(), log.LevelTrace, "HTTP response", attrs...)
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		key := strings.ToLower(k)
		if key == "authorization" || key == "cookie" || key == "set-cookie" || strings.Contains(key, "token") {
			out[k] = redactedValue
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// peekRequestBody reads the body through GetBody so the transport still sees
// the original reader.
func peekRequestBody(req *http.Request) (string, bool) {
	if req.GetBody == nil || req.ContentLength == 0 {
		return "", false
	}
	rc, err := req.GetBody()
	if err != nil {
		return "", false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// peekResponseBody reads the response body and restores it for the caller.
func peekResponseBody(resp *http.Response) (string, bool) {
	if resp.Body == nil {
		return "", false
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func truncateBody(body string) string {
	if len(body) <= maxLoggedBody {
		return body
	}
	return fmt.Sprintf("%s... [truncated, total %d bytes]", body[:maxLoggedBody], len(body))
}
