package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/kong/loopctl/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func parseJSONLogs(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLoggingHTTPClientSkipsLoggingBelowTrace(t *testing.T) {
	var logOutput bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("{}")), Request: req}, nil
	})}

	req, err := http.NewRequest(http.MethodPost, "https://loop.example.test/call-url", strings.NewReader(`{}`))
	require.NoError(t, err)

	resp, err := NewLoggingHTTPClientWithClient(client, logger).Do(req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Empty(t, logOutput.String())
}

func TestLoggingHTTPClientTraceRedactsAndKeepsBodies(t *testing.T) {
	var logOutput bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logOutput, &slog.HandlerOptions{Level: log.LevelTrace}))

	requestBody := `{"callerId":"abc","expiresIn":720}`
	responseBody := `{"code":401,"errno":110,"error":"Unauthorized"}`
	var seenByTransport string

	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		seenByTransport = string(data)
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Header:     http.Header{"Set-Cookie": []string{"session=1"}},
			Body:       io.NopCloser(strings.NewReader(responseBody)),
			Request:    req,
		}, nil
	})}

	ctx := log.WithRequestLogContext(context.Background(), log.RequestLogContext{ConversationID: "abc", Generation: 4})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://loop.example.test/call-url", strings.NewReader(requestBody))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := NewLoggingHTTPClientWithClient(client, logger).Do(req)
	require.NoError(t, err)

	assert.Equal(t, requestBody, seenByTransport)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, responseBody, string(body), "response body must still be readable")

	logs := parseJSONLogs(t, logOutput.String())
	require.Len(t, logs, 2)

	reqLog, respLog := logs[0], logs[1]
	assert.Equal(t, logTypeRequest, reqLog["log_type"])
	assert.Equal(t, "/call-url", reqLog["route"])
	assert.Equal(t, "abc", reqLog["conversation_id"])
	assert.Equal(t, requestBody, reqLog["request_body"])
	headers := reqLog["headers"].(map[string]any)
	assert.Equal(t, redactedValue, headers["Authorization"])

	assert.Equal(t, logTypeResponse, respLog["log_type"])
	assert.EqualValues(t, 401, respLog["status_code"])
	assert.Equal(t, responseBody, respLog["response_body"])
	assert.Equal(t, redactedValue, respLog["headers"].(map[string]any)["Set-Cookie"])
}

func TestLoggingHTTPClientLogsTransportFailure(t *testing.T) {
	var logOutput bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logOutput, &slog.HandlerOptions{Level: log.LevelTrace}))

	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})}

	req, err := http.NewRequest(http.MethodPost, "https://loop.example.test/call-url", nil)
	require.NoError(t, err)

	_, err = NewLoggingHTTPClientWithClient(client, logger).Do(req)
	require.Error(t, err)
	assert.Contains(t, logOutput.String(), "HTTP request failed")
}

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("x", maxLoggedBody+10)
	got := truncateBody(long)
	assert.True(t, strings.HasSuffix(got, "[truncated, total 1010 bytes]"))
	assert.Equal(t, "short", truncateBody("short"))
}
