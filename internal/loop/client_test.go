package loop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClientRequestCallURL(t *testing.T) {
	require := require.New(t)

	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		require.Equal(http.MethodPost, req.Method)
		require.Equal("/v1/call-url", req.URL.Path)
		require.Equal("Bearer session-token", req.Header.Get("Authorization"))
		require.Equal("application/json", req.Header.Get("Content-Type"))
		require.Equal("loopctl", req.Header.Get("User-Agent"))

		var payload map[string]any
		require.NoError(json.NewDecoder(req.Body).Decode(&payload))
		require.Equal("conv-1", payload["callerId"])
		require.EqualValues(24, payload["expiresIn"])

		return jsonResponse(http.StatusOK, `{"callUrl":"https://example.com/c/abc123","callToken":"abc123","expiresAt":1700000000}`), nil
	})}

	client, err := NewClient(ClientOptions{
		BaseURL:      "https://loop.example.test/v1",
		SessionToken: "session-token",
		ExpiresIn:    24,
		HTTPClient:   httpClient,
	})
	require.NoError(err)
	require.Equal("https://loop.example.test/v1/call-url", client.Endpoint())

	data, err := client.RequestCallURL(context.Background(), "conv-1")
	require.NoError(err)
	require.Equal(&CallURLData{CallURL: "https://example.com/c/abc123", CallToken: "abc123", ExpiresAt: 1700000000}, data)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Empty(t, req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{"callUrl":"https://example.com/c/a","expiresAt":1}`), nil
	})}

	client, err := NewClient(ClientOptions{BaseURL: "https://loop.example.test", HTTPClient: httpClient})
	require.NoError(t, err)

	_, err = client.RequestCallURL(context.Background(), "conv")
	require.NoError(t, err)
}

func TestClientServiceError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErrno int
		wantMsg   string
		retryable bool
	}{
		{
			name:      "structured body",
			status:    http.StatusUnauthorized,
			body:      `{"code":401,"errno":110,"error":"Unauthorized","message":"Invalid authentication token."}`,
			wantErrno: 110,
			wantMsg:   "Invalid authentication token.",
		},
		{
			name:    "error field only",
			status:  http.StatusBadRequest,
			body:    `{"code":400,"errno":108,"error":"Bad Request"}`,
			wantMsg: "Bad Request", wantErrno: 108,
		},
		{
			name:      "plain text",
			status:    http.StatusServiceUnavailable,
			body:      "maintenance",
			wantMsg:   "maintenance",
			retryable: true,
		},
		{
			name:      "empty body",
			status:    http.StatusTooManyRequests,
			wantMsg:   "Too Many Requests",
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})}
			client, err := NewClient(ClientOptions{BaseURL: "https://loop.example.test", HTTPClient: httpClient})
			require.NoError(t, err)

			_, err = client.RequestCallURL(context.Background(), "conv")
			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.status, svcErr.Status)
			assert.Equal(t, tt.wantErrno, svcErr.Errno)
			assert.Equal(t, tt.wantMsg, svcErr.Message)
			assert.Equal(t, tt.retryable, svcErr.Retryable())
			assert.False(t, IsTransientError(err))
		})
	}
}

func TestClientTransportErrorIsTransient(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, syscall.ECONNREFUSED
	})}
	client, err := NewClient(ClientOptions{BaseURL: "http://localhost:5000", HTTPClient: httpClient})
	require.NoError(t, err)

	_, err = client.RequestCallURL(context.Background(), "conv")
	require.Error(t, err)
	assert.True(t, IsTransientError(err))
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED))
}

func TestClientMalformedBody(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"callUrl":`), nil
	})}
	client, err := NewClient(ClientOptions{BaseURL: "https://loop.example.test", HTTPClient: httpClient})
	require.NoError(t, err)

	_, err = client.RequestCallURL(context.Background(), "conv")
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)

	_, err = NewClient(ClientOptions{BaseURL: "loop.example.test"})
	require.Error(t, err)
}

func TestServiceErrorMessage(t *testing.T) {
	err := &ServiceError{Status: 401, Errno: 110, Message: "Unauthorized"}
	assert.Equal(t, "call url service returned 401 (errno 110): Unauthorized", err.Error())
	assert.Equal(t, "call url service returned 500: unexpected response", (&ServiceError{Status: 500}).Error())
}

func TestTruncateSnippet(t *testing.T) {
	assert.Equal(t, "abc", truncateSnippet("abc", 5))
	assert.Equal(t, "ab…", truncateSnippet("abcdef", 3))
}
