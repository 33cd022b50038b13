package loop

import (
	"fmt"
	"net/url"
	"strings"
)

// CallURLData is the payload returned by the call URL service.
type CallURLData struct {
	CallURL   string `json:"callUrl"             yaml:"callUrl"`
	CallToken string `json:"callToken,omitempty" yaml:"callToken,omitempty"`
	ExpiresAt int64  `json:"expiresAt"           yaml:"expiresAt"`
}

// ParsedCallURL is a validated call URL with its derived token.
type ParsedCallURL struct {
	URL   string
	Token string
}

// ParseCallURL validates raw as an absolute URL and derives the call token.
// The explicit token wins; older services omit it, in which case the last
// path segment of the URL is the token.
func ParseCallURL(raw, explicitToken string) (ParsedCallURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ParsedCallURL{}, fmt.Errorf("%w: empty callUrl", ErrMalformedPayload)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedCallURL{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return ParsedCallURL{}, fmt.Errorf("%w: callUrl %q is not absolute", ErrMalformedPayload, raw)
	}

	token := strings.TrimSpace(explicitToken)
	if token == "" {
		token = lastPathSegment(u)
	}
	return ParsedCallURL{URL: u.String(), Token: token}, nil
}

// Validate checks a service payload and returns the parsed URL. A missing or
// zero expiresAt is accepted and leaves the expiry unknown.
func (d *CallURLData) Validate() (ParsedCallURL, error) {
	if d == nil {
		return ParsedCallURL{}, fmt.Errorf("%w: empty response", ErrMalformedPayload)
	}
	parsed, err := ParseCallURL(d.CallURL, d.CallToken)
	if err != nil {
		return ParsedCallURL{}, err
	}
	if d.ExpiresAt < 0 {
		return ParsedCallURL{}, fmt.Errorf("%w: expiresAt %d is negative", ErrMalformedPayload, d.ExpiresAt)
	}
	return parsed, nil
}

// lastPathSegment ignores trailing slashes, so ".../c/xyz789/" yields "xyz789".
func lastPathSegment(u *url.URL) string {
	p := strings.TrimRight(u.EscapedPath(), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		return unescaped
	}
	return p
}
