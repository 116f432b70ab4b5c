package api

import (
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "budget/internal/log"
)

// RequestIDHeader carries a per-request id for correlating with backend logs.
const RequestIDHeader = "X-Request-ID"

// loggingTransport tags each request with an id and logs the round trip.
// Headers are never logged: they carry the bearer token.
type loggingTransport struct {
	base   http.RoundTripper
	logger *applog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		t.logger.WarnContext(req.Context(), "HTTP request failed",
			applog.NewFields().
				WithHTTP(requestID, req.Method, req.URL.Path, 0, duration).
				WithError(err).
				ToSlice()...)
		return nil, err
	}

	t.logger.DebugContext(req.Context(), "HTTP request completed",
		applog.NewFields().
			WithHTTP(requestID, req.Method, req.URL.Path, resp.StatusCode, duration).
			ToSlice()...)
	return resp, nil
}

// newTransport returns a pooled transport sized for a single backend.
func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
