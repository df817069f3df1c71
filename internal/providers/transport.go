package providers

import (
	"context"
	"fmt"
	"time"
)

// Response is a raw provider reply.
type Response struct {
	RequestID  string
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Transport sends a built request. Implementations return *TransportError
// for network failures, timeouts, and non-success statuses, and must not
// retry on their own.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// NewTransport returns the transport named by cfg.Transport.
func NewTransport(cfg Config) (Transport, error) {
	switch cfg.Transport {
	case "", TransportHTTP:
		return NewHTTPTransport(nil), nil
	case TransportSDK:
		return NewSDKTransport(nil), nil
	default:
		return nil, &ConfigError{Field: "transport", Reason: "unknown transport " + cfg.Transport}
	}
}

// Complete sends req and extracts the reply text with the request's dialect.
func Complete(ctx context.Context, t Transport, req *Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("request is required")
	}
	resp, err := t.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return DialectFor(req.Dialect).ParseResponse(resp.Body)
}
