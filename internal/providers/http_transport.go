package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransport posts the request payload with net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an HTTP transport. A nil client uses a fresh
// http.Client; the per-request timeout comes from Request.Timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client}
}

// Send posts req.Payload to req.Endpoint.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(req.Payload))
	if err != nil {
		return nil, &TransportError{Provider: req.Provider, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{
			Provider: req.Provider,
			Timeout:  isTimeout(err),
			Err:      fmt.Errorf("request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{
			Provider: req.Provider,
			Timeout:  isTimeout(err),
			Err:      fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Provider:   req.Provider,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
		}
	}

	return &Response{
		RequestID:  req.ID,
		StatusCode: resp.StatusCode,
		Body:       body,
		Latency:    time.Since(start),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
