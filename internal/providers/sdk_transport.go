package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// SDKTransport sends the prebuilt payload through the official vendor SDK
// clients: openai-go for OpenAI-compatible endpoints and anthropic-sdk-go
// for Anthropic ones. SDK-level retries are disabled; the recognition loop
// owns the retry budget.
type SDKTransport struct {
	httpClient *http.Client
}

// NewSDKTransport creates an SDK transport. A nil client uses the SDK default.
func NewSDKTransport(httpClient *http.Client) *SDKTransport {
	return &SDKTransport{httpClient: httpClient}
}

// Send posts req.Payload to req.Endpoint through the dialect's SDK client.
func (t *SDKTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	base, err := baseURL(req.Endpoint)
	if err != nil {
		return nil, &TransportError{Provider: req.Provider, Err: err}
	}

	var body []byte
	switch req.Dialect {
	case DialectAnthropic:
		err = t.sendAnthropic(ctx, req, base, &body)
	default:
		err = t.sendOpenAI(ctx, req, base, &body)
	}
	if err != nil {
		return nil, t.mapError(req, err)
	}

	return &Response{
		RequestID:  req.ID,
		StatusCode: http.StatusOK,
		Body:       body,
		Latency:    time.Since(start),
	}, nil
}

func (t *SDKTransport) sendOpenAI(ctx context.Context, req *Request, base string, body *[]byte) error {
	client := openai.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
	)
	opts := []option.RequestOption{
		option.WithRequestBody("application/json", bytes.NewReader(req.Payload)),
	}
	if req.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(req.Timeout))
	}
	if t.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(t.httpClient))
	}
	return client.Post(ctx, req.Endpoint, nil, body, opts...)
}

func (t *SDKTransport) sendAnthropic(ctx context.Context, req *Request, base string, body *[]byte) error {
	client := anthropic.NewClient(
		anthropicoption.WithAPIKey(req.APIKey),
		anthropicoption.WithBaseURL(base),
		anthropicoption.WithMaxRetries(0),
	)
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithRequestBody("application/json", bytes.NewReader(req.Payload)),
	}
	if req.Timeout > 0 {
		opts = append(opts, anthropicoption.WithRequestTimeout(req.Timeout))
	}
	if t.httpClient != nil {
		opts = append(opts, anthropicoption.WithHTTPClient(t.httpClient))
	}
	return client.Post(ctx, req.Endpoint, nil, body, opts...)
}

func (t *SDKTransport) mapError(req *Request, err error) error {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return &TransportError{
			Provider:   req.Provider,
			StatusCode: oaiErr.StatusCode,
			Body:       truncateBody([]byte(oaiErr.RawJSON())),
			Err:        err,
		}
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return &TransportError{
			Provider:   req.Provider,
			StatusCode: antErr.StatusCode,
			Body:       truncateBody([]byte(antErr.RawJSON())),
			Err:        err,
		}
	}
	return &TransportError{
		Provider: req.Provider,
		Timeout:  isTimeout(err),
		Err:      fmt.Errorf("request failed: %w", err),
	}
}

// baseURL returns scheme://host/ for endpoint. The SDK resolves the full
// endpoint URL against it, so the path is kept exactly as configured.
func baseURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: absolute URL required", endpoint)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}
