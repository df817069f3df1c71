package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockProviderName = "mock"

// MockReply is one scripted transport outcome. Err takes precedence over Text.
type MockReply struct {
	Text string
	Err  error
	// Raw, when set, is returned verbatim as the body instead of wrapping Text.
	Raw []byte
}

// MockTransport is a Transport for testing. Replies are consumed in order;
// once exhausted the last reply repeats.
type MockTransport struct {
	Latency time.Duration
	Replies []MockReply

	mu       sync.Mutex
	requests []*Request

	requestCount atomic.Int64
}

// NewMockTransport creates a mock that answers with texts in order.
func NewMockTransport(texts ...string) *MockTransport {
	m := &MockTransport{}
	for _, text := range texts {
		m.Replies = append(m.Replies, MockReply{Text: text})
	}
	return m
}

// Send records req and returns the next scripted reply wrapped in the
// request dialect's envelope.
func (m *MockTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	count := m.requestCount.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, &TransportError{Provider: MockProviderName, Timeout: true, Err: ctx.Err()}
		case <-time.After(m.Latency):
		}
	}

	if len(m.Replies) == 0 {
		return nil, &TransportError{Provider: MockProviderName, Err: fmt.Errorf("no scripted replies")}
	}
	idx := int(count) - 1
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	reply := m.Replies[idx]
	if reply.Err != nil {
		return nil, reply.Err
	}

	body := reply.Raw
	if body == nil {
		var err error
		body, err = MockEnvelope(req.Dialect, reply.Text)
		if err != nil {
			return nil, err
		}
	}

	return &Response{
		RequestID:  req.ID,
		StatusCode: 200,
		Body:       body,
		Latency:    time.Since(start),
	}, nil
}

// RequestCount returns the number of Send calls.
func (m *MockTransport) RequestCount() int {
	return int(m.requestCount.Load())
}

// Requests returns the recorded requests in order.
func (m *MockTransport) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Request(nil), m.requests...)
}

// MockEnvelope wraps text in the response envelope of dialect.
func MockEnvelope(dialect DialectKind, text string) ([]byte, error) {
	var v any
	switch dialect {
	case DialectAnthropic:
		v = map[string]any{
			"id":      "msg_mock",
			"type":    "message",
			"content": []map[string]any{{"type": "text", "text": text}},
		}
	default:
		v = map[string]any{
			"id":    "chatcmpl-mock",
			"model": MockProviderName,
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			}},
		}
	}
	return json.Marshal(v)
}
