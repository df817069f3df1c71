package providers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DialectKind names a wire protocol family.
type DialectKind string

const (
	// DialectOpenAI is the chat-completions shape spoken by OpenAI and most
	// OpenAI-compatible vendors.
	DialectOpenAI DialectKind = "openai"
	// DialectAnthropic is the Anthropic messages shape.
	DialectAnthropic DialectKind = "anthropic"
)

const anthropicVersion = "2023-06-01"

// Prompt is the provider-independent content of one vision request.
type Prompt struct {
	System      string
	Instruction string
	Image       []byte
	MIME        string
}

// Sampling carries the model parameters that go into the payload.
type Sampling struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Dialect encodes requests and decodes responses for one wire protocol.
// The set is closed: OpenAICompatible and AnthropicCompatible.
type Dialect interface {
	Kind() DialectKind
	BuildPayload(s Sampling, p Prompt) ([]byte, error)
	BuildHeaders(apiKey string) http.Header
	ParseResponse(body []byte) (string, error)
}

// DialectFor returns the dialect for kind. Unknown kinds fall back to
// OpenAI-compatible.
func DialectFor(kind DialectKind) Dialect {
	if kind == DialectAnthropic {
		return AnthropicCompatible{}
	}
	return OpenAICompatible{}
}

// OpenAI chat-completions wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []chatContent
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

// OpenAICompatible speaks the chat-completions protocol with the image as a
// base64 data URI.
type OpenAICompatible struct{}

func (OpenAICompatible) Kind() DialectKind { return DialectOpenAI }

func (OpenAICompatible) BuildPayload(s Sampling, p Prompt) ([]byte, error) {
	messages := make([]chatMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.System})
	}
	messages = append(messages, chatMessage{
		Role: "user",
		Content: []chatContent{
			{Type: "text", Text: p.Instruction},
			{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI(p.MIME, p.Image)}},
		},
	})

	body, err := json.Marshal(chatRequest{
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

func (OpenAICompatible) BuildHeaders(apiKey string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+apiKey)
	return h
}

func (OpenAICompatible) ParseResponse(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ResponseShapeError{Dialect: DialectOpenAI, Reason: "body is not JSON", Err: err}
	}
	if resp.Error != nil && len(resp.Choices) == 0 {
		return "", &ResponseShapeError{Dialect: DialectOpenAI, Reason: "api error: " + resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return "", &ResponseShapeError{Dialect: DialectOpenAI, Reason: "no choices in response"}
	}

	text, ok := contentText(resp.Choices[0].Message.Content)
	if !ok {
		return "", &ResponseShapeError{Dialect: DialectOpenAI, Reason: "choices[0].message.content missing"}
	}
	return text, nil
}

// contentText handles both string content and the array-of-parts form some
// compatible vendors return.
func contentText(content any) (string, bool) {
	switch c := content.(type) {
	case string:
		return c, true
	case []any:
		var parts []string
		for _, part := range c {
			m, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				parts = append(parts, text)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ""), true
	default:
		return "", false
	}
}

// Anthropic messages wire types

type messagesRequest struct {
	Model       string             `json:"model"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnthropicCompatible speaks the messages protocol with a top-level system
// prompt and a base64 image block.
type AnthropicCompatible struct{}

func (AnthropicCompatible) Kind() DialectKind { return DialectAnthropic }

func (AnthropicCompatible) BuildPayload(s Sampling, p Prompt) ([]byte, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		System:      p.System,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicContent{
				{Type: "text", Text: p.Instruction},
				{Type: "image", Source: &anthropicImageSource{
					Type:      "base64",
					MediaType: p.MIME,
					Data:      base64.StdEncoding.EncodeToString(p.Image),
				}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

func (AnthropicCompatible) BuildHeaders(apiKey string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("x-api-key", apiKey)
	h.Set("anthropic-version", anthropicVersion)
	return h
}

func (AnthropicCompatible) ParseResponse(body []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ResponseShapeError{Dialect: DialectAnthropic, Reason: "body is not JSON", Err: err}
	}
	if resp.Error != nil {
		return "", &ResponseShapeError{Dialect: DialectAnthropic, Reason: "api error: " + resp.Error.Message}
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", &ResponseShapeError{Dialect: DialectAnthropic, Reason: "no text content blocks"}
	}
	return strings.Join(parts, ""), nil
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
