package repositories

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clarityhub/internal/config"
)

// TransportError indicates a non-success HTTP status or a failed network
// exchange with the chat endpoint
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat API request failed: %v", e.Err)
	}
	return fmt.Sprintf("chat API returned status %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates a successful exchange that produced no
// assistant text
var ErrEmptyResponse = errors.New("empty response from chat API")

// Message is one entry of the conversation sent to the endpoint. Content is
// either a plain string or a []ContentPart for multimodal requests.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one fragment of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef carries an inline image as a data URL
type ImageRef struct {
	URL string `json:"url"`
}

// TextMessage builds a plain text message
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// MultimodalMessage builds a message from mixed text and image parts
func MultimodalMessage(role string, parts []ContentPart) Message {
	return Message{Role: role, Content: parts}
}

// TextPart builds a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an inline image content part from a data URL
func ImagePart(dataURL string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageRef{URL: dataURL}}
}

type completionFeatures struct {
	ImageGeneration bool `json:"image_generation"`
	CodeInterpreter bool `json:"code_interpreter"`
	WebSearch       bool `json:"web_search"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Stream         bool               `json:"stream"`
	Model          string             `json:"model"`
	Messages       []Message          `json:"messages"`
	Features       completionFeatures `json:"features"`
	Temperature    float64            `json:"temperature"`
	MaxTokens      int                `json:"max_tokens"`
	ResponseFormat *responseFormat    `json:"response_format,omitempty"`
}

// StreamEvent is one increment of a streamed completion. A non-nil Err is
// terminal; channel close signals normal completion.
type StreamEvent struct {
	Delta string
	Err   error
}

// ChatRepository handles requests against the remote chat completion endpoint
type ChatRepository struct {
	config *config.APIConfig
	client *http.Client
}

// NewChatRepository creates a repository over the configured endpoint
func NewChatRepository(apiConfig *config.APIConfig) *ChatRepository {
	return &ChatRepository{
		config: apiConfig,
		client: &http.Client{
			Timeout: time.Duration(apiConfig.TimeoutSeconds) * time.Second,
		},
	}
}

func (r *ChatRepository) newRequest(ctx context.Context, messages []Message, stream, jsonMode bool) (*http.Request, error) {
	body := completionRequest{
		Stream:      stream,
		Model:       r.config.Model,
		Messages:    messages,
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxTokens,
	}
	if jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.Key)

	return req, nil
}

// Complete sends a message list in single-shot mode and returns the full
// text of the first choice.
func (r *ChatRepository) Complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	req, err := r.newRequest(ctx, messages, false, jsonMode)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("failed to decode API response: %w", err)
	}

	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return apiResponse.Choices[0].Message.Content, nil
}

// CompleteStream sends the same request shape with streaming enabled and
// returns a channel of incremental text deltas. The HTTP status is checked
// before the channel is handed out, so an at-outset failure surfaces as an
// ordinary error return. Malformed frames are skipped; only a failed body
// read terminates the stream with an error event.
func (r *ChatRepository) CompleteStream(ctx context.Context, messages []Message, jsonMode bool) (<-chan StreamEvent, error) {
	req, err := r.newRequest(ctx, messages, true, jsonMode)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}

			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var frame struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				// Tolerate a garbled frame; the stream as a whole survives.
				continue
			}

			if len(frame.Choices) == 0 || frame.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case events <- StreamEvent{Delta: frame.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case events <- StreamEvent{Err: &TransportError{Err: err}}:
			case <-ctx.Done():
			}
		}
	}()

	return events, nil
}
