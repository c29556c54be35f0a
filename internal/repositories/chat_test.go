package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarityhub/internal/config"
)

func testAPIConfig(url string) *config.APIConfig {
	return &config.APIConfig{
		URL:            url,
		Key:            "test-key",
		Model:          "clarityhub",
		TimeoutSeconds: 5,
		MaxTokens:      4096,
		Temperature:    0.2,
	}
}

func completionBody(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

func TestCompleteRequestShape(t *testing.T) {
	var captured map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	got, err := repo.Complete(context.Background(), []Message{TextMessage("user", "hello")}, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	assert.Equal(t, false, captured["stream"])
	assert.Equal(t, "clarityhub", captured["model"])
	assert.Equal(t, 0.2, captured["temperature"])
	assert.Equal(t, float64(4096), captured["max_tokens"])

	features := captured["features"].(map[string]interface{})
	assert.Equal(t, false, features["image_generation"])
	assert.Equal(t, false, features["code_interpreter"])
	assert.Equal(t, false, features["web_search"])

	format := captured["response_format"].(map[string]interface{})
	assert.Equal(t, "json_object", format["type"])
}

func TestCompleteOmitsResponseFormatWithoutJSONMode(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	_, err := repo.Complete(context.Background(), []Message{TextMessage("user", "hello")}, false)
	require.NoError(t, err)

	_, present := captured["response_format"]
	assert.False(t, present)
}

func TestCompleteMultimodalContent(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string            `json:"role"`
			Content []json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer server.Close()

	parts := []ContentPart{
		TextPart("describe this"),
		ImagePart("data:image/png;base64,AAAA"),
	}
	repo := NewChatRepository(testAPIConfig(server.URL))
	_, err := repo.Complete(context.Background(), []Message{MultimodalMessage("user", parts)}, false)
	require.NoError(t, err)

	require.Len(t, captured.Messages, 1)
	require.Len(t, captured.Messages[0].Content, 2)
	assert.Contains(t, string(captured.Messages[0].Content[0]), `"type":"text"`)
	assert.Contains(t, string(captured.Messages[0].Content[1]), `data:image/png;base64,AAAA`)
}

func TestCompleteTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	_, err := repo.Complete(context.Background(), []Message{TextMessage("user", "hello")}, false)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.Contains(t, transportErr.Body, "upstream unavailable")
}

func TestCompleteEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	_, err := repo.Complete(context.Background(), []Message{TextMessage("user", "hello")}, false)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func streamFrame(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

func TestCompleteStreamAccumulatesDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// One logical stream written in arbitrary network chunks, including a
		// flush in the middle of a frame.
		whole := streamFrame("Hello") + streamFrame(", ") + streamFrame("world") + "data: [DONE]\n\n"
		for i := 0; i < len(whole); i += 7 {
			end := i + 7
			if end > len(whole) {
				end = len(whole)
			}
			fmt.Fprint(w, whole[i:end])
			flusher.Flush()
		}
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	events, err := repo.CompleteStream(context.Background(), []Message{TextMessage("user", "hello")}, false)
	require.NoError(t, err)

	var deltas []string
	var full strings.Builder
	for event := range events {
		require.NoError(t, event.Err)
		deltas = append(deltas, event.Delta)
		full.WriteString(event.Delta)
	}

	assert.Equal(t, []string{"Hello", ", ", "world"}, deltas)
	assert.Equal(t, "Hello, world", full.String())
}

func TestCompleteStreamSkipsMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, streamFrame("good"))
		fmt.Fprint(w, "data: {not valid json}\n\n")
		fmt.Fprint(w, ": heartbeat comment\n\n")
		fmt.Fprint(w, streamFrame("still good"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	events, err := repo.CompleteStream(context.Background(), []Message{TextMessage("user", "hello")}, false)
	require.NoError(t, err)

	var full strings.Builder
	for event := range events {
		require.NoError(t, event.Err)
		full.WriteString(event.Delta)
	}
	assert.Equal(t, "goodstill good", full.String())
}

func TestCompleteStreamHTTPFailureAtOutset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	_, err := repo.CompleteStream(context.Background(), []Message{TextMessage("user", "hello")}, false)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
}

func TestCompleteStreamEndsWithoutSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, streamFrame("partial"))
		// Connection closes without a [DONE] frame.
	}))
	defer server.Close()

	repo := NewChatRepository(testAPIConfig(server.URL))
	events, err := repo.CompleteStream(context.Background(), []Message{TextMessage("user", "hello")}, false)
	require.NoError(t, err)

	var full strings.Builder
	for event := range events {
		require.NoError(t, event.Err)
		full.WriteString(event.Delta)
	}
	assert.Equal(t, "partial", full.String())
}
