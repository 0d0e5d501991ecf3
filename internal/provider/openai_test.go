package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIProvider("openai", server.URL, "test-key", server.Client())
}

func TestStreamChat_ReceivesDeltas(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := provider.StreamChat(context.Background(), ChatRequest{Model: "gpt-test", Prompt: "hi"})
	require.NoError(t, err)
	defer stream.Close()

	var chunks []string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []string{"Hello", " world"}, chunks)
}

func TestStreamChat_FinishReasonEndsStream(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"done\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		// No [DONE] marker; the finish_reason alone must end the stream
	})

	stream, err := provider.StreamChat(context.Background(), ChatRequest{Model: "gpt-test", Prompt: "hi"})
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "done", chunk)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStreamChat_SkipsMalformedChunks(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json at all\n\n")
		fmt.Fprint(w, "data: {\"choices\":[]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"survived\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := provider.StreamChat(context.Background(), ChatRequest{Model: "gpt-test", Prompt: "hi"})
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "survived", chunk)
}

func TestCompleteChat_ReturnsContent(t *testing.T) {
	var gotBody chatCompletionRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"<html></html>"}}]}`)
	})

	content, err := provider.CompleteChat(context.Background(), ChatRequest{
		Model:         "gpt-test",
		Prompt:        "convert this",
		SystemContext: "you are a frontend engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", content)

	assert.False(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
}

func TestCompleteChat_EmptyChoices(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	_, err := provider.CompleteChat(context.Background(), ChatRequest{Model: "gpt-test", Prompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteChat_EmbedsImageAsDataURI(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("\x89PNGpixels"), 0o644))

	var raw map[string]interface{}
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	})

	_, err := provider.CompleteChat(context.Background(), ChatRequest{
		Model:     "vision-test",
		Prompt:    "reproduce this page",
		ImagePath: imagePath,
	})
	require.NoError(t, err)

	messages := raw["messages"].([]interface{})
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, parts, 2)

	textPart := parts[0].(map[string]interface{})
	assert.Equal(t, "text", textPart["type"])
	assert.Equal(t, "reproduce this page", textPart["text"])

	imagePart := parts[1].(map[string]interface{})
	assert.Equal(t, "image_url", imagePart["type"])
	url := imagePart["image_url"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestGenerateImage_ReturnsURL(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)

		var req imageGenerationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1, req.N)
		assert.Equal(t, "1024x1024", req.Size)

		fmt.Fprint(w, `{"data":[{"url":"https://cdn.example.com/generated.png"}]}`)
	})

	url, err := provider.GenerateImage(context.Background(), ImageRequest{
		Model:  "img-test",
		Prompt: "a red square",
		Size:   "1024x1024",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/generated.png", url)
}

func TestGenerateImage_EmptyData(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := provider.GenerateImage(context.Background(), ImageRequest{Model: "img-test", Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSend_SurfacesAPIErrorMessage(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	})

	_, err := provider.CompleteChat(context.Background(), ChatRequest{Model: "gpt-test", Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestSend_StatusOnlyWhenBodyUnparseable(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream exploded")
	})

	_, err := provider.CompleteChat(context.Background(), ChatRequest{Model: "gpt-test", Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestEncodeImageFile_ExtensionHandling(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		filename   string
		wantPrefix string
	}{
		{filename: "shot.png", wantPrefix: "data:image/png;base64,"},
		{filename: "shot.jpg", wantPrefix: "data:image/jpeg;base64,"},
		{filename: "shot.jpeg", wantPrefix: "data:image/jpeg;base64,"},
		{filename: "shot", wantPrefix: "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			path := filepath.Join(dir, tt.filename)
			require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o644))

			uri, err := encodeImageFile(path)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(uri, tt.wantPrefix), uri)
		})
	}
}
