package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/utils"
)

// OpenAIProvider talks to any OpenAI-compatible chat/images API
type OpenAIProvider struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider against an OpenAI-compatible base URL
func NewOpenAIProvider(name, baseURL, apiKey string, client *http.Client) *OpenAIProvider {
	return &OpenAIProvider{
		name:       name,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// Name implements ModelProvider
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Wire types for the OpenAI-compatible chat completions endpoint

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *imageURLValue `json:"image_url,omitempty"`
}

type imageURLValue struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type imageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StreamChat implements ModelProvider
func (p *OpenAIProvider) StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error) {
	body, err := p.buildChatBody(req, true)
	if err != nil {
		return nil, err
	}

	resp, err := p.send(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	logger.Debug(logger.WithComponent(ctx, "OpenAIProvider"), "Chat stream opened",
		"provider", p.name,
		"model", req.Model,
	)

	return &sseStream{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

// CompleteChat implements ModelProvider
func (p *OpenAIProvider) CompleteChat(ctx context.Context, req ChatRequest) (string, error) {
	body, err := p.buildChatBody(req, false)
	if err != nil {
		return "", err
	}

	resp, err := p.send(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return completion.Choices[0].Message.Content, nil
}

// GenerateImage implements ModelProvider
func (p *OpenAIProvider) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	body, err := json.Marshal(imageGenerationRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		N:      1,
		Size:   req.Size,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	resp, err := p.send(ctx, "/images/generations", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var generation imageGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&generation); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}
	if len(generation.Data) == 0 || generation.Data[0].URL == "" {
		return "", ErrEmptyResponse
	}

	return generation.Data[0].URL, nil
}

// buildChatBody assembles the messages array. An attached image is embedded
// as a base64 data URI content part so vision models see the actual pixels.
func (p *OpenAIProvider) buildChatBody(req ChatRequest, stream bool) ([]byte, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemContext != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemContext})
	}

	if req.ImagePath != "" {
		dataURI, err := encodeImageFile(req.ImagePath)
		if err != nil {
			return nil, err
		}
		messages = append(messages, chatMessage{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURLValue{URL: dataURI}},
			},
		})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	return body, nil
}

// send posts body to the provider endpoint and maps non-200 responses to
// errors. The caller owns resp.Body on success.
func (p *OpenAIProvider) send(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)
	req.Header.Set(utils.HeaderAuthorization, "Bearer "+p.apiKey)
	req.Header.Set(utils.HeaderUserAgent, utils.ServiceName)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s unreachable: %w", p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		var apiErr apiErrorResponse
		if json.Unmarshal(errBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("provider %s returned status %d: %s", p.name, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("provider %s returned status %d", p.name, resp.StatusCode)
	}

	return resp, nil
}

// encodeImageFile reads a local image and embeds it as a data URI
func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	if ext == "" {
		ext = "png"
	}

	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// sseStream reads text deltas off an OpenAI-style SSE response body
type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// Recv implements ChatStream. Lines that are not data frames or carry no
// delta content are skipped rather than surfaced.
func (s *sseStream) Recv() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", fmt.Errorf("error reading stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return "", io.EOF
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Skip malformed chunks the same way a browser EventSource would
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
		if chunk.Choices[0].FinishReason != nil {
			return "", io.EOF
		}
	}
}

// Close implements ChatStream
func (s *sseStream) Close() error {
	return s.body.Close()
}
