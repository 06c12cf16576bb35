package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// GeminiClient calls the Google Generative Language generateContent API.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewGeminiClient builds a client; an empty endpoint targets the public API.
func NewGeminiClient(apiKey, endpoint string, httpTimeout time.Duration) *GeminiClient {
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	ResponseID string `json:"responseId"`
}

// Generate sends the messages as a single-turn generateContent call. System
// messages become the system instruction.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is missing")
	}
	if req.Model == "" {
		req.Model = DefaultGeminiModel
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	greq := geminiRequest{}
	for _, m := range req.Messages {
		if m.Role == "system" {
			greq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			continue
		}
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		greq.Contents = append(greq.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		greq.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens, Temperature: req.Temperature}
	}
	payload, err := json.Marshal(greq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s:generateContent", c.endpoint, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyAPIError(decodeAPIError(resp), resp)
	}
	var gresp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gresp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if gresp.PromptFeedback != nil && gresp.PromptFeedback.BlockReason != "" {
		return nil, &BadRequestError{APIError: &APIError{StatusCode: resp.StatusCode, Code: gresp.PromptFeedback.BlockReason, Message: "prompt blocked"}}
	}
	if len(gresp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range gresp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return nil, ErrEmptyResponse
	}
	rid := gresp.ResponseID
	if rid == "" {
		rid = extractRequestID(resp)
	}
	return textResponse(b.String(), rid), nil
}
