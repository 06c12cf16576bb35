package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHFEndpoint = "https://api-inference.huggingface.co/models"
	DefaultHFModel    = "mistralai/Mistral-7B-Instruct-v0.2"
)

// HuggingFaceClient calls the hosted Inference API text-generation task.
type HuggingFaceClient struct {
	httpClient *http.Client
	token      string
	endpoint   string
}

// NewHuggingFaceClient builds a client; an empty endpoint targets the public API.
func NewHuggingFaceClient(token, endpoint string, httpTimeout time.Duration) *HuggingFaceClient {
	if endpoint == "" {
		endpoint = defaultHFEndpoint
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &HuggingFaceClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		token:      token,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Generate posts the joined prompt as "inputs" and returns the first
// generated_text as is.
func (c *HuggingFaceClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.token == "" {
		return nil, errors.New("HF_API_TOKEN is missing")
	}
	if req.Model == "" {
		req.Model = DefaultHFModel
	}
	prompt := req.Prompt()
	if prompt == "" {
		return nil, errors.New("messages cannot be empty")
	}
	hreq := hfRequest{Inputs: prompt}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		hreq.Parameters = map[string]any{}
		if req.MaxTokens > 0 {
			hreq.Parameters["max_new_tokens"] = req.MaxTokens
		}
		if req.Temperature > 0 {
			hreq.Parameters["temperature"] = req.Temperature
		}
	}
	payload, err := json.Marshal(hreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+req.Model, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyAPIError(decodeAPIError(resp), resp)
	}
	var out []hfGeneration
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return textResponse(out[0].GeneratedText, extractRequestID(resp)), nil
}
