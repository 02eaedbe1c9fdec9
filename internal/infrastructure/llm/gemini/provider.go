package gemini

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/domain/entity"
)

// ModelInfo describes a catalog model able to generate content.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Config configures the Gemini client.
type Config struct {
	BaseURL string
	APIKey  string
}

// Provider implements the Google Gemini API natively.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Google Gemini API client.
func New(cfg Config, logger *zap.Logger) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 300 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Provider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Transport: transport},
		logger:  logger.With(zap.String("provider", "gemini")),
	}
}

// Generate sends the full turn history to the model and returns the reply
// text. The call is synchronous; the caller blocks until the provider
// responds.
func (p *Provider) Generate(ctx context.Context, model string, turns []entity.Turn) (string, error) {
	apiReq := &Request{}
	for _, turn := range turns {
		apiReq.Contents = append(apiReq.Contents, Content{
			Role:  string(turn.Role),
			Parts: []Part{{Text: turn.Text}},
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error %d: %s", resp.StatusCode, string(respBody))
	}

	return parseReply(respBody)
}

// ListModels returns the model catalog filtered to entries that support
// content generation, paging through the full listing.
func (p *Provider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var infos []ModelInfo
	pageToken := ""

	for {
		reqURL := fmt.Sprintf("%s/v1beta/models?key=%s&pageSize=100", p.baseURL, url.QueryEscape(p.apiKey))
		if pageToken != "" {
			reqURL += "&pageToken=" + url.QueryEscape(pageToken)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Gemini API error %d: %s", resp.StatusCode, string(respBody))
		}

		var page ModelsResponse
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("parse models response: %w", err)
		}

		for _, m := range page.Models {
			if !m.SupportsGeneration() {
				continue
			}
			infos = append(infos, ModelInfo{
				Name:        m.Name,
				DisplayName: m.DisplayName,
				Description: m.Description,
			})
		}

		if page.NextPageToken == "" {
			return infos, nil
		}
		pageToken = page.NextPageToken
	}
}

func parseReply(body []byte) (string, error) {
	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse Gemini response: %w", err)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("empty Gemini response: no candidates")
	}

	candidate := apiResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", fmt.Errorf("Gemini response blocked by safety filter")
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if part.Thought != nil && *part.Thought {
			continue
		}
		text += part.Text
	}

	if text == "" {
		return "", fmt.Errorf("empty Gemini response: no text parts")
	}
	return text, nil
}
