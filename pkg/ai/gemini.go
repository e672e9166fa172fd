package ai

import (
	"Prazo-Certo/domain"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

type (
	GeminiConfig struct {
		APIKey  string
		Model   string
		BaseURL string
		Timeout time.Duration
	}

	// Gemini calls the generateContent endpoint and returns the text of the
	// first candidate.
	Gemini struct {
		config     GeminiConfig
		httpClient *http.Client
	}

	geminiPart struct {
		Text       string            `json:"text,omitempty"`
		InlineData *geminiInlineData `json:"inline_data,omitempty"`
	}

	geminiInlineData struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
)

func NewGemini(config GeminiConfig) *Gemini {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &Gemini{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func textPart(text string) geminiPart {
	return geminiPart{Text: text}
}

func imagePart(image []byte, mimeType string) geminiPart {
	return geminiPart{InlineData: &geminiInlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(image),
	}}
}

func (g *Gemini) generateContent(ctx context.Context, parts ...geminiPart) (string, error) {
	if g.config.APIKey == "" {
		return "", domain.ErrGeminiNotConfigured
	}

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.2,
			"topP":             0.8,
			"topK":             40,
			"responseMimeType": "application/json",
		},
	}
	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.config.BaseURL, url.PathEscape(g.config.Model), url.QueryEscape(g.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini API error: %s - %s", resp.Status, string(bodyBytes))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", err
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", domain.ErrGeminiProcessingFailed
	}
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

var jsonPattern = regexp.MustCompile(`(?s)[\[{].*[\]}]`)

// extractJSON strips markdown fences and prose around the JSON payload.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	if match := jsonPattern.FindString(text); match != "" {
		return match
	}
	return strings.TrimSpace(text)
}
