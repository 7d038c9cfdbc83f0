package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "secondbrain/internal/pkg/errors"
)

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64, no data: prefix
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (s *Service) geminiGenerate(ctx context.Context, model string, reqBody geminiRequest, apiKey string) (*geminiResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.geminiBaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) geminiChat(ctx context.Context, prompt, apiKey string) (string, error) {
	resp, err := s.geminiGenerate(ctx, geminiChatModel, geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{MaxOutputTokens: maxOutputTokens},
	}, apiKey)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

// ChatText forwards a text prompt to the chosen provider and returns the
// generated text.
func (s *Service) ChatText(ctx context.Context, provider Provider, prompt, apiKey string) (string, error) {
	if prompt == "" {
		return "", apperrors.Wrap(apperrors.ErrValidation, "prompt is required")
	}
	switch provider {
	case ProviderOpenAI:
		return s.openAIChat(ctx, prompt, apiKey)
	case ProviderGemini:
		return s.geminiChat(ctx, prompt, apiKey)
	default:
		return "", apperrors.Wrap(apperrors.ErrValidation, "unsupported provider")
	}
}

// ImageInput is an inline image supplied alongside the prompt.
type ImageInput struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// ImageResult holds the generated image as a data URI, plus any descriptive
// text the model produced.
type ImageResult struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

// GenerateImage asks Gemini's image model for a picture. When the model
// answers with text only, that text is returned instead of an error.
func (s *Service) GenerateImage(ctx context.Context, prompt string, images []ImageInput, apiKey string) (*ImageResult, error) {
	if prompt == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "prompt is required")
	}

	parts := []geminiPart{{Text: prompt}}
	for _, img := range images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: mime, Data: img.Data}})
	}

	resp, err := s.geminiGenerate(ctx, geminiImageModel, geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}, apiKey)
	if err != nil {
		return nil, err
	}

	result := &ImageResult{}
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" && result.Image == "" {
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				result.Image = fmt.Sprintf("data:%s;base64,%s", mime, part.InlineData.Data)
				continue
			}
			if part.Text != "" {
				if result.Text != "" {
					result.Text += "\n"
				}
				result.Text += part.Text
			}
		}
	}

	if result.Image == "" && result.Text == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "no image returned from provider")
	}
	return result, nil
}
