// Package agent forwards generation requests to external providers. It
// only reshapes payloads; prompts and keys pass through untouched.
package agent

import (
	"fmt"
	"net/http"

	apperrors "secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/config"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

func (p Provider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderGemini
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	openAIChatModel  = "gpt-4o-mini"
	geminiChatModel  = "gemini-1.5-flash"
	geminiImageModel = "gemini-2.5-flash-image-preview"

	maxOutputTokens = 256
)

// UpstreamError carries a provider's non-2xx response back to the handler
// so the original status can be surfaced.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

type Service struct {
	client        *http.Client
	openAIBaseURL string
	geminiBaseURL string
}

func NewService(cfg config.AgentConfig) *Service {
	s := &Service{
		client:        &http.Client{Timeout: cfg.Timeout},
		openAIBaseURL: cfg.OpenAIBaseURL,
		geminiBaseURL: cfg.GeminiBaseURL,
	}
	if s.openAIBaseURL == "" {
		s.openAIBaseURL = defaultOpenAIBaseURL
	}
	if s.geminiBaseURL == "" {
		s.geminiBaseURL = defaultGeminiBaseURL
	}
	return s
}

// ResolveKey prefers the user's stored key and falls back to a key supplied
// in the request body.
func ResolveKey(storedKey, requestKey string, provider Provider) (string, error) {
	if storedKey != "" {
		return storedKey, nil
	}
	if requestKey != "" {
		return requestKey, nil
	}
	return "", apperrors.Wrap(apperrors.ErrValidation, fmt.Sprintf("missing API key for %s", provider))
}
