package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/tracing"
)

type aiService struct {
	cfg    *config.OpenAIConfig
	client *http.Client
}

func NewAIService(cfg *config.OpenAIConfig) interfaces.AIService {
	return &aiService{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *aiService) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.Url+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "unable to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err = json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if response.Error != nil {
		return "", errors.Errorf("completion API returned error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("completion API returned no choices")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (s *aiService) GenerateDomainName(ctx context.Context, request interfaces.DomainNameRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aiService.GenerateDomainName")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "request", request)

	if s.cfg.ApiKey == "" {
		err := errors.Wrap(er.ErrNotConfigured, "completion API")
		tracing.TraceErr(span, err)
		return "", err
	}

	systemPrompt := "You are a brandable domain name generator. " +
		"Reply with exactly one domain name and nothing else: no quotes, no explanation, no list."

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Generate one domain name for a website about %q.", request.Niche)
	if request.Language != "" {
		fmt.Fprintf(&prompt, " The name must read naturally in %s.", request.Language)
	}
	if request.WordCount > 0 {
		fmt.Fprintf(&prompt, " Use at most %d words, concatenated without separators.", request.WordCount)
	}
	fmt.Fprintf(&prompt, " The name must end with .%s and contain only lowercase letters and digits before the dot.", request.TLD)
	if request.Diversify {
		prompt.WriteString(" Earlier suggestions were taken; produce something clearly different, be creative.")
	}

	candidate, err := s.complete(ctx, systemPrompt, prompt.String(), 1.0)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	candidate = strings.ToLower(strings.Trim(candidate, "\"'` ."))
	span.LogKV("result.candidate", candidate)

	return candidate, nil
}

func (s *aiService) Translate(ctx context.Context, text, language string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aiService.Translate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("language", language)

	if s.cfg.ApiKey == "" {
		err := errors.Wrap(er.ErrNotConfigured, "completion API")
		tracing.TraceErr(span, err)
		return "", err
	}
	if language == "" || strings.EqualFold(language, "english") {
		return text, nil
	}

	systemPrompt := "You translate short status messages. " +
		"Reply with the translation only, preserving any domain names verbatim."
	userPrompt := fmt.Sprintf("Translate into %s: %s", language, text)

	translated, err := s.complete(ctx, systemPrompt, userPrompt, 0.2)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	span.LogKV("result", translated)

	return translated, nil
}
