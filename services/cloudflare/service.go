package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/tracing"
)

type cloudflareService struct {
	cfg    *config.CloudflareConfig
	client *http.Client
}

func NewCloudflareService(cfg *config.CloudflareConfig) interfaces.DNSService {
	return &cloudflareService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *cloudflareService) Configured() bool {
	return s.cfg.ApiKey != "" && s.cfg.Email != ""
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func combineMessages(messages []apiMessage) string {
	text := ""
	for i, m := range messages {
		if i > 0 {
			text += "; "
		}
		text += fmt.Sprintf("%d: %s", m.Code, m.Message)
	}
	return text
}

func (s *cloudflareService) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode Cloudflare request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.Url+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build Cloudflare request")
	}
	req.Header.Set("X-Auth-Email", s.cfg.Email)
	req.Header.Set("X-Auth-Key", s.cfg.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call Cloudflare API")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Cloudflare response")
	}
	return responseBody, nil
}

func (s *cloudflareService) CreateZone(ctx context.Context, domain string) (*interfaces.DNSZone, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CloudflareService.CreateZone")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Cloudflare API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	payload := map[string]any{
		"name":       domain,
		"jump_start": true,
	}
	responseBody, err := s.do(ctx, http.MethodPost, "/zones", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Success bool               `json:"success"`
		Errors  []apiMessage       `json:"errors"`
		Result  interfaces.DNSZone `json:"result"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Cloudflare response"))
		return nil, err
	}
	if !result.Success {
		err = errors.Errorf("Cloudflare API returned errors: %s", combineMessages(result.Errors))
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogKV("result.zoneID", result.Result.ID)

	return &result.Result, nil
}

func (s *cloudflareService) CreateARecord(ctx context.Context, zoneID, name, content string, proxied bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CloudflareService.CreateARecord")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("zoneID", zoneID, "name", name, "content", content)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Cloudflare API")
		tracing.TraceErr(span, err)
		return err
	}

	payload := map[string]any{
		"type":    "A",
		"name":    name,
		"content": content,
		"ttl":     1,
		"proxied": proxied,
	}
	responseBody, err := s.do(ctx, http.MethodPost, "/zones/"+zoneID+"/dns_records", payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Success bool         `json:"success"`
		Errors  []apiMessage `json:"errors"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Cloudflare response"))
		return err
	}
	if !result.Success {
		err = errors.Errorf("Cloudflare API returned errors: %s", combineMessages(result.Errors))
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// FindZoneByName returns (nil, nil) when no zone matches the exact name.
func (s *cloudflareService) FindZoneByName(ctx context.Context, domain string) (*interfaces.DNSZone, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CloudflareService.FindZoneByName")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Cloudflare API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	responseBody, err := s.do(ctx, http.MethodGet, "/zones?name="+domain, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var result struct {
		Success bool                 `json:"success"`
		Errors  []apiMessage         `json:"errors"`
		Result  []interfaces.DNSZone `json:"result"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Cloudflare response"))
		return nil, err
	}
	if !result.Success {
		err = errors.Errorf("Cloudflare API returned errors: %s", combineMessages(result.Errors))
		tracing.TraceErr(span, err)
		return nil, err
	}

	for _, zone := range result.Result {
		if zone.Name == domain {
			span.LogKV("result.zoneID", zone.ID)
			return &zone, nil
		}
	}

	span.LogKV("result", "not found")

	return nil, nil
}

func (s *cloudflareService) DeleteZone(ctx context.Context, zoneID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CloudflareService.DeleteZone")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("zoneID", zoneID)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Cloudflare API")
		tracing.TraceErr(span, err)
		return err
	}

	responseBody, err := s.do(ctx, http.MethodDelete, "/zones/"+zoneID, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Success bool         `json:"success"`
		Errors  []apiMessage `json:"errors"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Cloudflare response"))
		return err
	}
	if !result.Success {
		err = errors.Errorf("Cloudflare API returned errors: %s", combineMessages(result.Errors))
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
