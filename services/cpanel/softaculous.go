package cpanel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

const (
	// Softaculous script id for WordPress.
	softWordPressID = "26"
	// WordPress installs copy files and run the installer; allow for slow
	// shared hosts.
	softTimeout = 120 * time.Second
)

func (s *cpanelService) softClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &http.Client{Timeout: softTimeout, Transport: transport}
}

// softCall hits the account's Softaculous endpoint on the cPanel port,
// authenticating with the reseller token.
func (s *cpanelService) softCall(ctx context.Context, account, act string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("act", act)
	params.Set("api", "json")

	endpoint := fmt.Sprintf("https://%s:2083/frontend/jupiter/softaculous/index.live.php?%s",
		s.cfg.Host, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build Softaculous request")
	}
	req.Header.Set("Authorization", fmt.Sprintf("whm %s:%s", s.cfg.Username, s.cfg.APIToken))
	req.Header.Set("X-CPANEL-USER", account)

	resp, err := s.softClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call Softaculous API")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Softaculous response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("Softaculous API returned status %d: %s", resp.StatusCode, string(responseBody))
	}
	return responseBody, nil
}

// FindInstallationByDomain returns (nil, nil) when the domain has no
// WordPress installation.
func (s *cpanelService) FindInstallationByDomain(ctx context.Context, domain string) (*interfaces.CMSInstallation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CPanelService.FindInstallationByDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "cPanel API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	account, err := s.FindAccountByDomain(ctx, domain)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if account == nil {
		span.LogKV("result", "no hosting account")
		return nil, nil
	}

	responseBody, err := s.softCall(ctx, account.Username, "installations", nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var result struct {
		Installations map[string]map[string]struct {
			InsID      string `json:"insid"`
			SoftDomain string `json:"softdomain"`
			SoftPath   string `json:"softpath"`
			SoftURL    string `json:"softurl"`
			Version    string `json:"ver"`
		} `json:"installations"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Softaculous response"))
		return nil, err
	}

	for _, installation := range result.Installations[softWordPressID] {
		if strings.EqualFold(installation.SoftDomain, domain) {
			span.LogKV("result.insid", installation.InsID)
			return &interfaces.CMSInstallation{
				ID:      installation.InsID,
				Domain:  installation.SoftDomain,
				Path:    installation.SoftPath,
				URL:     installation.SoftURL,
				Version: installation.Version,
			}, nil
		}
	}

	span.LogKV("result", "not found")

	return nil, nil
}

func (s *cpanelService) InstallWordPress(ctx context.Context, domain string) (*interfaces.CMSInstallation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CPanelService.InstallWordPress")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "cPanel API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	account, err := s.FindAccountByDomain(ctx, domain)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if account == nil {
		err = errors.Errorf("no hosting account for domain %s", domain)
		tracing.TraceErr(span, err)
		return nil, err
	}

	adminPassword := s.cfg.WPAdminPassword
	if adminPassword == "" {
		adminPassword, err = utils.GeneratePassword(16)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	params := wordpressInstallParams(domain, s.cfg.WPAdminUser, adminPassword, s.cfg.WPAdminEmail)

	responseBody, err := s.softCall(ctx, account.Username, "software", params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Error   map[string]string `json:"error"`
		InsID   string            `json:"insid"`
		SoftURL string            `json:"softurl"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Softaculous response"))
		return nil, err
	}
	if len(result.Error) > 0 {
		messages := make([]string, 0, len(result.Error))
		for _, message := range result.Error {
			messages = append(messages, message)
		}
		err = errors.Errorf("Softaculous API returned errors: %s", strings.Join(messages, "; "))
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogKV("result.insid", result.InsID)

	return &interfaces.CMSInstallation{
		ID:     result.InsID,
		Domain: domain,
		URL:    result.SoftURL,
	}, nil
}

// wordpressInstallParams builds the install form for a root-directory
// WordPress install. The site title is the domain label.
func wordpressInstallParams(domain, adminUser, adminPassword, adminEmail string) url.Values {
	params := url.Values{}
	params.Add("soft", softWordPressID)
	params.Add("softdomain", domain)
	params.Add("softdirectory", "")
	params.Add("site_name", utils.DomainLabel(domain))
	params.Add("admin_username", adminUser)
	params.Add("admin_pass", adminPassword)
	params.Add("admin_email", adminEmail)
	params.Add("language", "en")
	params.Add("softsubmit", "1")
	return params
}

func (s *cpanelService) RemoveInstallation(ctx context.Context, installationID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CPanelService.RemoveInstallation")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("installationID", installationID)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "cPanel API")
		tracing.TraceErr(span, err)
		return err
	}

	params := url.Values{}
	params.Add("insid", installationID)
	params.Add("remove_dir", "1")
	params.Add("remove_datadir", "1")
	params.Add("remove_db", "1")
	params.Add("removeins", "1")

	responseBody, err := s.softCall(ctx, s.cfg.Username, "remove", params)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Error map[string]string `json:"error"`
		Done  bool              `json:"done"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Softaculous response"))
		return err
	}
	if len(result.Error) > 0 {
		messages := make([]string, 0, len(result.Error))
		for _, message := range result.Error {
			messages = append(messages, message)
		}
		err = errors.Errorf("Softaculous API returned errors: %s", strings.Join(messages, "; "))
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
