package cpanel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

const (
	whmTimeout = 90 * time.Second
)

// cpanelService talks to WHM's json-api for account lifecycle and to the
// panel's Softaculous endpoint for WordPress installs.
type cpanelService struct {
	cfg       *config.CPanelConfig
	whmClient *http.Client
}

func NewCPanelService(cfg *config.CPanelConfig) interfaces.HostingService {
	// WHM installs commonly run with self-signed certificates on :2087.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &cpanelService{
		cfg:       cfg,
		whmClient: &http.Client{Timeout: whmTimeout, Transport: transport},
	}
}

func (s *cpanelService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.APIToken != ""
}

func (s *cpanelService) whmCall(ctx context.Context, function string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("https://%s:%s/json-api/%s?api.version=1&%s",
		s.cfg.Host, s.cfg.Port, function, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build WHM request")
	}
	req.Header.Set("Authorization", fmt.Sprintf("whm %s:%s", s.cfg.Username, s.cfg.APIToken))

	resp, err := s.whmClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, er.ErrConnectionTimeout
		}
		return nil, errors.Wrap(err, "failed to call WHM API")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read WHM response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("WHM API returned status %d: %s", resp.StatusCode, string(responseBody))
	}
	return responseBody, nil
}

type whmMetadata struct {
	Result int    `json:"result"`
	Reason string `json:"reason"`
}

// FindAccountByDomain returns (nil, nil) when no account owns the domain.
func (s *cpanelService) FindAccountByDomain(ctx context.Context, domain string) (*interfaces.HostingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CPanelService.FindAccountByDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "cPanel API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	params := url.Values{}
	params.Add("searchtype", "domain")
	params.Add("search", domain)

	responseBody, err := s.whmCall(ctx, "listaccts", params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var result struct {
		Metadata whmMetadata `json:"metadata"`
		Data     struct {
			Accounts []struct {
				User      string `json:"user"`
				Domain    string `json:"domain"`
				IP        string `json:"ip"`
				Suspended int    `json:"suspended"`
			} `json:"acct"`
		} `json:"data"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse WHM response"))
		return nil, err
	}
	if result.Metadata.Result != 1 {
		err = errors.Errorf("WHM API returned errors: %s", result.Metadata.Reason)
		tracing.TraceErr(span, err)
		return nil, err
	}

	for _, account := range result.Data.Accounts {
		if account.Domain == domain {
			span.LogKV("result.user", account.User)
			return &interfaces.HostingAccount{
				Username:  account.User,
				Domain:    account.Domain,
				IP:        account.IP,
				Suspended: account.Suspended == 1,
			}, nil
		}
	}

	span.LogKV("result", "not found")

	return nil, nil
}

// CreateAccount is idempotent on the domain: an existing account is
// returned as-is.
func (s *cpanelService) CreateAccount(ctx context.Context, domain string) (*interfaces.HostingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CPanelService.CreateAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "cPanel API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	existing, err := s.FindAccountByDomain(ctx, domain)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if existing != nil {
		span.LogKV("result", "account already exists")
		return existing, nil
	}

	username := accountUsername(domain)
	password, err := utils.GeneratePassword(16)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	params := url.Values{}
	params.Add("username", username)
	params.Add("domain", domain)
	params.Add("password", password)
	params.Add("plan", s.cfg.Package)

	responseBody, err := s.whmCall(ctx, "createacct", params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Metadata whmMetadata `json:"metadata"`
		Data     struct {
			IP string `json:"ip"`
		} `json:"data"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse WHM response"))
		return nil, err
	}
	if result.Metadata.Result != 1 {
		err = errors.Errorf("WHM API returned errors: %s", result.Metadata.Reason)
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogKV("result.user", username)

	return &interfaces.HostingAccount{
		Username: username,
		Domain:   domain,
		IP:       result.Data.IP,
	}, nil
}

// TerminateAccount removes the account and its files. A transport timeout
// surfaces as errors.ErrConnectionTimeout so callers can re-probe whether
// the removal went through.
func (s *cpanelService) TerminateAccount(ctx context.Context, username string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CPanelService.TerminateAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("username", username)

	if !s.Configured() {
		err := errors.Wrap(er.ErrNotConfigured, "cPanel API")
		tracing.TraceErr(span, err)
		return err
	}

	params := url.Values{}
	params.Add("user", username)
	params.Add("keepdns", "0")

	responseBody, err := s.whmCall(ctx, "removeacct", params)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		Metadata whmMetadata `json:"metadata"`
	}
	if err = json.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse WHM response"))
		return err
	}
	if result.Metadata.Result != 1 {
		err = errors.Errorf("WHM API returned errors: %s", result.Metadata.Reason)
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// accountUsername derives a panel username from the domain label: panel
// usernames are lowercase alphanumerics, max 16 chars, never digit-leading.
func accountUsername(domain string) string {
	label := utils.DomainLabel(domain)
	cleaned := make([]byte, 0, len(label))
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 || cleaned[0] >= '0' && cleaned[0] <= '9' {
		cleaned = append([]byte("d"), cleaned...)
	}
	if len(cleaned) > 16 {
		cleaned = cleaned[:16]
	}
	return string(cleaned)
}
