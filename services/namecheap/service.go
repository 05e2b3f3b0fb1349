package namecheap

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"golang.org/x/net/context"

	"github.com/siteforge/domainops/config"
	"github.com/siteforge/domainops/interfaces"
	er "github.com/siteforge/domainops/internal/errors"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/internal/utils"
)

const (
	checkTimeout    = 15 * time.Second
	purchaseTimeout = 60 * time.Second
)

// Namecheap supported commands: https://www.namecheap.com/support/api/methods/
type namecheapService struct {
	cfg            *config.NamecheapConfig
	checkClient    *http.Client
	purchaseClient *http.Client
}

func NewNamecheapService(cfg *config.NamecheapConfig) interfaces.RegistrarService {
	return &namecheapService{
		cfg:            cfg,
		checkClient:    &http.Client{Timeout: checkTimeout},
		purchaseClient: &http.Client{Timeout: purchaseTimeout},
	}
}

// apiResponse is the common envelope of every Namecheap XML response.
type apiErrors struct {
	Error []struct {
		Number  string `xml:"Number,attr"`
		Message string `xml:",chardata"`
	} `xml:"Error"`
}

func (e apiErrors) combined() string {
	parts := make([]string, 0, len(e.Error))
	for _, err := range e.Error {
		parts = append(parts, fmt.Sprintf("Error %s: %s", err.Number, err.Message))
	}
	return strings.Join(parts, "; ")
}

func (s *namecheapService) configured() bool {
	return s.cfg.ApiKey != "" && s.cfg.ApiUser != "" && s.cfg.ApiUsername != "" && s.cfg.ApiClientIp != ""
}

func (s *namecheapService) baseParams(command string) url.Values {
	params := url.Values{}
	params.Add("ApiKey", s.cfg.ApiKey)
	params.Add("ApiUser", s.cfg.ApiUser)
	params.Add("UserName", s.cfg.ApiUsername)
	params.Add("ClientIp", s.cfg.ApiClientIp)
	params.Add("Command", command)
	return params
}

func (s *namecheapService) post(ctx context.Context, client *http.Client, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Url, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build Namecheap request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call Namecheap API")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Namecheap response")
	}
	if string(responseBody) == "error code: 522" {
		return nil, er.ErrConnectionTimeout
	}
	return responseBody, nil
}

// CheckAvailability checks the domain with Namecheap and resolves the
// registration price for its TLD, normalized to decimal USD.
func (s *namecheapService) CheckAvailability(ctx context.Context, domain string) (*interfaces.DomainAvailability, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NamecheapService.CheckAvailability")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Namecheap API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	params := s.baseParams("namecheap.domains.check")
	params.Add("DomainList", domain)

	responseBody, err := s.post(ctx, s.checkClient, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		XMLName         xml.Name  `xml:"ApiResponse"`
		Status          string    `xml:"Status,attr"`
		Errors          apiErrors `xml:"Errors"`
		CommandResponse struct {
			DomainCheckResult struct {
				Domain                   string `xml:"Domain,attr"`
				Available                bool   `xml:"Available,attr"`
				IsPremiumName            bool   `xml:"IsPremiumName,attr"`
				PremiumRegistrationPrice string `xml:"PremiumRegistrationPrice,attr"`
			} `xml:"DomainCheckResult"`
		} `xml:"CommandResponse"`
	}
	if err = xml.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Namecheap XML response"))
		return nil, err
	}
	if len(result.Errors.Error) > 0 {
		err = errors.Errorf("Namecheap API returned errors: %s", result.Errors.combined())
		tracing.TraceErr(span, err)
		return nil, err
	}

	availability := &interfaces.DomainAvailability{
		Domain:     domain,
		Available:  result.CommandResponse.DomainCheckResult.Available,
		Definitive: true,
	}
	span.LogFields(tracingLog.Bool("result.available", availability.Available))

	if !availability.Available {
		return availability, nil
	}

	if result.CommandResponse.DomainCheckResult.IsPremiumName {
		price, parseErr := strconv.ParseFloat(result.CommandResponse.DomainCheckResult.PremiumRegistrationPrice, 64)
		if parseErr != nil {
			tracing.TraceErr(span, errors.Wrap(parseErr, "failed to parse premium price"))
			availability.Definitive = false
			return availability, nil
		}
		availability.Price = price
		span.LogKV("result.price", price, "result.premium", true)
		return availability, nil
	}

	price, err := s.getRegistrationPrice(ctx, domain)
	if err != nil {
		// availability stands, price does not; the caller decides
		tracing.TraceErr(span, err)
		availability.Definitive = false
		return availability, nil
	}
	availability.Price = price
	span.LogKV("result.price", price)

	return availability, nil
}

func (s *namecheapService) getRegistrationPrice(ctx context.Context, domain string) (float64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NamecheapService.getRegistrationPrice")
	defer span.Finish()
	span.LogKV("domain", domain)

	tld := utils.DomainTLD(domain)

	params := s.baseParams("namecheap.users.getPricing")
	params.Add("ProductType", "DOMAIN")
	params.Add("ProductCategory", "REGISTER")
	params.Add("ProductName", tld)

	responseBody, err := s.post(ctx, s.checkClient, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	var result struct {
		XMLName         xml.Name  `xml:"ApiResponse"`
		Status          string    `xml:"Status,attr"`
		Errors          apiErrors `xml:"Errors"`
		CommandResponse struct {
			UserGetPricingResult struct {
				ProductType struct {
					Name            string `xml:"Name,attr"`
					ProductCategory []struct {
						Name    string `xml:"Name,attr"`
						Product []struct {
							Name  string `xml:"Name,attr"`
							Price []struct {
								Duration     string `xml:"Duration,attr"`
								DurationType string `xml:"DurationType,attr"`
								YourPrice    string `xml:"YourPrice,attr"`
								Currency     string `xml:"Currency,attr"`
							} `xml:"Price"`
						} `xml:"Product"`
					} `xml:"ProductCategory"`
				} `xml:"ProductType"`
			} `xml:"UserGetPricingResult"`
		} `xml:"CommandResponse"`
	}
	if err = xml.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Namecheap XML response"))
		return 0, err
	}
	if len(result.Errors.Error) > 0 {
		err = errors.Errorf("Namecheap API returned errors: %s", result.Errors.combined())
		tracing.TraceErr(span, err)
		return 0, err
	}

	for _, category := range result.CommandResponse.UserGetPricingResult.ProductType.ProductCategory {
		if category.Name != "register" {
			continue
		}
		for _, product := range category.Product {
			if product.Name != tld {
				continue
			}
			for _, price := range product.Price {
				if price.Duration == "1" && price.DurationType == "YEAR" {
					parsedPrice, err := strconv.ParseFloat(price.YourPrice, 64)
					if err != nil {
						tracing.TraceErr(span, errors.Wrap(err, "failed to parse registration price"))
						return 0, err
					}
					span.LogKV("result.price", parsedPrice)
					return parsedPrice, nil
				}
			}
		}
	}

	return 0, errors.New("domain price not found")
}

// Purchase registers the domain with the configured contact set for the
// configured number of years.
func (s *namecheapService) Purchase(ctx context.Context, domain string) (*interfaces.DomainPurchase, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NamecheapService.Purchase")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Namecheap API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	params := s.baseParams("namecheap.domains.create")
	params.Add("DomainName", domain)
	params.Add("Years", strconv.Itoa(s.cfg.Years))
	params.Add("AddFreeWhoisguard", "yes")

	for _, role := range []string{"Registrant", "Tech", "Admin", "AuxBilling"} {
		params.Add(role+"FirstName", s.cfg.RegistrantFirstName)
		params.Add(role+"LastName", s.cfg.RegistrantLastName)
		params.Add(role+"JobTitle", s.cfg.RegistrantJobTitle)
		params.Add(role+"Address1", s.cfg.RegistrantAddress1)
		params.Add(role+"OrganizationName", s.cfg.RegistrantCompanyName)
		params.Add(role+"City", s.cfg.RegistrantCity)
		params.Add(role+"StateProvince", s.cfg.RegistrantState)
		params.Add(role+"PostalCode", s.cfg.RegistrantZIP)
		params.Add(role+"Country", s.cfg.RegistrantCountry)
		params.Add(role+"Phone", s.cfg.RegistrantPhoneNumber)
		params.Add(role+"EmailAddress", s.cfg.RegistrantEmail)
	}

	responseBody, err := s.post(ctx, s.purchaseClient, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		XMLName         xml.Name  `xml:"ApiResponse"`
		Status          string    `xml:"Status,attr"`
		Errors          apiErrors `xml:"Errors"`
		CommandResponse struct {
			DomainCreateResult struct {
				Domain        string `xml:"Domain,attr"`
				Registered    bool   `xml:"Registered,attr"`
				OrderID       string `xml:"OrderID,attr"`
				TransactionID string `xml:"TransactionID,attr"`
				ChargedAmount string `xml:"ChargedAmount,attr"`
			} `xml:"DomainCreateResult"`
		} `xml:"CommandResponse"`
	}
	if err = xml.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Namecheap XML response"))
		return nil, err
	}
	if len(result.Errors.Error) > 0 {
		err = classifyPurchaseError(result.Errors.combined())
		tracing.TraceErr(span, err)
		return nil, err
	}

	if !result.CommandResponse.DomainCreateResult.Registered {
		err = errors.Errorf("failed to register domain %s: Namecheap API returned unsuccessful status", domain)
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogFields(
		tracingLog.String("result.domain", result.CommandResponse.DomainCreateResult.Domain),
		tracingLog.String("result.orderID", result.CommandResponse.DomainCreateResult.OrderID),
		tracingLog.String("result.transactionID", result.CommandResponse.DomainCreateResult.TransactionID),
		tracingLog.String("result.chargedAmount", result.CommandResponse.DomainCreateResult.ChargedAmount),
	)

	return &interfaces.DomainPurchase{
		Domain:        result.CommandResponse.DomainCreateResult.Domain,
		OrderID:       result.CommandResponse.DomainCreateResult.OrderID,
		TransactionID: result.CommandResponse.DomainCreateResult.TransactionID,
		ChargedAmount: result.CommandResponse.DomainCreateResult.ChargedAmount,
	}, nil
}

// classifyPurchaseError maps provider error text onto the two typed
// conditions the workflow distinguishes. The match is by substring on
// free-text messages; known fragility against provider wording changes.
func classifyPurchaseError(errorText string) error {
	lower := strings.ToLower(errorText)
	switch {
	case strings.Contains(lower, "insufficient funds"):
		return errors.Wrap(er.ErrInsufficientFunds, errorText)
	case strings.Contains(lower, "invalid"):
		return errors.Wrap(er.ErrInvalidDomainName, errorText)
	default:
		return errors.Errorf("Namecheap API returned errors: %s", errorText)
	}
}

// GetDomainInfo is best-effort; callers treat nil as "no data".
func (s *namecheapService) GetDomainInfo(ctx context.Context, domain string) (*interfaces.RegistrarDomainInfo, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NamecheapService.GetDomainInfo")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain)

	if !s.configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Namecheap API")
		tracing.TraceErr(span, err)
		return nil, err
	}

	params := s.baseParams("namecheap.domains.getInfo")
	params.Add("DomainName", domain)

	responseBody, err := s.post(ctx, s.checkClient, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		XMLName         xml.Name  `xml:"ApiResponse"`
		Status          string    `xml:"Status,attr"`
		Errors          apiErrors `xml:"Errors"`
		CommandResponse struct {
			DomainGetInfoResult struct {
				Status        string `xml:"Status,attr"`
				DomainName    string `xml:"DomainName,attr"`
				DomainDetails struct {
					CreatedDate string `xml:"CreatedDate"`
					ExpiredDate string `xml:"ExpiredDate"`
					NumYears    int    `xml:"NumYears"`
				} `xml:"DomainDetails"`
				WhoisGuard struct {
					Enabled bool `xml:"Enabled,attr"`
				} `xml:"Whoisguard"`
				PremiumDnsSubscription struct {
					UseAutoRenew bool `xml:"UseAutoRenew"`
				} `xml:"PremiumDnsSubscription"`
				DnsDetails struct {
					Nameservers []string `xml:"Nameserver"`
				} `xml:"DnsDetails"`
			} `xml:"DomainGetInfoResult"`
		} `xml:"CommandResponse"`
	}
	if err = xml.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Namecheap XML response"))
		return nil, err
	}
	if len(result.Errors.Error) > 0 {
		err = errors.Errorf("Namecheap API returned errors: %s", result.Errors.combined())
		tracing.TraceErr(span, err)
		return nil, err
	}

	domainInfo := &interfaces.RegistrarDomainInfo{
		DomainName:  result.CommandResponse.DomainGetInfoResult.DomainName,
		CreatedDate: result.CommandResponse.DomainGetInfoResult.DomainDetails.CreatedDate,
		ExpiredDate: result.CommandResponse.DomainGetInfoResult.DomainDetails.ExpiredDate,
		Status:      result.CommandResponse.DomainGetInfoResult.Status,
		Nameservers: result.CommandResponse.DomainGetInfoResult.DnsDetails.Nameservers,
		WhoisGuard:  result.CommandResponse.DomainGetInfoResult.WhoisGuard.Enabled,
		AutoRenew:   result.CommandResponse.DomainGetInfoResult.PremiumDnsSubscription.UseAutoRenew,
	}
	tracing.LogObjectAsJson(span, "domainInfo", domainInfo)

	return domainInfo, nil
}

func (s *namecheapService) UpdateNameservers(ctx context.Context, domain string, nameservers []string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "NamecheapService.UpdateNameservers")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domain, "nameservers", strings.Join(nameservers, ","))

	if !s.configured() {
		err := errors.Wrap(er.ErrNotConfigured, "Namecheap API")
		tracing.TraceErr(span, err)
		return err
	}
	if len(nameservers) < 2 || len(nameservers) > 12 {
		err := errors.Errorf("nameserver count %d outside allowed range 2..12", len(nameservers))
		tracing.TraceErr(span, err)
		return err
	}

	params := s.baseParams("namecheap.domains.dns.setCustom")
	params.Add("SLD", utils.DomainLabel(domain))
	params.Add("TLD", utils.DomainTLD(domain))
	params.Add("Nameservers", strings.Join(nameservers, ","))

	responseBody, err := s.post(ctx, s.checkClient, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogFields(tracingLog.String("responseBody", string(responseBody)))

	var result struct {
		XMLName         xml.Name  `xml:"ApiResponse"`
		Status          string    `xml:"Status,attr"`
		Errors          apiErrors `xml:"Errors"`
		CommandResponse struct {
			DomainDNSSetCustomResult struct {
				Domain  string `xml:"Domain,attr"`
				Updated bool   `xml:"Updated,attr"`
			} `xml:"DomainDNSSetCustomResult"`
		} `xml:"CommandResponse"`
	}
	if err = xml.Unmarshal(responseBody, &result); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "failed to parse Namecheap XML response"))
		return err
	}
	if len(result.Errors.Error) > 0 {
		err = errors.Errorf("Namecheap API returned errors: %s", result.Errors.combined())
		tracing.TraceErr(span, err)
		return err
	}

	if !result.CommandResponse.DomainDNSSetCustomResult.Updated {
		err = errors.Errorf("failed to set custom nameservers for domain %s", domain)
		tracing.TraceErr(span, err)
		return err
	}

	span.LogKV("result", "success")

	return nil
}
