package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

var tracer = otel.Tracer("gateway")

const defaultTimeout = 5 * time.Second

// BillingGateway talks to a Chargebee-compatible billing API using the site
// API key as the basic auth user.
type BillingGateway struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
	apiKey  string
}

func NewBillingGateway(baseURL, apiKey string, cacheTTL time.Duration) *BillingGateway {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &BillingGateway{
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type subscriptionPayload struct {
	ID               string `json:"id"`
	PlanID           string `json:"plan_id"`
	PlanName         string `json:"plan_name"`
	Status           string `json:"status"`
	CurrentTermStart int64  `json:"current_term_start"`
	CurrentTermEnd   int64  `json:"current_term_end"`
	PlanAmount       int64  `json:"plan_amount"`
}

type invoicePayload struct {
	ID          string `json:"id"`
	Date        int64  `json:"date"`
	Total       int64  `json:"total"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
}

type hostedPayload struct {
	URL       string `json:"url"`
	AccessURL string `json:"access_url"`
	ExpiresAt int64  `json:"expires_at"`
}

func (p hostedPayload) session() domain.HostedSession {
	u := p.URL
	if u == "" {
		u = p.AccessURL
	}
	return domain.HostedSession{URL: u, ExpiresAt: time.Unix(p.ExpiresAt, 0).UTC()}
}

func (g *BillingGateway) Subscriptions(ctx context.Context, customerRef string) ([]domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Billing.Gateway.Subscriptions")
	defer span.End()

	key := "subscriptions:" + customerRef
	if cached, found := g.cache.Get(key); found {
		return cached.([]domain.Subscription), nil
	}

	var resp struct {
		List []struct {
			Subscription subscriptionPayload `json:"subscription"`
		} `json:"list"`
	}
	query := url.Values{"customer_id[is]": {customerRef}}
	if err := g.do(ctx, http.MethodGet, "/api/v2/subscriptions?"+query.Encode(), nil, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]domain.Subscription, 0, len(resp.List))
	for _, item := range resp.List {
		s := item.Subscription
		out = append(out, domain.Subscription{
			ID:               s.ID,
			PlanID:           s.PlanID,
			PlanName:         s.PlanName,
			Status:           s.Status,
			CurrentTermStart: time.Unix(s.CurrentTermStart, 0).UTC(),
			CurrentTermEnd:   time.Unix(s.CurrentTermEnd, 0).UTC(),
			PlanAmount:       s.PlanAmount,
		})
	}
	g.cache.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

func (g *BillingGateway) Invoices(ctx context.Context, customerRef string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Billing.Gateway.Invoices")
	defer span.End()

	key := "invoices:" + customerRef
	if cached, found := g.cache.Get(key); found {
		return cached.([]domain.Invoice), nil
	}

	var resp struct {
		List []struct {
			Invoice invoicePayload `json:"invoice"`
		} `json:"list"`
	}
	query := url.Values{"customer_id[is]": {customerRef}, "sort_by[desc]": {"date"}}
	if err := g.do(ctx, http.MethodGet, "/api/v2/invoices?"+query.Encode(), nil, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]domain.Invoice, 0, len(resp.List))
	for _, item := range resp.List {
		inv := item.Invoice
		out = append(out, domain.Invoice{
			ID:          inv.ID,
			Date:        time.Unix(inv.Date, 0).UTC(),
			Total:       inv.Total,
			Status:      inv.Status,
			DownloadURL: inv.DownloadURL,
		})
	}
	g.cache.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// CheckoutSession is never cached; hosted pages are single use.
func (g *BillingGateway) CheckoutSession(ctx context.Context, planID, customerRef string) (domain.HostedSession, error) {
	ctx, span := tracer.Start(ctx, "Billing.Gateway.CheckoutSession")
	defer span.End()

	form := url.Values{
		"subscription_items[item_price_id][0]": {planID},
		"subscription_items[quantity][0]":      {"1"},
	}
	if customerRef != "" {
		form.Set("customer[id]", customerRef)
	}

	var resp struct {
		HostedPage hostedPayload `json:"hosted_page"`
	}
	if err := g.do(ctx, http.MethodPost, "/api/v2/hosted_pages/checkout_new_for_items", form, &resp); err != nil {
		span.RecordError(err)
		return domain.HostedSession{}, err
	}
	return resp.HostedPage.session(), nil
}

func (g *BillingGateway) PortalSession(ctx context.Context, customerRef string) (domain.HostedSession, error) {
	ctx, span := tracer.Start(ctx, "Billing.Gateway.PortalSession")
	defer span.End()

	form := url.Values{"customer[id]": {customerRef}}

	var resp struct {
		PortalSession hostedPayload `json:"portal_session"`
	}
	if err := g.do(ctx, http.MethodPost, "/api/v2/portal_sessions", form, &resp); err != nil {
		span.RecordError(err)
		return domain.HostedSession{}, err
	}
	return resp.PortalSession.session(), nil
}

func (g *BillingGateway) do(ctx context.Context, method, path string, form url.Values, response any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.SetBasicAuth(g.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.PersistenceError{Op: "billing " + path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NotFoundError{Resource: "billing account"}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr struct {
			Message string `json:"message"`
			Param   string `json:"param"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("billing provider rejected request (%d)", resp.StatusCode)
		}
		return domain.ValidationError{Field: apiErr.Param, Message: apiErr.Message}
	case resp.StatusCode != http.StatusOK:
		return domain.PersistenceError{
			Op:  "billing " + path,
			Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return domain.PersistenceError{Op: "billing " + path, Err: errors.Wrap(err, "failed to decode response")}
	}
	return nil
}

var _ usecase.BillingGateway = (*BillingGateway)(nil)
