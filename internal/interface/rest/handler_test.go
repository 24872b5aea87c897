package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/infra/database"
	"github.com/robtrove/TroveCRM/internal/infra/repository"
	"github.com/robtrove/TroveCRM/internal/interface/rest/middleware"
	"github.com/robtrove/TroveCRM/internal/policy"
	"github.com/robtrove/TroveCRM/internal/service"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

// --- mocks ---

type memSessions struct {
	mu sync.Mutex
	m  map[string]domain.Session
}

func (s *memSessions) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[session.Token] = session
	return nil
}

func (s *memSessions) Get(ctx context.Context, token string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.m[token]
	if !ok {
		return domain.Session{}, domain.NotFoundError{Resource: "session"}
	}
	return session, nil
}

func (s *memSessions) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[token]; !ok {
		return domain.NotFoundError{Resource: "session"}
	}
	delete(s.m, token)
	return nil
}

type mockBilling struct{}

func (mockBilling) Subscriptions(ctx context.Context, ref string) ([]domain.Subscription, error) {
	return []domain.Subscription{{ID: "sub_" + ref, Status: "active"}}, nil
}
func (mockBilling) Invoices(ctx context.Context, ref string) ([]domain.Invoice, error) {
	return []domain.Invoice{}, nil
}
func (mockBilling) CheckoutSession(ctx context.Context, planID, ref string) (domain.HostedSession, error) {
	return domain.HostedSession{URL: "https://billing.example.com/checkout/" + planID}, nil
}
func (mockBilling) PortalSession(ctx context.Context, ref string) (domain.HostedSession, error) {
	return domain.HostedSession{URL: "https://billing.example.com/portal/" + ref}, nil
}

type nopRealtime struct{}

func (nopRealtime) Realtime(ctx context.Context, input <-chan []string, output chan<- domain.ChangeEvent) {
	<-ctx.Done()
}

// --- fixture ---

type fixture struct {
	e     *echo.Echo
	admin string
	sales string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(database.DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	stores := repository.NewStores(db)
	customers := usecase.NewEntityService[domain.Customer](stores.Customers, domain.CustomerSchema, nil, nil)
	campaigns := usecase.NewEntityService[domain.Campaign](stores.Campaigns, domain.CampaignSchema, nil, nil)
	deals := usecase.NewEntityService[domain.Deal](stores.Deals, domain.DealSchema, nil, nil)
	tickets := usecase.NewEntityService[domain.Ticket](stores.Tickets, domain.TicketSchema, nil, nil)
	articles := usecase.NewEntityService[domain.Article](stores.Articles, domain.ArticleSchema, nil, nil)

	sessionUC := usecase.NewSessionUsecase(
		repository.NewUserRepository(db),
		&memSessions{m: map[string]domain.Session{}},
		time.Hour,
	)
	_, err = sessionUC.CreateUser(ctx, domain.User{Username: "admin", Role: domain.RoleAdmin}, "admin-password")
	require.NoError(t, err)
	_, err = sessionUC.CreateUser(ctx, domain.User{Username: "sally", Name: "Sally", Role: domain.RoleSales}, "sales-password")
	require.NoError(t, err)

	auth := service.NewAuthService(sessionUC, policy.NewAuthorizer(policy.DefaultPolicy()))
	h := NewHandler(Services{
		Customers:       customers,
		Campaigns:       campaigns,
		Deals:           deals,
		Tickets:         tickets,
		Articles:        articles,
		Pipeline:        usecase.NewPipelineUsecase(deals),
		CampaignMetrics: usecase.NewCampaignUsecase(campaigns),
		TicketActions:   usecase.NewTicketUsecase(tickets),
		Dashboard:       usecase.NewDashboardUsecase(customers, tickets, deals, campaigns),
		Settings:        usecase.NewSettingsUsecase(repository.NewSettingsRepository(db, nil, nil)),
		Session:         sessionUC,
		Billing:         usecase.NewBillingUsecase(customers, mockBilling{}),
		Signal:          nopRealtime{},
	}, middleware.NewAuthMiddleware(auth), nil, false)

	e := echo.New()
	h.RegisterRoutes(e)

	f := &fixture{e: e}
	f.admin = f.login(t, "admin", "admin-password")
	f.sales = f.login(t, "sally", "sales-password")
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	return res
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	res := f.do(t, http.MethodPost, "/api/v1/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var session domain.Session
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &v), res.Body.String())
	return v
}

// --- tests ---

func TestLoginAndSession(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/customers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/session", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	session := decode[domain.Session](t, res)
	assert.Equal(t, domain.RoleSales, session.User.Role)
	assert.Equal(t, domain.DefaultPreferences(), session.Preferences)

	res = f.do(t, http.MethodPut, "/api/v1/session/preferences", f.sales, domain.Preferences{Theme: "dark", Currency: "EUR"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "EUR", decode[domain.Session](t, res).Preferences.Currency)

	res = f.do(t, http.MethodPut, "/api/v1/session/preferences", f.sales, domain.Preferences{Currency: "XYZ"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPost, "/api/v1/logout", f.sales, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
	res = f.do(t, http.MethodGet, "/api/v1/session", f.sales, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCollectionCRUD(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/api/v1/customers", f.admin, map[string]any{
		"name":  "Alice",
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	alice := decode[domain.Customer](t, res)
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, domain.CustomerActive, alice.Status)

	res = f.do(t, http.MethodPost, "/api/v1/customers", f.admin, map[string]any{"name": "NoEmail"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "email", decode[map[string]string](t, res)["field"])

	res = f.do(t, http.MethodPatch, "/api/v1/customers/"+alice.ID, f.admin, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, domain.CustomerInactive, decode[domain.Customer](t, res).Status)

	res = f.do(t, http.MethodGet, "/api/v1/customers/"+alice.ID, f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Alice", decode[domain.Customer](t, res).Name)

	res = f.do(t, http.MethodDelete, "/api/v1/customers/"+alice.ID, f.admin, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
	res = f.do(t, http.MethodDelete, "/api/v1/customers/"+alice.ID, f.admin, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	res = f.do(t, http.MethodGet, "/api/v1/customers/"+alice.ID, f.admin, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestListQueryAndETag(t *testing.T) {
	f := newFixture(t)

	for _, c := range []map[string]any{
		{"name": "Alice", "email": "alice@example.com", "status": "active", "industry": "retail"},
		{"name": "Bob", "email": "bob@example.com", "status": "inactive", "industry": "retail"},
		{"name": "Carol", "email": "carol@example.com", "status": "active", "industry": "finance"},
	} {
		res := f.do(t, http.MethodPost, "/api/v1/customers", f.admin, c)
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	}

	res := f.do(t, http.MethodGet, "/api/v1/customers?status=active&industry=retail", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	list := decode[[]domain.Customer](t, res)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)

	res = f.do(t, http.MethodGet, "/api/v1/customers?sort=name", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	list = decode[[]domain.Customer](t, res)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, []string{list[0].Name, list[1].Name, list[2].Name})

	etag := res.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers?sort=name", nil)
	req.Header.Set("Authorization", "Bearer "+f.sales)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	res = f.do(t, http.MethodGet, "/api/v1/customers?shoeSize=9", f.sales, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/customers/export.csv?status=active", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	lines := strings.Split(strings.TrimSpace(res.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Status,Company,Industry,Total Spent,Last Order,Created", lines[0])
	assert.Contains(t, res.Header().Get(echo.HeaderContentDisposition), "customers-")
}

func TestBulkDeleteReportsPerID(t *testing.T) {
	f := newFixture(t)

	var ids []string
	for _, title := range []string{"one", "two"} {
		res := f.do(t, http.MethodPost, "/api/v1/articles", f.admin, map[string]any{
			"title": title, "content": "body", "category": "faq",
		})
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
		ids = append(ids, decode[domain.Article](t, res).ID)
	}
	ids = append(ids, "missing")

	res := f.do(t, http.MethodPost, "/api/v1/articles/bulk-delete", f.admin, bulkDeleteRequest{IDs: ids})
	require.Equal(t, http.StatusOK, res.Code)
	resp := decode[bulkDeleteResponse](t, res)
	assert.Equal(t, 2, resp.Deleted)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "missing", resp.Results[2].ID)
	assert.Equal(t, http.StatusNotFound, resp.Results[2].Status)

	res = f.do(t, http.MethodGet, "/api/v1/articles", f.admin, nil)
	assert.Empty(t, decode[[]domain.Article](t, res))

	res = f.do(t, http.MethodPost, "/api/v1/articles/bulk-delete", f.admin, bulkDeleteRequest{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRolePolicy(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/api/v1/tickets", f.admin, map[string]any{
		"title": "Login broken", "description": "cannot sign in", "category": "auth",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	ticket := decode[domain.Ticket](t, res)

	res = f.do(t, http.MethodGet, "/api/v1/tickets", f.sales, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	res = f.do(t, http.MethodDelete, "/api/v1/tickets/"+ticket.ID, f.sales, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = f.do(t, http.MethodPut, "/api/v1/tickets/"+ticket.ID+"/status", f.sales, statusRequest{Status: "resolved"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = f.do(t, http.MethodPut, "/api/v1/tickets/"+ticket.ID+"/status", f.admin, statusRequest{Status: "resolved"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, domain.TicketResolved, decode[domain.Ticket](t, res).Status)

	res = f.do(t, http.MethodPost, "/api/v1/tickets/"+ticket.ID+"/comments", f.admin, commentRequest{Content: "fixed"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	comments := decode[domain.Ticket](t, res).Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "admin", comments[0].Author)

	res = f.do(t, http.MethodPost, "/api/v1/users", f.sales, createUserRequest{Username: "eve", Role: domain.RoleAdmin, Password: "long-enough"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = f.do(t, http.MethodPost, "/api/v1/users", f.admin, createUserRequest{Username: "eve", Role: domain.RoleSupport, Password: "long-enough"})
	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestMoveDealAndSummary(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/api/v1/deals", f.sales, map[string]any{
		"title": "Renewal", "company": "Acme", "value": 1000,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	deal := decode[domain.Deal](t, res)
	assert.Equal(t, domain.StageQualified, deal.Stage)

	res = f.do(t, http.MethodPost, "/api/v1/deals/"+deal.ID+"/move", f.sales, moveDealRequest{Stage: domain.StageProposal})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	moved := decode[domain.Deal](t, res)
	assert.Equal(t, domain.StageProposal, moved.Stage)
	assert.Equal(t, 75, moved.Progress)

	res = f.do(t, http.MethodPost, "/api/v1/deals/"+deal.ID+"/move", f.sales, moveDealRequest{Stage: "won"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/pipeline/summary", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	for _, s := range decode[[]domain.StageSummary](t, res) {
		if s.ID == domain.StageProposal {
			assert.Equal(t, 1, s.Count)
			assert.Equal(t, 1000.0, s.Total)
		}
	}

	res = f.do(t, http.MethodGet, "/api/v1/dashboard?currency=USD", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	dash := decode[usecase.Dashboard](t, res)
	assert.Equal(t, 1000.0, dash.PipelineValue)
	assert.Equal(t, "$1,000.00", dash.PipelineValueText)
}

func TestThemeSettings(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/api/v1/settings/theme", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Inter", decode[domain.Theme](t, res).Font.Primary)

	override := map[string]any{"colors": map[string]string{"primary": "#ff0000"}}
	res = f.do(t, http.MethodPut, "/api/v1/settings/theme", f.sales, override)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = f.do(t, http.MethodPut, "/api/v1/settings/theme", f.admin, map[string]any{"colors": map[string]string{"primary": "red"}})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPut, "/api/v1/settings/theme", f.admin, override)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = f.do(t, http.MethodGet, "/api/v1/settings/theme.css", f.sales, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "--color-primary: #ff0000;")
}

func TestBillingRequiresBillingRef(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/api/v1/customers", f.admin, map[string]any{
		"name": "Alice", "email": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	alice := decode[domain.Customer](t, res)

	res = f.do(t, http.MethodGet, "/api/v1/customers/"+alice.ID+"/billing/subscriptions", f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPatch, "/api/v1/customers/"+alice.ID, f.admin, map[string]any{"billingRef": "cus_1"})
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(t, http.MethodGet, "/api/v1/customers/"+alice.ID+"/billing/subscriptions", f.admin, nil)
	require.Equal(t, http.StatusOK, res.Code)
	subs := decode[[]domain.Subscription](t, res)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_cus_1", subs[0].ID)

	res = f.do(t, http.MethodPost, "/api/v1/billing/checkout", f.admin, checkoutRequest{PlanID: "pro"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "https://billing.example.com/checkout/pro", decode[domain.HostedSession](t, res).URL)
}
