package rest

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/interface/rest/middleware"
	"github.com/robtrove/TroveCRM/internal/interface/rest/presenter"
	"github.com/robtrove/TroveCRM/internal/policy"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

// Realtime relays change events of the requested collections.
type Realtime interface {
	Realtime(ctx context.Context, input <-chan []string, output chan<- domain.ChangeEvent)
}

type Services struct {
	Customers *usecase.EntityService[domain.Customer]
	Campaigns *usecase.EntityService[domain.Campaign]
	Deals     *usecase.EntityService[domain.Deal]
	Tickets   *usecase.EntityService[domain.Ticket]
	Articles  *usecase.EntityService[domain.Article]

	Pipeline        *usecase.PipelineUsecase
	CampaignMetrics *usecase.CampaignUsecase
	TicketActions   *usecase.TicketUsecase
	Dashboard       *usecase.DashboardUsecase
	Settings        *usecase.SettingsUsecase
	Session         *usecase.SessionUsecase
	Billing         *usecase.BillingUsecase
	Signal          Realtime
}

type Handler struct {
	services     Services
	auth         *middleware.AuthMiddleware
	log          *zap.Logger
	secureCookie bool
}

func NewHandler(
	services Services,
	auth *middleware.AuthMiddleware,
	log *zap.Logger,
	secureCookie bool,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		services:     services,
		auth:         auth,
		log:          log,
		secureCookie: secureCookie,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Use(h.auth.IdentifyIdentity)

	api := e.Group("/api/v1")
	api.POST("/login", h.handleLogin)

	authed := api.Group("", h.auth.RequireSession)
	authed.POST("/logout", h.handleLogout)
	authed.GET("/session", h.handleSession)
	authed.PUT("/session/preferences", h.handlePreferences)

	s := h.services
	collections := map[string]routeRegistrar{
		domain.CollectionCustomers: collectionHandler[domain.Customer]{service: s.Customers},
		domain.CollectionCampaigns: collectionHandler[domain.Campaign]{service: s.Campaigns},
		domain.CollectionDeals:     collectionHandler[domain.Deal]{service: s.Deals},
		domain.CollectionTickets:   collectionHandler[domain.Ticket]{service: s.Tickets},
		domain.CollectionArticles:  collectionHandler[domain.Article]{service: s.Articles},
	}

	authed.POST("/deals/:id/move", h.handleMoveDeal, h.auth.Authorize(domain.CollectionDeals, policy.ActionUpdate))
	authed.POST("/tickets/:id/comments", h.handleAddComment, h.auth.Authorize(domain.CollectionTickets, policy.ActionUpdate))
	authed.PUT("/tickets/:id/status", h.handleTicketStatus, h.auth.Authorize(domain.CollectionTickets, policy.ActionUpdate))
	authed.GET("/campaigns/metrics", h.handleCampaignMetrics, h.auth.Authorize(domain.CollectionCampaigns, policy.ActionRead))
	authed.GET("/pipeline/summary", h.handlePipelineSummary, h.auth.Authorize(domain.CollectionDeals, policy.ActionRead))
	authed.GET("/dashboard", h.handleDashboard)

	authed.GET("/customers/:id/billing/subscriptions", h.handleSubscriptions, h.auth.Authorize(domain.CollectionCustomers, policy.ActionRead))
	authed.GET("/customers/:id/billing/invoices", h.handleInvoices, h.auth.Authorize(domain.CollectionCustomers, policy.ActionRead))
	authed.POST("/customers/:id/billing/portal", h.handlePortal, h.auth.Authorize(domain.CollectionCustomers, policy.ActionUpdate))
	authed.POST("/billing/checkout", h.handleCheckout, h.auth.Authorize(domain.CollectionCustomers, policy.ActionUpdate))

	for _, name := range domain.Collections {
		collections[name].register(authed.Group("/"+name), h.auth)
	}

	authed.GET("/settings/theme", h.handleTheme)
	authed.GET("/settings/theme.css", h.handleThemeCSS)
	authed.PUT("/settings/theme", h.handleSaveTheme, h.auth.Authorize("settings", policy.ActionManage))
	authed.POST("/users", h.handleCreateUser, h.auth.Authorize("users", policy.ActionManage))

	e.GET("/realtime", h.handleRealtime, h.auth.RequireSession)
}

func requesterSession(c echo.Context) (domain.Session, bool) {
	s, ok := c.Request().Context().Value(domain.SessionCtxKey).(domain.Session)
	return s, ok
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}

	session, err := h.services.Session.Login(ctx, req.Username, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.log.Info("login", zap.String("user", session.User.Username))
	return presenter.OK(c, session)
}

func (h *Handler) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()
	session, _ := requesterSession(c)

	if err := h.services.Session.Logout(ctx, session.Token); err != nil {
		return presenter.Error(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleSession(c echo.Context) error {
	session, _ := requesterSession(c)
	return presenter.OK(c, session)
}

func (h *Handler) handlePreferences(c echo.Context) error {
	ctx := c.Request().Context()
	session, _ := requesterSession(c)

	var prefs domain.Preferences
	if err := decodeBody(c, &prefs); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.services.Session.UpdatePreferences(ctx, session.Token, prefs)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

type moveDealRequest struct {
	Stage string `json:"stage"`
}

func (h *Handler) handleMoveDeal(c echo.Context) error {
	ctx := c.Request().Context()

	var req moveDealRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}

	deal, err := h.services.Pipeline.MoveDeal(ctx, c.Param("id"), req.Stage)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, deal)
}

func (h *Handler) handlePipelineSummary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.services.Pipeline.Summary(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Tagged(c, summary)
}

func (h *Handler) handleCampaignMetrics(c echo.Context) error {
	ctx := c.Request().Context()

	totals, err := h.services.CampaignMetrics.Metrics(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, totals)
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (h *Handler) handleAddComment(c echo.Context) error {
	ctx := c.Request().Context()

	var req commentRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if strings.TrimSpace(req.Author) == "" {
		if session, ok := requesterSession(c); ok {
			req.Author = session.User.Name
			if req.Author == "" {
				req.Author = session.User.Username
			}
		}
	}

	ticket, err := h.services.TicketActions.AddComment(ctx, c.Param("id"), req.Author, req.Content)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, ticket)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleTicketStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req statusRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}

	ticket, err := h.services.TicketActions.SetStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ticket)
}

// handleDashboard formats amounts in the currency query parameter, falling
// back to the session preference.
func (h *Handler) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	currency := c.QueryParam("currency")
	if currency == "" {
		if session, ok := requesterSession(c); ok {
			currency = session.Preferences.Currency
		}
	}

	summary, err := h.services.Dashboard.Summary(ctx, currency)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, summary)
}

func (h *Handler) handleSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()

	subs, err := h.services.Billing.Subscriptions(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, subs)
}

func (h *Handler) handleInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	invoices, err := h.services.Billing.Invoices(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, invoices)
}

func (h *Handler) handlePortal(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.services.Billing.Portal(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, session)
}

type checkoutRequest struct {
	PlanID     string `json:"planId"`
	CustomerID string `json:"customerId"`
}

func (h *Handler) handleCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req checkoutRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}

	session, err := h.services.Billing.Checkout(ctx, req.PlanID, req.CustomerID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, session)
}

func (h *Handler) handleTheme(c echo.Context) error {
	ctx := c.Request().Context()

	theme, err := h.services.Settings.Theme(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, theme)
}

func (h *Handler) handleThemeCSS(c echo.Context) error {
	ctx := c.Request().Context()

	css, err := h.services.Settings.ThemeCSS(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}

func (h *Handler) handleSaveTheme(c echo.Context) error {
	ctx := c.Request().Context()

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	theme, err := h.services.Settings.SaveTheme(ctx, raw)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, theme)
}

type createUserRequest struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	Password string      `json:"password"`
}

func (h *Handler) handleCreateUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.services.Session.CreateUser(ctx, domain.User{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
	}, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, user)
}
