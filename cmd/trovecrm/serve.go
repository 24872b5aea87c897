package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/robtrove/TroveCRM/internal/config"
	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/infra/database"
	"github.com/robtrove/TroveCRM/internal/infra/gateway"
	"github.com/robtrove/TroveCRM/internal/infra/repository"
	"github.com/robtrove/TroveCRM/internal/interface/rest"
	restmw "github.com/robtrove/TroveCRM/internal/interface/rest/middleware"
	applog "github.com/robtrove/TroveCRM/internal/logger"
	"github.com/robtrove/TroveCRM/internal/policy"
	"github.com/robtrove/TroveCRM/internal/service"
	"github.com/robtrove/TroveCRM/internal/telemetry"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

const serviceName = "trovecrm"

var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the CRM API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.Server.DatabaseDriver, cfg.Server.DatabaseDsn, logger)
		if err != nil {
			return errors.Wrap(err, "failed to connect database")
		}
		if err := database.Migrate(db); err != nil {
			return errors.Wrap(err, "failed to migrate database")
		}
		logger.Info("database migrated")
		return nil
	},
}

type billingDisabled struct{}

func (billingDisabled) err() error {
	return domain.ValidationError{Field: "billing", Message: "no billing provider configured"}
}
func (b billingDisabled) Subscriptions(context.Context, string) ([]domain.Subscription, error) {
	return nil, b.err()
}
func (b billingDisabled) Invoices(context.Context, string) ([]domain.Invoice, error) {
	return nil, b.err()
}
func (b billingDisabled) CheckoutSession(context.Context, string, string) (domain.HostedSession, error) {
	return domain.HostedSession{}, b.err()
}
func (b billingDisabled) PortalSession(context.Context, string) (domain.HostedSession, error) {
	return domain.HostedSession{}, b.err()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := applog.New(cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.EnableTrace {
		shutdown, err := telemetry.SetupTraceProvider(ctx, cfg.Server.TraceEndpoint, serviceName, version)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn("trace provider shutdown failed", zap.Error(err))
			}
		}()
	}

	db, err := database.Open(cfg.Server.DatabaseDriver, cfg.Server.DatabaseDsn, log)
	if err != nil {
		return errors.Wrap(err, "failed to connect database")
	}
	if err := database.Migrate(db); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	rdb := database.NewRedis(cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
	if err := database.PingRedis(ctx, rdb); err != nil {
		return err
	}
	defer rdb.Close()

	var mc *memcache.Client
	if cfg.Server.MemcachedAddr != "" {
		mc = database.NewMemcached(cfg.Server.MemcachedAddr)
	}

	signalService := service.NewSignalService(rdb, log)

	stores := repository.NewStores(db)
	customers := usecase.NewEntityService[domain.Customer](stores.Customers, domain.CustomerSchema, signalService, log)
	campaigns := usecase.NewEntityService[domain.Campaign](stores.Campaigns, domain.CampaignSchema, signalService, log)
	deals := usecase.NewEntityService[domain.Deal](stores.Deals, domain.DealSchema, signalService, log)
	tickets := usecase.NewEntityService[domain.Ticket](stores.Tickets, domain.TicketSchema, signalService, log)
	articles := usecase.NewEntityService[domain.Article](stores.Articles, domain.ArticleSchema, signalService, log)

	var billing usecase.BillingGateway = billingDisabled{}
	if cfg.Billing.Enabled() {
		billing = gateway.NewBillingGateway(cfg.Billing.BaseURL, cfg.Billing.APIKey, cfg.Billing.CacheDuration())
	}

	sessionUsecase := usecase.NewSessionUsecase(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(rdb),
		cfg.Server.SessionDuration(),
	)
	authService := service.NewAuthService(sessionUsecase, policy.NewAuthorizer(policy.DefaultPolicy()))

	handler := rest.NewHandler(rest.Services{
		Customers:       customers,
		Campaigns:       campaigns,
		Deals:           deals,
		Tickets:         tickets,
		Articles:        articles,
		Pipeline:        usecase.NewPipelineUsecase(deals),
		CampaignMetrics: usecase.NewCampaignUsecase(campaigns),
		TicketActions:   usecase.NewTicketUsecase(tickets),
		Dashboard:       usecase.NewDashboardUsecase(customers, tickets, deals, campaigns),
		Settings:        usecase.NewSettingsUsecase(repository.NewSettingsRepository(db, mc, log)),
		Session:         sessionUsecase,
		Billing:         usecase.NewBillingUsecase(customers, billing),
		Signal:          signalService,
	}, restmw.NewAuthMiddleware(authService), log, cfg.Server.SecureCookie)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if cfg.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
			} else {
				log.Info("request", fields...)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if len(cfg.Server.CorsOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Server.CorsOrigins,
			AllowCredentials: true,
		}))
	}
	handler.RegisterRoutes(e)

	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := e.Start(cfg.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
