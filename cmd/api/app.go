package main

import (
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sangkips/quickbill-api/internal/application/service"
	"github.com/sangkips/quickbill-api/internal/config"
	"github.com/sangkips/quickbill-api/internal/infrastructure/database"
	"github.com/sangkips/quickbill-api/internal/infrastructure/repository"
	"github.com/sangkips/quickbill-api/internal/presentation/http/handler"
	"github.com/sangkips/quickbill-api/internal/presentation/http/routes"
	"github.com/sangkips/quickbill-api/pkg/email"
	"github.com/sangkips/quickbill-api/pkg/oauth"
	"github.com/sangkips/quickbill-api/pkg/pdf"
	"github.com/sangkips/quickbill-api/pkg/utils"
	"gorm.io/gorm"
)

// app is the wired object graph shared by the subcommands
type app struct {
	db       *gorm.DB
	handlers *routes.Handlers
	deps     *routes.Deps
	invoices *service.InvoiceService
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func initSentry(cfg *config.SentryConfig) func() {
	if cfg.DSN == "" {
		log.Println("Sentry initialization skipped, no SENTRY_DSN set")
		return func() {}
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	}); err != nil {
		log.Printf("Sentry initialization failed: %v", err)
		return func() {}
	}

	log.Printf("Sentry initialized, release %q, environment %q", cfg.Release, cfg.Environment)
	return func() { sentry.Flush(2 * time.Second) }
}

func buildApp(cfg *config.Config) (*app, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	estimateRepo := repository.NewEstimateRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	sender, err := email.NewSender(email.Config{
		Provider:       cfg.Email.Provider,
		SMTPHost:       cfg.Email.SMTPHost,
		SMTPPort:       cfg.Email.SMTPPort,
		SMTPUsername:   cfg.Email.SMTPUsername,
		SMTPPassword:   cfg.Email.SMTPPassword,
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromName:       cfg.Email.FromName,
		FromEmail:      cfg.Email.FromEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure email: %w", err)
	}

	renderer := pdf.NewRenderer(cfg.App.Currency)

	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	authService := service.NewAuthService(userRepo, jwtManager, googleOAuthService)
	clientService := service.NewClientService(clientRepo)
	invoiceService := service.NewInvoiceService(
		invoiceRepo, clientRepo, userRepo, sender, renderer,
		service.WithDispatchTimeout(cfg.Dispatch.Timeout),
		service.WithSweepBatch(cfg.Dispatch.SweepBatch),
	)
	estimateService := service.NewEstimateService(
		estimateRepo, invoiceRepo, clientRepo, userRepo, sender, cfg.Dispatch.Timeout,
	)
	dashboardService := service.NewDashboardService(analyticsRepo)

	handlers := &routes.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.OAuthRedirects{
			SuccessURL: googleOAuthService.GetFrontendSuccessURL(),
			ErrorURL:   googleOAuthService.GetFrontendErrorURL(),
			Secure:     cfg.App.Env == "production",
		}),
		Client:    handler.NewClientHandler(clientService),
		Invoice:   handler.NewInvoiceHandler(invoiceService),
		Estimate:  handler.NewEstimateHandler(estimateService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}

	return &app{
		db:       db,
		handlers: handlers,
		deps: &routes.Deps{
			JWTManager:      jwtManager,
			Cfg:             cfg,
			IdempotencyRepo: idempotencyRepo,
		},
		invoices: invoiceService,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
