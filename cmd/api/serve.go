package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/application"
	"github.com/calicode24/calicode/internal/application/accounts"
	aiapp "github.com/calicode24/calicode/internal/application/ai"
	"github.com/calicode24/calicode/internal/application/analysis"
	"github.com/calicode24/calicode/internal/application/billing"
	appprojects "github.com/calicode24/calicode/internal/application/projects"
	"github.com/calicode24/calicode/internal/config"
	aidomain "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/infra/ai/gemini"
	"github.com/calicode24/calicode/internal/infra/ai/openai"
	stripegw "github.com/calicode24/calicode/internal/infra/billing/stripe"
	"github.com/calicode24/calicode/internal/infra/db"
	"github.com/calicode24/calicode/internal/infra/db/migrations"
	"github.com/calicode24/calicode/internal/infra/db/sqlrepo"
	"github.com/calicode24/calicode/internal/infra/email"
	"github.com/calicode24/calicode/internal/infra/httpserver"
	"github.com/calicode24/calicode/internal/infra/identity/gotrue"
	"github.com/calicode24/calicode/internal/infra/identity/local"
	"github.com/calicode24/calicode/internal/infra/identity/session"
	"github.com/calicode24/calicode/internal/infra/markdown"
	"github.com/calicode24/calicode/internal/infra/pdftext"
	"github.com/calicode24/calicode/internal/infra/storage"
	"github.com/calicode24/calicode/internal/logger"
	"github.com/calicode24/calicode/internal/middleware"
	"github.com/calicode24/calicode/internal/web"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
	bucketIdle      = 10 * time.Minute
)

func runServe(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.NewRunner(cfg, log).Up(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect error: %w", cfg.Database.Driver, err)
	}
	defer conn.Close()

	loc, err := time.LoadLocation(cfg.Server.Location)
	if err != nil {
		return fmt.Errorf("server.location: %w", err)
	}
	clock := application.LocationClock{Loc: loc}

	profiles := sqlrepo.NewProfileRepository(conn)
	projects := sqlrepo.NewProjectRepository(conn)
	docs := sqlrepo.NewDocumentRepository(conn)
	reports := sqlrepo.NewReportRepository(conn)

	health := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: conn.DB},
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Warn("storage bucket not ready, uploads will not be persisted until it is", "bucket", cfg.Storage.Bucket, "error", err)
	}
	health["storage"] = store

	text := pdftext.Extractor{}
	classifier := aiapp.NewService(newAIClient(cfg, text, log), log)

	provider, verifier := newIdentity(cfg, conn, health)

	var mailer accounts.Mailer = email.NopMailer{Log: log}
	if cfg.Email.Enabled {
		mailer = email.NewSMTPMailer(cfg.Email, log)
	}

	pages, err := web.New(markdown.NewRenderer())
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	go limiter.RunSweeper(ctx, sweepInterval, bucketIdle)

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis: &analysis.Service{
			Encoder:    documents.NewEncoder(cfg.MaxUploadBytes()),
			Classifier: classifier,
			Projects:   projects,
			Documents:  docs,
			Reports:    reports,
			Store:      store,
			Text:       text,
			Clock:      clock,
			Log:        log,
		},
		Accounts: &accounts.Service{
			Identity:         provider,
			Profiles:         profiles,
			Mailer:           mailer,
			AppURL:           cfg.Server.AppURL,
			SendVerification: cfg.Email.SendVerification,
			Clock:            clock,
			Log:              log,
		},
		Billing: &billing.Service{
			Gateway:  stripegw.NewGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil),
			Profiles: profiles,
			PriceID:  cfg.Stripe.ProPriceID,
			AppURL:   cfg.Server.AppURL,
			Log:      log,
		},
		Projects: &appprojects.Service{
			Projects:  projects,
			Documents: docs,
			Reports:   reports,
			Profiles:  profiles,
			Clock:     clock,
			Log:       log,
		},
		Verifier:     verifier,
		Pages:        pages,
		Health:       health,
		Limiter:      limiter,
		AppURL:       cfg.Server.AppURL,
		MaxUpload:    cfg.MaxUploadBytes(),
		CookieSecure: cfg.Server.CookieSecure,
		Log:          log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "ai_provider", cfg.AI.Provider, "auth_provider", cfg.Auth.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// newAIClient returns nil when the selected provider has no key, which
// puts the classifier in demo mode.
func newAIClient(cfg *config.Config, text documents.TextExtractor, log logger.Interface) aidomain.Client {
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAIAPIKey != "" {
			return openai.NewClient(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel, text)
		}
	default:
		if cfg.AI.GeminiAPIKey != "" {
			return gemini.NewClient(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, cfg.AI.GeminiBaseURL, cfg.AI.Timeout)
		}
	}
	log.Warn("no AI API key configured, serving demo analyses", "provider", cfg.AI.Provider)
	return nil
}

func newIdentity(cfg *config.Config, conn *sqlx.DB, health map[string]middleware.HealthChecker) (identity.Provider, identity.Verifier) {
	sessions := session.NewService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if cfg.Auth.Provider == "local" {
		return local.NewProvider(sqlrepo.NewCredentialRepository(conn), sessions, cfg.Auth.BcryptCost), sessions
	}
	client := gotrue.NewClient(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseAnonKey, cfg.Auth.SupabaseServiceRoleKey)
	health["auth"] = client
	return client, sessions
}
