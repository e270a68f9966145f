// @title Alterations Manager API
// @version 1.0
// @description Backend para talleres de arreglos: clientes, órdenes, prendas por etapa, citas, timer y cobros.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alterations-manager/internal/adapters/auth/identity"
	"alterations-manager/internal/adapters/notify/lognotify"
	"alterations-manager/internal/adapters/notify/rabbitmq"
	"alterations-manager/internal/adapters/payments/stripe"
	"alterations-manager/internal/adapters/storage/postgres"
	"alterations-manager/internal/domain/payments"
	"alterations-manager/internal/jobs/reminders"
	"alterations-manager/internal/middleware"
	"alterations-manager/internal/platform/config"
	"alterations-manager/internal/platform/logger"
	"alterations-manager/internal/ports/auth"
	"alterations-manager/internal/ports/notify"
	payport "alterations-manager/internal/ports/payments"
	"alterations-manager/internal/router"
)

const upstreamTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		var err error
		db, err = postgres.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.DBAutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				return err
			}
			log.Info("migrations applied", nil)
		}
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("auth not configured, dev mode (X-Debug-User-ID)", nil)
	}

	var provider payport.Provider
	if cfg.Payments.SecretKey != "" {
		c, err := stripe.NewClient(stripe.Config{
			BaseURL:   cfg.Payments.BaseURL,
			SecretKey: cfg.Payments.SecretKey,
			Timeout:   upstreamTimeout,
		})
		if err != nil {
			return err
		}
		provider = c
	}

	var pub notify.Publisher = lognotify.New(log)
	if cfg.Messaging.AMQPURL != "" {
		p, err := rabbitmq.Dial(cfg.Messaging.AMQPURL, cfg.Messaging.Exchange)
		if err != nil {
			return err
		}
		defer func() {
			if err := p.Close(); err != nil {
				log.Warn("amqp close", map[string]any{"error": err.Error()})
			}
		}()
		pub = p
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	go sweepLimiter(ctx, limiter)

	handler, svc := router.Build(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Logger:       log,
		Publisher:    pub,
		Payments:     provider,
		PaymentsOptions: payments.Options{
			WebhookSecret:    cfg.Payments.WebhookSecret,
			WebhookTolerance: cfg.Payments.WebhookTolerance,
			Country:          cfg.Payments.Country,
		},
		RateLimiter: limiter,
	})

	if cfg.Reminders.Enabled {
		job, err := reminders.New(svc.Appointments, reminders.Options{
			Schedule: cfg.Reminders.Schedule,
			Lead:     cfg.Reminders.Lead,
		}, log)
		if err != nil {
			return err
		}
		job.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			job.Stop(sctx)
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newVerifier devuelve nil (modo dev) si no hay secreto ni identity provider.
func newVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	if cfg.JWTSecret == "" && cfg.BaseURL == "" {
		return nil, nil
	}
	client, err := identity.NewClient(identity.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: upstreamTimeout,
	})
	if err != nil {
		return nil, err
	}
	return identity.NewVerifier(cfg.JWTSecret, client), nil
}

func sweepLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Cleanup(10 * time.Minute)
		}
	}
}
