package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/auth"
	"github.com/RaniyaAK/arts/internal/commission"
	commissionStore "github.com/RaniyaAK/arts/internal/commission/store"
	"github.com/RaniyaAK/arts/internal/config"
	"github.com/RaniyaAK/arts/internal/database"
	"github.com/RaniyaAK/arts/internal/export"
	artsHttp "github.com/RaniyaAK/arts/internal/http"
	adminHandler "github.com/RaniyaAK/arts/internal/http/admin"
	authHandler "github.com/RaniyaAK/arts/internal/http/auth"
	commissionHandler "github.com/RaniyaAK/arts/internal/http/commission"
	exportHandler "github.com/RaniyaAK/arts/internal/http/export"
	notificationHandler "github.com/RaniyaAK/arts/internal/http/notification"
	paymentHandler "github.com/RaniyaAK/arts/internal/http/payment"
	txHandler "github.com/RaniyaAK/arts/internal/http/transaction"
	"github.com/RaniyaAK/arts/internal/identity"
	identityStore "github.com/RaniyaAK/arts/internal/identity/store"
	"github.com/RaniyaAK/arts/internal/logger"
	"github.com/RaniyaAK/arts/internal/money"
	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/notification/live"
	notificationStore "github.com/RaniyaAK/arts/internal/notification/store"
	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/payment/gateway"
	"github.com/RaniyaAK/arts/internal/payment/intent"
	"github.com/RaniyaAK/arts/internal/transaction"
	txStore "github.com/RaniyaAK/arts/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.PrettyLog)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	hub := live.NewHub(log)

	var (
		notificationService = notification.NewService(notificationStore.New(db), hub, log)
		identityService     = identity.NewService(identityStore.New(db), notificationService, log)
		commissionService   = commission.NewService(commissionStore.New(db), identityService, notificationService, log)
		transactionService  = transaction.NewService(txStore.New(db))
		exportService       = export.NewService(transactionService, money.NewFormatter(cfg.CurrencyUnit()))
		paymentService      = payment.NewService(
			commissionService,
			gateway.New(cfg.Payment.BaseURL, cfg.Payment.ClientID, cfg.Payment.ClientSecret, cfg.Server.Timeout),
			intent.New(rdb, cfg.Redis.IntentTTL),
			payment.Options{
				Currency:  cfg.Payment.Currency,
				ReturnURL: cfg.Payment.ReturnURL,
				CancelURL: cfg.Payment.CancelURL,
			},
			log,
		)
	)

	if cfg.Auth.AdminEmail != "" {
		if _, err := identityService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
			return fmt.Errorf("ensuring admin account: %w", err)
		}
	}

	tokens := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.App.Name)

	router := artsHttp.New(artsHttp.Handlers{
		Auth:          authHandler.NewHandler(identityService, tokens),
		Commissions:   commissionHandler.NewHandler(commissionService),
		Payments:      paymentHandler.NewHandler(paymentService),
		Transactions:  txHandler.NewHandler(transactionService),
		Export:        exportHandler.NewHandler(exportService),
		Notifications: notificationHandler.NewHandler(notificationService, hub, cfg.Server.AllowedOrigins),
		Admin:         adminHandler.NewHandler(identityService, commissionService, transactionService),
	}, tokens, cfg.Server.AllowedOrigins, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")

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

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
