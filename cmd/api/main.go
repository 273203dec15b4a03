package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/finance-ledger/api"
	"github.com/josh-kwaku/finance-ledger/internal/config"
	"github.com/josh-kwaku/finance-ledger/internal/handler"
	"github.com/josh-kwaku/finance-ledger/internal/logging"
	"github.com/josh-kwaku/finance-ledger/internal/middleware"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
	"github.com/josh-kwaku/finance-ledger/internal/service"
	"github.com/josh-kwaku/finance-ledger/internal/service/ledger"
	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
	"github.com/josh-kwaku/finance-ledger/internal/service/recurring"
	"github.com/josh-kwaku/finance-ledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("finance-ledger", cfg.LogLevel, cfg.AppEnv)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := repository.Connect(connectCtx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
		ConnMaxIdleTime: cfg.ConnMaxIdleTime(),
	}, time.Second)
	cancelConnect()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := repository.NewDB(pool)

	userRepo := repository.NewUserRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	recurringRepo := repository.NewRecurringRepository(pool)
	loanRepo := repository.NewLoanRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	prepaymentRepo := repository.NewPrepaymentRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)
	netWorthRepo := repository.NewNetWorthRepository(pool)

	accountSvc := service.NewAccountService(accountRepo, userRepo, db)
	ledgerSvc := ledger.NewService(transactionRepo, accountRepo, tagRepo, db)
	scheduler := recurring.NewScheduler(recurringRepo, transactionRepo, accountRepo, ledgerSvc, db)
	loanSvc := loan.NewService(loanRepo, scheduleRepo, prepaymentRepo, accountRepo, ledgerSvc, db)
	netWorthSvc := service.NewNetWorthService(netWorthRepo)

	healthHandler := handler.NewHealthHandler(pool)
	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	userHandler := handler.NewUserHandler(userRepo)
	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(ledgerSvc)
	recurringHandler := handler.NewRecurringHandler(scheduler)
	loanHandler := handler.NewLoanHandler(loanSvc)
	netWorthHandler := handler.NewNetWorthHandler(netWorthSvc)

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.Auth(cfg.JWTSecret),
			middleware.Idempotency(idempotencyRepo, cfg.IdempotencyTTL),
		)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	docs := handler.Docs{Spec: api.OpenAPISpec, SpecPath: "/docs/openapi.yaml"}
	mux.HandleFunc("GET /docs", docs.ServeUI)
	mux.HandleFunc("GET /docs/openapi.yaml", docs.ServeSpec)

	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/me", protected(userHandler.Me))

	mux.Handle("POST /api/v1/accounts", protected(accountHandler.Create))
	mux.Handle("GET /api/v1/accounts", protected(accountHandler.List))
	mux.Handle("GET /api/v1/accounts/{id}", protected(accountHandler.Get))
	mux.Handle("PATCH /api/v1/accounts/{id}", protected(accountHandler.Update))
	mux.Handle("DELETE /api/v1/accounts/{id}", protected(accountHandler.Delete))
	mux.Handle("GET /api/v1/accounts/{id}/transactions", protected(transactionHandler.ListByAccount))

	mux.Handle("POST /api/v1/transactions", protected(transactionHandler.Create))
	mux.Handle("GET /api/v1/transactions/{id}", protected(transactionHandler.Get))
	mux.Handle("PUT /api/v1/transactions/{id}", protected(transactionHandler.Update))
	mux.Handle("DELETE /api/v1/transactions/{id}", protected(transactionHandler.Delete))

	mux.Handle("POST /api/v1/recurring", protected(recurringHandler.Create))
	mux.Handle("GET /api/v1/recurring", protected(recurringHandler.List))
	mux.Handle("POST /api/v1/recurring/generate", protected(recurringHandler.Generate))
	mux.Handle("GET /api/v1/recurring/{id}", protected(recurringHandler.Get))
	mux.Handle("POST /api/v1/recurring/{id}/pause", protected(recurringHandler.Pause))
	mux.Handle("POST /api/v1/recurring/{id}/resume", protected(recurringHandler.Resume))
	mux.Handle("DELETE /api/v1/recurring/{id}", protected(recurringHandler.End))

	mux.Handle("POST /api/v1/loans", protected(loanHandler.Create))
	mux.Handle("GET /api/v1/loans", protected(loanHandler.List))
	mux.Handle("GET /api/v1/loans/{id}", protected(loanHandler.Get))
	mux.Handle("POST /api/v1/loans/{id}/installments/{rowId}/pay", protected(loanHandler.PayInstallment))
	mux.Handle("POST /api/v1/loans/{id}/prepay", protected(loanHandler.Prepay))

	mux.Handle("POST /api/v1/net-worth/entries", protected(netWorthHandler.Create))
	mux.Handle("GET /api/v1/net-worth/entries", protected(netWorthHandler.List))
	mux.Handle("PATCH /api/v1/net-worth/entries/{id}", protected(netWorthHandler.Update))
	mux.Handle("DELETE /api/v1/net-worth/entries/{id}", protected(netWorthHandler.Delete))

	root := middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logging(logger),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if cfg.RecurringPollInterval > 0 {
		trigger := worker.NewRecurringTrigger(scheduler, idempotencyRepo, logger.With("component", "recurring_trigger"), cfg.RecurringPollInterval)
		go trigger.Start(workerCtx)
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
