package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/finback/loan-ledger/internal/config"
	"github.com/finback/loan-ledger/internal/handler"
	"github.com/finback/loan-ledger/internal/repository"
	"github.com/finback/loan-ledger/internal/service"
	"github.com/finback/loan-ledger/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger()

	db, err := initDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	syncService := service.NewSyncService(loanRepo, ledgerRepo, auditRepo, logger)
	loanService := service.NewLoanService(loanRepo, syncService, auditRepo, logger)
	balanceService := service.NewBalanceService(ledgerRepo, entityRepo, redisClient, cfg.Redis.CacheTTL, logger)

	loanHandler := handler.NewLoanHandler(loanService, syncService)
	financeHandler := handler.NewFinanceHandler(syncService, balanceService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(loanHandler, financeHandler, healthHandler)
	router.Use(response.LoggingMiddleware(logger))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(loans *handler.LoanHandler, finance *handler.FinanceHandler, health *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", health.Health).Methods("GET")
	router.HandleFunc("/health/ready", health.Ready).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", loans.CreateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}", loans.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/schedule", loans.GenerateSchedule).Methods("POST")
	api.HandleFunc("/loans/{loanId}/payments", loans.ListPayments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", loans.CreateManualPayment).Methods("POST")
	api.HandleFunc("/payments/{paymentId}", loans.UpdatePayment).Methods("PATCH")
	api.HandleFunc("/payments/{paymentId}", loans.DeletePayment).Methods("DELETE")
	api.HandleFunc("/payments/{paymentId}/toggle", loans.TogglePayment).Methods("POST")

	api.HandleFunc("/finance/records", finance.CreateLedgerRecord).Methods("POST")
	api.HandleFunc("/reconcile", finance.Reconcile).Methods("POST")
	api.HandleFunc("/entities/{entityId}/balance", finance.EntityBalance).Methods("GET")
	api.HandleFunc("/safe/balance", finance.SafeBalance).Methods("GET")

	return router
}
