package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/finback/loan-ledger/internal/config"
	"github.com/finback/loan-ledger/internal/repository"
	"github.com/finback/loan-ledger/internal/service"
)

// The reconciler repairs paid-flag drift between loan payments and their
// ledger records. Toggles deliberately favor availability over cross-record
// atomicity, so this job is what makes the two records eventually agree.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	syncService := service.NewSyncService(loanRepo, ledgerRepo, auditRepo, logger)

	location, err := time.LoadLocation(cfg.Reconciler.Timezone)
	if err != nil {
		logger.WithError(err).Fatal("Invalid reconciler timezone")
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))
	if _, err := c.AddFunc(cfg.Reconciler.Schedule, func() {
		runReconcile(syncService, logger)
	}); err != nil {
		logger.WithError(err).Fatal("Failed to schedule reconciliation job")
	}

	c.Start()
	logger.WithField("schedule", cfg.Reconciler.Schedule).Info("Reconciler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down reconciler...")
	<-c.Stop().Done()
	logger.Info("Reconciler stopped")
}

func runReconcile(syncService *service.SyncService, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := syncService.ReconcileAll(ctx)
	if err != nil {
		logger.WithError(err).Error("Reconciliation pass failed")
		return
	}

	logger.WithFields(logrus.Fields{
		"synced":   result.Synced,
		"reverted": result.Reverted,
	}).Info("Reconciliation pass complete")
}
