package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finback/loan-ledger/internal/domain"
	"github.com/finback/loan-ledger/internal/repository"
)

// auditor appends financial mutation records on a best-effort basis. Append
// failures never fail the primary operation; they are logged and dropped.
type auditor struct {
	repo repository.AuditRepository
	log  *logrus.Logger
}

func newAuditor(repo repository.AuditRepository, log *logrus.Logger) *auditor {
	return &auditor{repo: repo, log: log}
}

func (a *auditor) record(ctx context.Context, action, entityType string, entityID uuid.UUID, detail string) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}

	if err := a.repo.Append(ctx, entry); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
		}).Warn("audit append failed")
	}
}
