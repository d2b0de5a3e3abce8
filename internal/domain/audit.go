package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the engine.
const (
	AuditScheduleGenerated = "schedule_generated"
	AuditPaymentCreated    = "payment_created"
	AuditPaymentUpdated    = "payment_updated"
	AuditPaymentDeleted    = "payment_deleted"
	AuditPaymentToggled    = "payment_toggled"
	AuditLedgerCreated     = "ledger_record_created"
	AuditReconcileRun      = "reconcile_run"
)

// AuditEntry is one row of the append-only financial mutation log.
type AuditEntry struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id" db:"entity_id"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
