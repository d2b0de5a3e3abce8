package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/finback/loan-ledger/internal/domain"
)

type entityRepository struct {
	db *sqlx.DB
}

func NewEntityRepository(db *sqlx.DB) EntityRepository {
	return &entityRepository{db: db}
}

func (r *entityRepository) CreateEntity(ctx context.Context, entity *domain.LegalEntity) error {
	query := `
		INSERT INTO legal_entities (id, name, initial_balance, effective_from, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.InitialBalance,
		entity.EffectiveFrom,
		entity.CreatedAt,
	)

	return err
}

func (r *entityRepository) GetEntity(ctx context.Context, id uuid.UUID) (*domain.LegalEntity, error) {
	query := `
		SELECT id, name, initial_balance, effective_from, created_at
		FROM legal_entities
		WHERE id = $1
	`

	var entity domain.LegalEntity
	if err := r.db.GetContext(ctx, &entity, query, id); err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetSafeSettings reads the single well-known settings row. A reserve that
// was never configured is a defined state, reported as (nil, nil).
func (r *entityRepository) GetSafeSettings(ctx context.Context) (*domain.SafeSettings, error) {
	query := `
		SELECT initial_balance, effective_from, updated_at
		FROM safe_settings
		WHERE singleton = TRUE
	`

	var settings domain.SafeSettings
	err := r.db.GetContext(ctx, &settings, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func (r *entityRepository) SaveSafeSettings(ctx context.Context, settings *domain.SafeSettings) error {
	query := `
		INSERT INTO safe_settings (singleton, initial_balance, effective_from, updated_at)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (singleton) DO UPDATE
		SET initial_balance = EXCLUDED.initial_balance,
			effective_from = EXCLUDED.effective_from,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.InitialBalance,
		settings.EffectiveFrom,
		time.Now(),
	)

	return err
}
