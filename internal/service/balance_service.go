package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finback/loan-ledger/internal/repository"
	engineErrors "github.com/finback/loan-ledger/pkg/errors"
)

// BalanceService computes point-in-time running balances from a baseline
// plus filtered ledger aggregates. Pure reads; results are cached briefly
// in redis on a best-effort basis.
type BalanceService struct {
	ledgerRepo repository.LedgerRepository
	entityRepo repository.EntityRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	log        *logrus.Logger
}

func NewBalanceService(
	ledgerRepo repository.LedgerRepository,
	entityRepo repository.EntityRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	log *logrus.Logger,
) *BalanceService {
	return &BalanceService{
		ledgerRepo: ledgerRepo,
		entityRepo: entityRepo,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// LegalEntityBalance computes an entity's running balance: the configured
// baseline plus income minus plain expenses, counting only ledger activity
// dated on or after the entity's effective date. Stakeholder-fronted and
// loan-linked expenses are excluded; each lives in its own subledger and
// would double-count here.
func (s *BalanceService) LegalEntityBalance(ctx context.Context, entityID uuid.UUID) (decimal.Decimal, error) {
	cacheKey := "balance:entity:" + entityID.String()
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	entity, err := s.entityRepo.GetEntity(ctx, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, engineErrors.WrapEntityNotFound(entityID.String())
	}
	if err != nil {
		return decimal.Zero, engineErrors.WrapStorageError(err)
	}

	income, err := s.ledgerRepo.EntityIncomeTotal(ctx, entityID, entity.EffectiveFrom)
	if err != nil {
		return decimal.Zero, engineErrors.WrapStorageError(err)
	}

	expense, err := s.ledgerRepo.EntityExpenseTotal(ctx, entityID, entity.EffectiveFrom)
	if err != nil {
		return decimal.Zero, engineErrors.WrapStorageError(err)
	}

	balance := entity.InitialBalance.Add(income).Sub(expense)
	s.cacheSet(ctx, cacheKey, balance)

	return balance, nil
}

// SafeBalance computes the shared reserve's balance: its baseline minus
// reserve-flagged expenses from the effective date onward. The reserve has
// no income side; deposits are out of scope. An unconfigured reserve is
// worth zero, not an error.
func (s *BalanceService) SafeBalance(ctx context.Context) (decimal.Decimal, error) {
	const cacheKey = "balance:safe"
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	settings, err := s.entityRepo.GetSafeSettings(ctx)
	if err != nil {
		return decimal.Zero, engineErrors.WrapStorageError(err)
	}
	if settings == nil {
		return decimal.Zero, nil
	}

	expense, err := s.ledgerRepo.SafeExpenseTotal(ctx, settings.EffectiveFrom)
	if err != nil {
		return decimal.Zero, engineErrors.WrapStorageError(err)
	}

	balance := settings.InitialBalance.Sub(expense)
	s.cacheSet(ctx, cacheKey, balance)

	return balance, nil
}

func (s *BalanceService) cacheGet(ctx context.Context, key string) (decimal.Decimal, bool) {
	if s.cache == nil {
		return decimal.Zero, false
	}

	raw, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("balance cache read failed")
		return decimal.Zero, false
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func (s *BalanceService) cacheSet(ctx context.Context, key string, value decimal.Decimal) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value.String(), s.cacheTTL).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("balance cache write failed")
	}
}
