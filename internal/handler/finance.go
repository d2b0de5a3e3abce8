package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/finback/loan-ledger/internal/domain"
	"github.com/finback/loan-ledger/internal/service"
	"github.com/finback/loan-ledger/pkg/response"
)

// FinanceHandler exposes the ledger, reconciliation and balance operations.
type FinanceHandler struct {
	sync      *service.SyncService
	balances  *service.BalanceService
	validator *validator.Validate
}

func NewFinanceHandler(sync *service.SyncService, balances *service.BalanceService) *FinanceHandler {
	return &FinanceHandler{
		sync:      sync,
		balances:  balances,
		validator: validator.New(),
	}
}

func (h *FinanceHandler) CreateLedgerRecord(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLedgerRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	record, err := h.sync.CreateLedgerRecord(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, record)
}

func (h *FinanceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.ReconcileAll(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *FinanceHandler) EntityBalance(w http.ResponseWriter, r *http.Request) {
	entityID, ok := pathUUID(w, r, "entityId")
	if !ok {
		return
	}

	balance, err := h.balances.LegalEntityBalance(r.Context(), entityID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.BalanceResponse{Balance: balance})
}

func (h *FinanceHandler) SafeBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.balances.SafeBalance(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.BalanceResponse{Balance: balance})
}
