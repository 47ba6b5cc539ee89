package api

import (
	"bioledger/internal/auth"
	"bioledger/internal/domain"
	"bioledger/internal/processor"
	"bioledger/internal/repository"
	"bioledger/pkg/metrics"
	"bioledger/pkg/validator"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const sessionTokenHeader = "X-Session-Token"

type APIHandler struct {
	processor      *processor.TransactionProcessor
	authenticator  *auth.Authenticator
	metrics        *metrics.MetricsCollector
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	processor *processor.TransactionProcessor,
	authenticator *auth.Authenticator,
	metrics *metrics.MetricsCollector,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		processor:      processor,
		authenticator:  authenticator,
		metrics:        metrics,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type AuthenticateRequest struct {
	Template []byte `json:"template"`
}

type AuthenticateResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type TransactRequest struct {
	Kind   domain.OperationKind `json:"kind"`
	Amount decimal.Decimal      `json:"amount"`
}

type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type EnrollRequest struct {
	AccountID      string          `json:"account_id"`
	Name           string          `json:"name"`
	Template       []byte          `json:"template"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type DeactivateRequest struct {
	AccountID string `json:"account_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *APIHandler) AuthenticateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	session, err := h.authenticator.Authenticate(ctx, req.Template)
	h.metrics.RecordAuthAttempt(err == nil)
	if err != nil {
		// One code for no-match and ambiguous alike.
		h.sendError(w, "Authentication failed", http.StatusUnauthorized, "AUTH_FAILED")
		return
	}

	h.sendJSON(w, AuthenticateResponse{
		SessionToken: session.Token,
		ExpiresAt:    session.ExpiresAt,
	}, http.StatusOK)
}

func (h *APIHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.processor.Execute(ctx, h.token(r), domain.KindInquiry, decimal.Zero)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	h.sendJSON(w, BalanceResponse{AccountID: result.AccountID, Balance: result.Balance}, http.StatusOK)
}

func (h *APIHandler) TransactHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req TransactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	result, err := h.processor.Execute(ctx, h.token(r), req.Kind, req.Amount)
	h.metrics.RecordTransaction(time.Since(startTime), err == nil)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	balance, _ := result.Balance.Float64()
	h.metrics.UpdateAccountBalance(result.AccountID, balance)

	h.sendJSON(w, BalanceResponse{AccountID: result.AccountID, Balance: result.Balance}, http.StatusOK)
	h.logger.Info("Transaction processed",
		slog.String("account_id", result.AccountID),
		slog.String("kind", string(req.Kind)))
}

func (h *APIHandler) LedgerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	entries, err := h.processor.History(ctx, h.token(r))
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	h.sendJSON(w, entries, http.StatusOK)
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authenticator.Logout(h.token(r)); err != nil {
		h.sendDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) EnrollHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.AccountID == "" {
		h.sendError(w, "account_id is required", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.processor.Enroll(ctx, req.AccountID, req.Name, req.Template, req.InitialBalance); err != nil {
		h.sendDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	h.logger.Info("Enrollment accepted", slog.String("account_id", req.AccountID))
}

func (h *APIHandler) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req DeactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.processor.Deactivate(ctx, req.AccountID); err != nil {
		h.sendDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) token(r *http.Request) string {
	if token := r.Header.Get(sessionTokenHeader); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// sendDomainError maps every engine error to a stable, distinguishable
// status so callers can render a message without inspecting internals.
func (h *APIHandler) sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		h.sendError(w, "Authentication failed", http.StatusUnauthorized, "AUTH_FAILED")
	case errors.Is(err, domain.ErrSessionExpired):
		h.sendError(w, "Session expired", http.StatusUnauthorized, "SESSION_EXPIRED")
	case errors.Is(err, domain.ErrSessionInvalid):
		h.sendError(w, "Session invalid", http.StatusUnauthorized, "SESSION_INVALID")
	case errors.Is(err, domain.ErrInvalidAmount):
		h.sendError(w, "Invalid amount", http.StatusBadRequest, "INVALID_AMOUNT")
	case errors.Is(err, validator.ErrBadTemplate):
		h.sendError(w, "Malformed template", http.StatusBadRequest, "BAD_TEMPLATE")
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.sendError(w, "Insufficient funds", http.StatusConflict, "INSUFFICIENT_FUNDS")
	case errors.Is(err, domain.ErrLimitExceeded):
		h.sendError(w, "Transaction limit exceeded", http.StatusUnprocessableEntity, "LIMIT_EXCEEDED")
	case errors.Is(err, domain.ErrAccountInactive):
		h.sendError(w, "Account inactive", http.StatusForbidden, "ACCOUNT_INACTIVE")
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, "Not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, repository.ErrDuplicate):
		h.sendError(w, "Already exists", http.StatusConflict, "DUPLICATE")
	case errors.Is(err, repository.ErrUnavailable):
		h.sendError(w, "Store unavailable", http.StatusServiceUnavailable, "UNAVAILABLE")
	default:
		h.sendError(w, "Internal error", http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/authenticate", h.AuthenticateHandler)
	mux.HandleFunc("GET /api/v1/balance", h.BalanceHandler)
	mux.HandleFunc("POST /api/v1/transactions", h.TransactHandler)
	mux.HandleFunc("GET /api/v1/ledger", h.LedgerHandler)
	mux.HandleFunc("POST /api/v1/logout", h.LogoutHandler)
	mux.HandleFunc("POST /api/v1/admin/enroll", h.EnrollHandler)
	mux.HandleFunc("POST /api/v1/admin/deactivate", h.DeactivateHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
