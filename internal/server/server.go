// Package server implements the demo upstream banking API consumed by the
// client library.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/dambor/ai-mobile-bank/internal/ledger"
)

// Server holds the API handlers and their collaborators.
type Server struct {
	store  ledger.Store
	logger *slog.Logger
}

// New creates a Server over the given store.
func New(store ledger.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{store: store, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/customers/{customerID}/balance", s.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/customers/{customerID}/transactions", s.handleListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/customers/{customerID}/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	r.HandleFunc("/customers/{customerID}/transactions/{transactionID}", s.handleGetTransaction).Methods(http.MethodGet)

	r.Use(s.logRequests)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

type balanceResponse struct {
	CustomerID string `json:"customer_id"`
	Balance    string `json:"balance"`
	Currency   string `json:"currency"`
}

type transactionResponse struct {
	CustomerID           string `json:"customer_id"`
	TransactionID        string `json:"transaction_id"`
	Amount               string `json:"amount"`
	Currency             string `json:"currency"`
	TransactionType      string `json:"transaction_type"`
	MerchantName         string `json:"merchant_name"`
	Description          string `json:"description"`
	Status               string `json:"status"`
	BalanceSnapshot      string `json:"balance_snapshot"`
	TransactionTimestamp string `json:"transaction_timestamp,omitempty"`
}

type createTransactionRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	TransactionType string          `json:"transaction_type"`
	MerchantName    string          `json:"merchant_name"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Bank Transactions API"})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerID")
	if !ok {
		return
	}

	balance, err := s.store.Balance(r.Context(), customerID)
	if err != nil {
		s.serverError(w, "computing balance", err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		CustomerID: customerID.String(),
		Balance:    balance.Amount.StringFixed(2),
		Currency:   balance.Currency,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerID")
	if !ok {
		return
	}

	records, err := s.store.ListTransactions(r.Context(), customerID)
	if err != nil {
		s.serverError(w, "listing transactions", err)
		return
	}

	out := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResponse(rec))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerID")
	if !ok {
		return
	}
	transactionID, ok := pathUUID(w, r, "transactionID")
	if !ok {
		return
	}

	rec, err := s.store.GetTransaction(r.Context(), customerID, transactionID)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		s.serverError(w, "fetching transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(rec))
}

// handleCreateTransaction records a new transaction, stamping it with a
// balance snapshot computed from the customer's current balance.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerID")
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := s.store.Balance(r.Context(), customerID)
	if err != nil {
		s.serverError(w, "computing balance", err)
		return
	}

	// Snapshot arithmetic must agree with the balance endpoint: only an
	// explicit DEBIT subtracts.
	txnType := strings.ToUpper(req.TransactionType)
	snapshot := balance.Amount.Add(req.Amount)
	if txnType == ledger.TypeDebit {
		snapshot = balance.Amount.Sub(req.Amount)
	}

	rec := ledger.Record{
		CustomerID:      customerID,
		TransactionID:   uuid.New(),
		Amount:          req.Amount,
		Currency:        req.Currency,
		TransactionType: txnType,
		MerchantName:    req.MerchantName,
		Description:     req.Description,
		Status:          req.Status,
		BalanceSnapshot: snapshot,
		Timestamp:       time.Now(),
	}

	if err := s.store.Insert(r.Context(), rec); err != nil {
		s.serverError(w, "inserting transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(rec))
}

func toResponse(rec ledger.Record) transactionResponse {
	resp := transactionResponse{
		CustomerID:      rec.CustomerID.String(),
		TransactionID:   rec.TransactionID.String(),
		Amount:          rec.Amount.StringFixed(2),
		Currency:        rec.Currency,
		TransactionType: rec.TransactionType,
		MerchantName:    rec.MerchantName,
		Description:     rec.Description,
		Status:          rec.Status,
		BalanceSnapshot: rec.BalanceSnapshot.StringFixed(2),
	}
	if !rec.Timestamp.IsZero() {
		resp.TransactionTimestamp = rec.Timestamp.Format(time.RFC3339)
	}
	return resp
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.UUID{}, false
	}
	return id, true
}

func (s *Server) serverError(w http.ResponseWriter, action string, err error) {
	s.logger.Error(action, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
