// Package web exposes the banking façade over HTTP with a fixed JSON
// envelope.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/JustKiet/finkeith/internal/domain"
	"github.com/JustKiet/finkeith/internal/services/banking"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// BankingService is the façade surface the HTTP layer depends on.
type BankingService interface {
	GetTransactionHistory(ctx context.Context, req banking.HistoryRequest) (banking.HistoryResult, error)
	CountTransactions(ctx context.Context, req banking.CountRequest) (int, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	GetBalance(ctx context.Context, accountNumber string) (banking.BalanceResult, error)
}

// Server serves the banking REST API.
type Server struct {
	addr    string
	service BankingService
	logger  *zap.Logger
}

// NewServer creates the HTTP server for the banking API.
func NewServer(addr string, service BankingService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{addr: addr, service: service, logger: logger}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/banking/health", s.handleHealth)
	mux.HandleFunc("POST /v1/banking/transactions/history", s.handleHistory)
	mux.HandleFunc("POST /v1/banking/transactions/count", s.handleCount)
	mux.HandleFunc("POST /v1/banking/account/balance", s.handleBalance)
	mux.HandleFunc("GET /v1/banking/transactions/{id}", s.handleGetTransaction)

	return withRequestID(withLogging(s.logger, mux))
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("banking api listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic certificates via
// ACME. An HTTP server on port 80 handles the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	server := &http.Server{
		Addr:              ":443",
		Handler:           s.Handler(),
		TLSConfig:         &tls.Config{GetCertificate: manager.GetCertificate},
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	challengeServer := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := challengeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme challenge server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		_ = challengeServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("banking api listening with auto tls", zap.Strings("domains", domains))
	if err := server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	services := map[string]string{"sepay_api": "healthy"}
	if s.service == nil {
		status = "degraded"
		services["sepay_api"] = "unhealthy"
	}

	writeSuccess(w, http.StatusOK, healthResponse{
		Status:   status,
		Version:  Version,
		Services: services,
	}, "health check completed")
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	result, err := s.service.GetTransactionHistory(r.Context(), banking.HistoryRequest{
		AccountNumber: req.AccountNumber,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		Limit:         req.Limit,
		ReferenceID:   req.ReferenceID,
		AmountIn:      req.AmountIn,
		AmountOut:     req.AmountOut,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	transactions := make([]transactionResponse, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		transactions = append(transactions, toTransactionResponse(tx))
	}

	writeSuccess(w, http.StatusOK, historyResponse{
		Transactions: transactions,
		TotalCount:   result.TotalCount,
		SkippedCount: result.Skipped,
	}, "transaction history retrieved")
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	count, err := s.service.CountTransactions(r.Context(), banking.CountRequest{
		AccountNumber: req.AccountNumber,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		SinceID:       req.SinceID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, countResponse{
		AccountNumber: req.AccountNumber,
		Count:         count,
	}, "transaction count retrieved")
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	result, err := s.service.GetBalance(r.Context(), req.AccountNumber)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := balanceResponse{
		AccountNumber: result.Snapshot.AccountNumber,
		Balance:       result.Snapshot.Balance.String(),
		Currency:      result.Snapshot.Currency,
		AsOf:          result.Snapshot.AsOf,
	}
	if result.Inconsistency != nil {
		resp.Inconsistency = &inconsistencyDetail{
			RecordID: result.Inconsistency.TransactionID,
			Computed: result.Inconsistency.Computed.String(),
			Reported: result.Inconsistency.Reported.String(),
		}
	}

	writeSuccess(w, http.StatusOK, resp, "balance retrieved")
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.service.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toTransactionResponse(tx), "transaction retrieved")
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *domain.ValidationError
		malformedErr   *domain.MalformedRecordError
		rejectedErr    *domain.UpstreamRejectedError
		unavailableErr *domain.UpstreamUnavailableError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error(), "validation_failed")
	case errors.Is(err, domain.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "transaction not found", "not_found")
	case errors.As(err, &malformedErr):
		writeError(w, http.StatusBadGateway, "provider returned a malformed record", "upstream_malformed")
	case errors.As(err, &rejectedErr):
		writeError(w, http.StatusUnprocessableEntity, "provider rejected the request", "upstream_rejected")
	case errors.As(err, &unavailableErr):
		writeError(w, http.StatusBadGateway, "provider unavailable", "upstream_unavailable")
	default:
		s.logger.Error("unexpected error",
			zap.Error(err),
			zap.String("request_id", requestIDFrom(r.Context())))
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred", "internal_error")
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, successEnvelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorEnvelope{
		Success:   false,
		Error:     message,
		ErrorCode: code,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
