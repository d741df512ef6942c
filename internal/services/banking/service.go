// Package banking translates caller queries into SePay transport calls
// and normalizes the raw responses into domain transactions.
package banking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JustKiet/finkeith/internal/clients"
	"github.com/JustKiet/finkeith/internal/domain"
	"github.com/JustKiet/finkeith/internal/services/reconciler"
)

// MaxHistoryLimit is the largest page size the provider accepts.
const MaxHistoryLimit = 1000

// SePayAPI is the transport capability this service consumes.
type SePayAPI interface {
	ListTransactions(ctx context.Context, q clients.ListQuery) ([]clients.TransactionDTO, int, error)
	CountTransactions(ctx context.Context, q clients.CountQuery) (int, error)
	GetTransaction(ctx context.Context, id string) (*clients.TransactionDTO, error)
}

// HistoryRequest is a validated-on-entry transaction history query.
type HistoryRequest struct {
	AccountNumber string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	ReferenceID   string
	AmountIn      *decimal.Decimal
	AmountOut     *decimal.Decimal
}

// CountRequest is a transaction count query.
type CountRequest struct {
	AccountNumber string
	DateFrom      *time.Time
	DateTo        *time.Time
	SinceID       string
}

// HistoryResult carries normalized records in provider-reported order.
// TotalCount is the provider's figure for the whole query, which may
// exceed len(Transactions) when the provider paginates. Skipped counts
// malformed records dropped during normalization.
type HistoryResult struct {
	Transactions []domain.Transaction
	TotalCount   int
	Skipped      int
}

// BalanceResult pairs a snapshot with the reconciliation outcome.
// Inconsistency is non-nil when provider accumulated balances diverged
// from the local sum; the snapshot still holds the computed figure.
type BalanceResult struct {
	Snapshot      domain.BalanceSnapshot
	Inconsistency *domain.BalanceInconsistencyError
}

// Service is the banking façade. It holds no mutable state: every call
// is a single outbound request plus local synchronous computation, so
// concurrent callers need no coordination.
type Service struct {
	client     SePayAPI
	reconciler *reconciler.Reconciler
	logger     *zap.Logger
	currency   string
}

// New creates the banking service.
func New(client SePayAPI, rec *reconciler.Reconciler, currency string, logger *zap.Logger) *Service {
	if currency == "" {
		currency = "VND"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, reconciler: rec, logger: logger, currency: currency}
}

// GetTransactionHistory validates the request, queries the provider and
// normalizes each raw record. A single malformed record is skipped and
// logged, never failing the whole request.
func (s *Service) GetTransactionHistory(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	if err := validateHistoryRequest(req); err != nil {
		return HistoryResult{}, err
	}

	dtos, total, err := s.client.ListTransactions(ctx, clients.ListQuery{
		AccountNumber: req.AccountNumber,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		Limit:         req.Limit,
		ReferenceID:   req.ReferenceID,
		AmountIn:      req.AmountIn,
		AmountOut:     req.AmountOut,
	})
	if err != nil {
		return HistoryResult{}, err
	}

	records := make([]domain.Transaction, 0, len(dtos))
	skipped := 0
	for _, dto := range dtos {
		tx, err := normalize(dto)
		if err != nil {
			skipped++
			s.logger.Warn("skipping malformed transaction record",
				zap.String("account", req.AccountNumber),
				zap.String("record_id", dto.ID),
				zap.Error(err))
			continue
		}
		records = append(records, tx)
	}

	return HistoryResult{Transactions: records, TotalCount: total, Skipped: skipped}, nil
}

// CountTransactions returns the provider-reported transaction count.
func (s *Service) CountTransactions(ctx context.Context, req CountRequest) (int, error) {
	if req.AccountNumber == "" {
		return 0, &domain.ValidationError{Field: "account_number", Reason: "must not be empty"}
	}
	if err := validateDateRange(req.DateFrom, req.DateTo); err != nil {
		return 0, err
	}
	return s.client.CountTransactions(ctx, clients.CountQuery{
		AccountNumber: req.AccountNumber,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		SinceID:       req.SinceID,
	})
}

// GetTransaction fetches and normalizes a single transaction.
func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	if id == "" {
		return domain.Transaction{}, &domain.ValidationError{Field: "transaction_id", Reason: "must not be empty"}
	}
	dto, err := s.client.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return normalize(*dto)
}

// GetBalance computes the current balance from the account's history.
// The local running sum is authoritative for the returned figure; when
// the provider supplies accumulated balances the sum is anchored to
// them and any divergence is surfaced as a non-fatal inconsistency.
func (s *Service) GetBalance(ctx context.Context, accountNumber string) (BalanceResult, error) {
	history, err := s.GetTransactionHistory(ctx, HistoryRequest{AccountNumber: accountNumber})
	if err != nil {
		return BalanceResult{}, err
	}

	starting := decimal.Zero
	if anchor, ok := reconciler.AnchorBalance(history.Transactions); ok {
		starting = anchor
	}

	balance, inconsistency := s.reconciler.ComputeBalance(history.Transactions, starting)
	if inconsistency != nil {
		s.logger.Warn("provider accumulated balance diverges from local sum",
			zap.String("account", accountNumber),
			zap.String("record_id", inconsistency.TransactionID),
			zap.String("computed", inconsistency.Computed.String()),
			zap.String("reported", inconsistency.Reported.String()))
	}

	return BalanceResult{
		Snapshot:      domain.NewBalanceSnapshot(accountNumber, balance, s.currency),
		Inconsistency: inconsistency,
	}, nil
}

// normalize maps a raw provider record into a domain transaction.
func normalize(dto clients.TransactionDTO) (domain.Transaction, error) {
	date, err := clients.ParseDate(dto.TransactionDate)
	if err != nil {
		if dto.TransactionDate == "" {
			return domain.Transaction{}, &domain.MalformedRecordError{Field: "transaction_date", Reason: "missing"}
		}
		return domain.Transaction{}, &domain.MalformedRecordError{Field: "transaction_date", Reason: err.Error()}
	}

	var accumulated *string
	if dto.Accumulated != nil && dto.Accumulated.String() != "" {
		acc := dto.Accumulated.String()
		accumulated = &acc
	}

	return domain.NewTransaction(domain.TransactionParams{
		ID:              dto.ID,
		Date:            date,
		AccountNumber:   dto.AccountNumber,
		BankName:        dto.Brand(),
		SubAccount:      dto.SubAccount,
		AmountIn:        dto.AmountIn.String(),
		AmountOut:       dto.AmountOut.String(),
		Accumulated:     accumulated,
		Code:            dto.Code,
		Content:         dto.Content,
		ReferenceNumber: dto.ReferenceNumber,
	})
}

func validateHistoryRequest(req HistoryRequest) error {
	if req.AccountNumber == "" {
		return &domain.ValidationError{Field: "account_number", Reason: "must not be empty"}
	}
	if err := validateDateRange(req.DateFrom, req.DateTo); err != nil {
		return err
	}
	if req.Limit < 0 {
		return &domain.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if req.Limit > MaxHistoryLimit {
		return &domain.ValidationError{Field: "limit", Reason: "exceeds provider maximum of 1000"}
	}
	if req.AmountIn != nil && req.AmountIn.IsNegative() {
		return &domain.ValidationError{Field: "amount_in", Reason: "must not be negative"}
	}
	if req.AmountOut != nil && req.AmountOut.IsNegative() {
		return &domain.ValidationError{Field: "amount_out", Reason: "must not be negative"}
	}
	return nil
}

func validateDateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return &domain.ValidationError{Field: "transaction_date_from", Reason: "must not be after transaction_date_to"}
	}
	return nil
}
