package web

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JustKiet/finkeith/internal/domain"
)

// successEnvelope is the fixed JSON wrapper for successful responses.
type successEnvelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// errorEnvelope is the fixed JSON wrapper for failed responses.
type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorCode string    `json:"error_code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type historyRequest struct {
	AccountNumber string           `json:"account_number"`
	DateFrom      *time.Time       `json:"transaction_date_from"`
	DateTo        *time.Time       `json:"transaction_date_to"`
	Limit         int              `json:"limit"`
	ReferenceID   string           `json:"reference_id"`
	AmountIn      *decimal.Decimal `json:"amount_in"`
	AmountOut     *decimal.Decimal `json:"amount_out"`
}

type countRequest struct {
	AccountNumber string     `json:"account_number"`
	DateFrom      *time.Time `json:"transaction_date_from"`
	DateTo        *time.Time `json:"transaction_date_to"`
	SinceID       string     `json:"id_from"`
}

type balanceRequest struct {
	AccountNumber string `json:"account_number"`
}

// transactionResponse serializes amounts as strings so clients never
// round them through binary floating point.
type transactionResponse struct {
	ID              string    `json:"id"`
	TransactionDate time.Time `json:"transaction_date"`
	AccountNumber   string    `json:"account_number"`
	BankName        string    `json:"bank_name"`
	SubAccount      string    `json:"sub_account,omitempty"`
	AmountIn        string    `json:"amount_in"`
	AmountOut       string    `json:"amount_out"`
	Accumulated     *string   `json:"accumulated,omitempty"`
	Code            string    `json:"code,omitempty"`
	Content         string    `json:"transaction_content,omitempty"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
}

type historyResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	SkippedCount int                   `json:"skipped_count"`
}

type countResponse struct {
	AccountNumber string `json:"account_number"`
	Count         int    `json:"count"`
}

type inconsistencyDetail struct {
	RecordID string `json:"record_id"`
	Computed string `json:"computed"`
	Reported string `json:"reported"`
}

type balanceResponse struct {
	AccountNumber string               `json:"account_number"`
	Balance       string               `json:"balance"`
	Currency      string               `json:"currency"`
	AsOf          time.Time            `json:"as_of"`
	Inconsistency *inconsistencyDetail `json:"inconsistency,omitempty"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

func toTransactionResponse(tx domain.Transaction) transactionResponse {
	var accumulated *string
	if tx.Accumulated != nil {
		s := tx.Accumulated.String()
		accumulated = &s
	}
	return transactionResponse{
		ID:              tx.ID,
		TransactionDate: tx.Date,
		AccountNumber:   tx.AccountNumber,
		BankName:        string(tx.Bank),
		SubAccount:      tx.SubAccount,
		AmountIn:        tx.AmountIn.String(),
		AmountOut:       tx.AmountOut.String(),
		Accumulated:     accumulated,
		Code:            tx.Code,
		Content:         tx.Content,
		ReferenceNumber: tx.ReferenceNumber,
	}
}
