package mcp

import (
	"time"

	"github.com/JustKiet/finkeith/internal/domain"
)

// envelope matches the REST response wrapper so agents see the same
// shape on both surfaces.
type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type transactionPayload struct {
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

type historyPayload struct {
	Transactions []transactionPayload `json:"transactions"`
	TotalCount   int                  `json:"total_count"`
	SkippedCount int                  `json:"skipped_count"`
}

type countPayload struct {
	AccountNumber string `json:"account_number"`
	Count         int    `json:"count"`
}

type inconsistencyPayload struct {
	RecordID string `json:"record_id"`
	Computed string `json:"computed"`
	Reported string `json:"reported"`
}

type balancePayload struct {
	AccountNumber string                `json:"account_number"`
	Balance       string                `json:"balance"`
	Currency      string                `json:"currency"`
	AsOf          time.Time             `json:"as_of"`
	Inconsistency *inconsistencyPayload `json:"inconsistency,omitempty"`
}

func toTransactionPayload(tx domain.Transaction) transactionPayload {
	var accumulated *string
	if tx.Accumulated != nil {
		s := tx.Accumulated.String()
		accumulated = &s
	}
	return transactionPayload{
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
