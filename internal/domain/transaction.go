package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one normalized ledger entry as reported by the
// provider. Values are immutable after construction; money fields use
// exact decimal arithmetic throughout.
type Transaction struct {
	ID            string
	Date          time.Time
	AccountNumber string
	Bank          Bank
	SubAccount    string
	AmountIn      decimal.Decimal
	AmountOut     decimal.Decimal
	// Accumulated is the provider-reported running balance immediately
	// after this transaction. Nil when the provider did not supply one.
	Accumulated     *decimal.Decimal
	Code            string
	Content         string
	ReferenceNumber string
}

// TransactionParams carries the raw field values for NewTransaction.
// Amounts arrive as strings so parsing failures surface as
// MalformedRecordError instead of silent float truncation.
type TransactionParams struct {
	ID              string
	Date            time.Time
	AccountNumber   string
	BankName        string
	SubAccount      string
	AmountIn        string
	AmountOut       string
	Accumulated     *string
	Code            string
	Content         string
	ReferenceNumber string
}

// NewTransaction validates and constructs a Transaction. Required
// fields are ID, Date and AccountNumber; amounts must parse as
// non-negative decimals.
func NewTransaction(p TransactionParams) (Transaction, error) {
	if p.ID == "" {
		return Transaction{}, &MalformedRecordError{Field: "id", Reason: "missing"}
	}
	if p.Date.IsZero() {
		return Transaction{}, &MalformedRecordError{Field: "transaction_date", Reason: "missing"}
	}
	if p.AccountNumber == "" {
		return Transaction{}, &MalformedRecordError{Field: "account_number", Reason: "missing"}
	}

	amountIn, err := parseAmount("amount_in", p.AmountIn)
	if err != nil {
		return Transaction{}, err
	}
	amountOut, err := parseAmount("amount_out", p.AmountOut)
	if err != nil {
		return Transaction{}, err
	}

	var accumulated *decimal.Decimal
	if p.Accumulated != nil {
		acc, err := decimal.NewFromString(*p.Accumulated)
		if err != nil {
			return Transaction{}, &MalformedRecordError{Field: "accumulated", Reason: "not a decimal: " + *p.Accumulated}
		}
		accumulated = &acc
	}

	return Transaction{
		ID:              p.ID,
		Date:            p.Date.UTC(),
		AccountNumber:   p.AccountNumber,
		Bank:            NormalizeBank(p.BankName),
		SubAccount:      p.SubAccount,
		AmountIn:        amountIn,
		AmountOut:       amountOut,
		Accumulated:     accumulated,
		Code:            p.Code,
		Content:         p.Content,
		ReferenceNumber: p.ReferenceNumber,
	}, nil
}

// parseAmount parses a non-negative decimal amount. Empty means zero:
// the provider omits whichever side of the transfer does not apply.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &MalformedRecordError{Field: field, Reason: "not a decimal: " + raw}
	}
	if d.IsNegative() {
		return decimal.Decimal{}, &MalformedRecordError{Field: field, Reason: "negative amount: " + raw}
	}
	return d, nil
}

// Net returns the signed effect of the transaction on the balance.
func (t Transaction) Net() decimal.Decimal {
	return t.AmountIn.Sub(t.AmountOut)
}
