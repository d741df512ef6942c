package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() TransactionParams {
	return TransactionParams{
		ID:            "tx-1",
		Date:          time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		AccountNumber: "1234567890",
		BankName:      "MB Bank",
		AmountIn:      "1000000",
		AmountOut:     "0",
	}
}

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction(validParams())
	require.NoError(t, err)

	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, BankMBBank, tx.Bank)
	assert.True(t, tx.AmountIn.Equal(decimal.RequireFromString("1000000")))
	assert.True(t, tx.AmountOut.IsZero())
	assert.Nil(t, tx.Accumulated)
}

func TestNewTransactionRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransactionParams)
		field  string
	}{
		{"missing id", func(p *TransactionParams) { p.ID = "" }, "id"},
		{"missing date", func(p *TransactionParams) { p.Date = time.Time{} }, "transaction_date"},
		{"missing account", func(p *TransactionParams) { p.AccountNumber = "" }, "account_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			_, err := NewTransaction(p)
			require.Error(t, err)

			var malformed *MalformedRecordError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestNewTransactionAmountValidation(t *testing.T) {
	t.Run("unparseable amount", func(t *testing.T) {
		p := validParams()
		p.AmountIn = "not-a-number"

		_, err := NewTransaction(p)
		var malformed *MalformedRecordError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "amount_in", malformed.Field)
	})

	t.Run("negative amount", func(t *testing.T) {
		p := validParams()
		p.AmountOut = "-500"

		_, err := NewTransaction(p)
		var malformed *MalformedRecordError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "amount_out", malformed.Field)
	})

	t.Run("empty amounts mean zero", func(t *testing.T) {
		p := validParams()
		p.AmountIn = ""
		p.AmountOut = ""

		tx, err := NewTransaction(p)
		require.NoError(t, err)
		assert.True(t, tx.AmountIn.IsZero())
		assert.True(t, tx.AmountOut.IsZero())
	})

	t.Run("unparseable accumulated", func(t *testing.T) {
		p := validParams()
		bad := "??"
		p.Accumulated = &bad

		_, err := NewTransaction(p)
		var malformed *MalformedRecordError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "accumulated", malformed.Field)
	})
}

func TestNewTransactionNormalizesDateToUTC(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	p := validParams()
	p.Date = time.Date(2025, 1, 15, 17, 30, 0, 0, loc)

	tx, err := NewTransaction(p)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, tx.Date.Location())
	assert.Equal(t, 10, tx.Date.Hour())
}

func TestTransactionNet(t *testing.T) {
	p := validParams()
	p.AmountIn = "300"
	p.AmountOut = "120"

	tx, err := NewTransaction(p)
	require.NoError(t, err)
	assert.True(t, tx.Net().Equal(decimal.RequireFromString("180")))
}

func TestNormalizeBank(t *testing.T) {
	assert.Equal(t, BankMBBank, NormalizeBank("MB Bank"))
	assert.Equal(t, BankMBBank, NormalizeBank("MBBANK"))
	assert.Equal(t, BankMBBank, NormalizeBank("Military Commercial Joint Stock Bank"))
	assert.Equal(t, BankVietcombank, NormalizeBank("VCB"))
	assert.Equal(t, BankACB, NormalizeBank("  acb  "))

	// unknown brands pass through instead of failing the record
	assert.Equal(t, Bank("Some Future Bank"), NormalizeBank("Some Future Bank"))
}
