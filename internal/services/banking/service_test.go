package banking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JustKiet/finkeith/internal/clients"
	"github.com/JustKiet/finkeith/internal/domain"
	"github.com/JustKiet/finkeith/internal/services/reconciler"
)

type sepayMock struct {
	mock.Mock
}

func (m *sepayMock) ListTransactions(ctx context.Context, q clients.ListQuery) ([]clients.TransactionDTO, int, error) {
	args := m.Called(ctx, q)
	dtos, _ := args.Get(0).([]clients.TransactionDTO)
	return dtos, args.Int(1), args.Error(2)
}

func (m *sepayMock) CountTransactions(ctx context.Context, q clients.CountQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *sepayMock) GetTransaction(ctx context.Context, id string) (*clients.TransactionDTO, error) {
	args := m.Called(ctx, id)
	dto, _ := args.Get(0).(*clients.TransactionDTO)
	return dto, args.Error(1)
}

func newTestService(client SePayAPI) *Service {
	return New(client, reconciler.New(decimal.Zero), "VND", nil)
}

func dto(id, account, amountIn, amountOut string, accumulated *string) clients.TransactionDTO {
	var acc *clients.FlexString
	if accumulated != nil {
		f := clients.FlexString(*accumulated)
		acc = &f
	}
	return clients.TransactionDTO{
		ID:              id,
		TransactionDate: "2025-01-15 10:30:00",
		AccountNumber:   account,
		BankBrandName:   "MB Bank",
		AmountIn:        clients.FlexString(amountIn),
		AmountOut:       clients.FlexString(amountOut),
		Accumulated:     acc,
	}
}

func strPtr(s string) *string { return &s }

func TestGetTransactionHistoryValidationFailsBeforeTransportCall(t *testing.T) {
	client := &sepayMock{}
	svc := newTestService(client)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  HistoryRequest
	}{
		{"empty account", HistoryRequest{}},
		{"dateFrom after dateTo", HistoryRequest{AccountNumber: "123", DateFrom: &from, DateTo: &to}},
		{"negative limit", HistoryRequest{AccountNumber: "123", Limit: -1}},
		{"limit over provider maximum", HistoryRequest{AccountNumber: "123", Limit: 1001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetTransactionHistory(context.Background(), tt.req)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	// no expectations were registered: any transport call would have
	// failed the test already
	client.AssertExpectations(t)
}

func TestGetTransactionHistorySkipsMalformedRecords(t *testing.T) {
	client := &sepayMock{}
	dtos := []clients.TransactionDTO{
		dto("tx1", "123", "100", "0", nil),
		dto("tx2", "123", "200", "0", nil),
		dto("tx3", "123", "garbage", "0", nil), // malformed amount
		dto("tx4", "123", "400", "0", nil),
		dto("tx5", "123", "500", "0", nil),
	}
	client.On("ListTransactions", mock.Anything, mock.Anything).Return(dtos, 5, nil)

	svc := newTestService(client)
	result, err := svc.GetTransactionHistory(context.Background(), HistoryRequest{AccountNumber: "123"})
	require.NoError(t, err, "a single malformed record must not fail the request")

	require.Len(t, result.Transactions, 4)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 5, result.TotalCount, "total count stays provider-reported")

	// provider order preserved
	require.Equal(t, "tx1", result.Transactions[0].ID)
	require.Equal(t, "tx5", result.Transactions[3].ID)
}

func TestGetTransactionHistoryPropagatesTransportErrors(t *testing.T) {
	client := &sepayMock{}
	client.On("ListTransactions", mock.Anything, mock.Anything).
		Return(nil, 0, &domain.UpstreamUnavailableError{Reason: "connection refused"})

	svc := newTestService(client)
	_, err := svc.GetTransactionHistory(context.Background(), HistoryRequest{AccountNumber: "123"})

	var unavailable *domain.UpstreamUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestCountTransactions(t *testing.T) {
	client := &sepayMock{}
	client.On("CountTransactions", mock.Anything, clients.CountQuery{AccountNumber: "123"}).Return(42, nil)

	svc := newTestService(client)
	count, err := svc.CountTransactions(context.Background(), CountRequest{AccountNumber: "123"})
	require.NoError(t, err)
	require.Equal(t, 42, count)
}

func TestCountTransactionsValidatesAccount(t *testing.T) {
	svc := newTestService(&sepayMock{})
	_, err := svc.CountTransactions(context.Background(), CountRequest{})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestGetTransaction(t *testing.T) {
	client := &sepayMock{}
	single := dto("tx9", "123", "100", "0", nil)
	// single-lookup endpoint labels the bank differently
	single.BankBrandName = ""
	single.BankName = "MBBANK"
	client.On("GetTransaction", mock.Anything, "tx9").Return(&single, nil)

	svc := newTestService(client)
	tx, err := svc.GetTransaction(context.Background(), "tx9")
	require.NoError(t, err)
	require.Equal(t, "tx9", tx.ID)
	require.Equal(t, domain.BankMBBank, tx.Bank)
}

func TestGetTransactionNotFound(t *testing.T) {
	client := &sepayMock{}
	client.On("GetTransaction", mock.Anything, "nope").Return(nil, domain.ErrTransactionNotFound)

	svc := newTestService(client)
	_, err := svc.GetTransaction(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestGetBalanceAnchorsOnAccumulated(t *testing.T) {
	client := &sepayMock{}
	dtos := []clients.TransactionDTO{
		dto("tx1", "123", "1000000", "0", strPtr("5000000")),
		dto("tx2", "123", "0", "200000", strPtr("4800000")),
	}
	client.On("ListTransactions", mock.Anything, mock.Anything).Return(dtos, 2, nil)

	svc := newTestService(client)
	result, err := svc.GetBalance(context.Background(), "123")
	require.NoError(t, err)

	require.Nil(t, result.Inconsistency)
	require.True(t, result.Snapshot.Balance.Equal(decimal.RequireFromString("4800000")))
	require.Equal(t, "VND", result.Snapshot.Currency)
	require.Equal(t, "123", result.Snapshot.AccountNumber)
}

func TestGetBalanceSumsWhenAccumulatedAbsent(t *testing.T) {
	client := &sepayMock{}
	dtos := []clients.TransactionDTO{
		dto("tx1", "123", "1000000", "0", nil),
		dto("tx2", "123", "0", "300000", nil),
	}
	client.On("ListTransactions", mock.Anything, mock.Anything).Return(dtos, 2, nil)

	svc := newTestService(client)
	result, err := svc.GetBalance(context.Background(), "123")
	require.NoError(t, err)

	require.Nil(t, result.Inconsistency)
	require.True(t, result.Snapshot.Balance.Equal(decimal.RequireFromString("700000")))
}

func TestGetBalanceSurfacesInconsistencyButReturnsLocalSum(t *testing.T) {
	client := &sepayMock{}
	dtos := []clients.TransactionDTO{
		dto("tx1", "123", "1000000", "0", strPtr("5000000")),
		dto("tx2", "123", "2000000", "0", strPtr("9000000")), // provider says 9M, local sum says 7M
	}
	client.On("ListTransactions", mock.Anything, mock.Anything).Return(dtos, 2, nil)

	svc := newTestService(client)
	result, err := svc.GetBalance(context.Background(), "123")
	require.NoError(t, err, "inconsistency is warning-grade, not a failure")

	require.True(t, result.Snapshot.Balance.Equal(decimal.RequireFromString("7000000")))
	require.NotNil(t, result.Inconsistency)
	require.Equal(t, "tx2", result.Inconsistency.TransactionID)
	require.True(t, result.Inconsistency.Reported.Equal(decimal.RequireFromString("9000000")))
}

func TestGetBalanceEmptyHistory(t *testing.T) {
	client := &sepayMock{}
	client.On("ListTransactions", mock.Anything, mock.Anything).Return([]clients.TransactionDTO{}, 0, nil)

	svc := newTestService(client)
	result, err := svc.GetBalance(context.Background(), "123")
	require.NoError(t, err)
	require.True(t, result.Snapshot.Balance.IsZero())
}

func TestConcurrentHistoryRequestsDoNotInterfere(t *testing.T) {
	client := &sepayMock{}
	client.On("ListTransactions", mock.Anything, mock.MatchedBy(func(q clients.ListQuery) bool {
		return q.AccountNumber == "acc-a"
	})).Return([]clients.TransactionDTO{dto("a1", "acc-a", "100", "0", nil)}, 1, nil)
	client.On("ListTransactions", mock.Anything, mock.MatchedBy(func(q clients.ListQuery) bool {
		return q.AccountNumber == "acc-b"
	})).Return([]clients.TransactionDTO{
		dto("b1", "acc-b", "200", "0", nil),
		dto("b2", "acc-b", "300", "0", nil),
	}, 2, nil)

	svc := newTestService(client)

	const iterations = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*iterations)

	for i := 0; i < iterations; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			result, err := svc.GetTransactionHistory(context.Background(), HistoryRequest{AccountNumber: "acc-a"})
			if err == nil && (len(result.Transactions) != 1 || result.Transactions[0].ID != "a1") {
				err = &domain.ValidationError{Field: "result", Reason: "account A got foreign records"}
			}
			errs <- err
		}()
		go func() {
			defer wg.Done()
			result, err := svc.GetTransactionHistory(context.Background(), HistoryRequest{AccountNumber: "acc-b"})
			if err == nil && len(result.Transactions) != 2 {
				err = &domain.ValidationError{Field: "result", Reason: "account B got foreign records"}
			}
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
