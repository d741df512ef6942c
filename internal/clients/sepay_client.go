// Package clients contains HTTP clients for external banking
// providers.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/JustKiet/finkeith/internal/domain"
)

const (
	// DefaultBaseURL is the SePay user API root.
	DefaultBaseURL = "https://my.sepay.vn/userapi"

	defaultTimeout = 30 * time.Second

	// sepayDateFormat is the timestamp layout SePay accepts in query
	// parameters and emits in response bodies.
	sepayDateFormat = "2006-01-02 15:04:05"
)

// ListQuery narrows a transaction list request.
type ListQuery struct {
	AccountNumber string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	ReferenceID   string
	AmountIn      *decimal.Decimal
	AmountOut     *decimal.Decimal
}

// CountQuery narrows a transaction count request.
type CountQuery struct {
	AccountNumber string
	DateFrom      *time.Time
	DateTo        *time.Time
	SinceID       string
}

// TransactionDTO is the raw transaction shape SePay returns. The list
// endpoint labels the bank "bank_brand_name" while the single-lookup
// endpoint uses "bank_name"; both fields are kept and merged later.
// Amounts come back as quoted decimal strings.
type TransactionDTO struct {
	ID              string      `json:"id"`
	TransactionDate string      `json:"transaction_date"`
	AccountNumber   string      `json:"account_number"`
	BankBrandName   string      `json:"bank_brand_name"`
	BankName        string      `json:"bank_name"`
	SubAccount      string      `json:"sub_account"`
	AmountIn        FlexString  `json:"amount_in"`
	AmountOut       FlexString  `json:"amount_out"`
	Accumulated     *FlexString `json:"accumulated"`
	Code            string      `json:"code"`
	Content         string      `json:"transaction_content"`
	ReferenceNumber string      `json:"reference_number"`
}

// Brand returns the bank label regardless of which endpoint shape the
// DTO came from.
func (d TransactionDTO) Brand() string {
	if d.BankBrandName != "" {
		return d.BankBrandName
	}
	return d.BankName
}

// FlexString decodes a JSON value that may arrive as a string, a
// number, or null. SePay is not consistent about quoting amounts.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(trimmed)
	return nil
}

func (f FlexString) String() string { return string(f) }

type listResponse struct {
	Status       int              `json:"status"`
	Error        json.RawMessage  `json:"error"`
	Transactions []TransactionDTO `json:"transactions"`
	TotalRecords *int             `json:"total_records"`
}

type countResponse struct {
	Status            int `json:"status"`
	CountTransactions int `json:"count_transactions"`
}

type singleResponse struct {
	Status      int             `json:"status"`
	Transaction *TransactionDTO `json:"transaction"`
}

// SePayClient talks to the SePay user API over HTTP. Every request is
// authenticated with a bearer token, bounded by the client timeout,
// and never retried here: retry policy belongs to the caller.
type SePayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSePayClient creates a SePay client. Empty baseURL falls back to
// the production API; non-positive timeout falls back to the default.
func NewSePayClient(baseURL, apiKey string, timeout time.Duration) (*SePayClient, error) {
	if apiKey == "" {
		return nil, errors.New("sepay api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SePayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ListTransactions fetches raw transaction records for an account,
// returning them in provider-reported order along with the total count
// the provider claims for the query.
func (c *SePayClient) ListTransactions(ctx context.Context, q ListQuery) ([]TransactionDTO, int, error) {
	params := url.Values{}
	params.Set("account_number", q.AccountNumber)
	if q.DateFrom != nil {
		params.Set("transaction_date_min", q.DateFrom.UTC().Format(sepayDateFormat))
	}
	if q.DateTo != nil {
		params.Set("transaction_date_max", q.DateTo.UTC().Format(sepayDateFormat))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.ReferenceID != "" {
		params.Set("reference_id", q.ReferenceID)
	}
	if q.AmountIn != nil {
		params.Set("amount_in", q.AmountIn.String())
	}
	if q.AmountOut != nil {
		params.Set("amount_out", q.AmountOut.String())
	}

	var resp listResponse
	if err := c.get(ctx, "/transactions/list", params, &resp); err != nil {
		return nil, 0, err
	}

	total := len(resp.Transactions)
	if resp.TotalRecords != nil {
		total = *resp.TotalRecords
	}
	return resp.Transactions, total, nil
}

// CountTransactions returns the number of transactions matching the
// query as reported by the provider.
func (c *SePayClient) CountTransactions(ctx context.Context, q CountQuery) (int, error) {
	params := url.Values{}
	params.Set("account_number", q.AccountNumber)
	if q.DateFrom != nil {
		params.Set("transaction_date_min", q.DateFrom.UTC().Format(sepayDateFormat))
	}
	if q.DateTo != nil {
		params.Set("transaction_date_max", q.DateTo.UTC().Format(sepayDateFormat))
	}
	if q.SinceID != "" {
		params.Set("since_id", q.SinceID)
	}

	var resp countResponse
	if err := c.get(ctx, "/transactions/count", params, &resp); err != nil {
		return 0, err
	}
	return resp.CountTransactions, nil
}

// GetTransaction fetches a single transaction by id. Returns
// domain.ErrTransactionNotFound when the provider has no such record.
func (c *SePayClient) GetTransaction(ctx context.Context, id string) (*TransactionDTO, error) {
	var resp singleResponse
	if err := c.get(ctx, "/transactions/"+url.PathEscape(id), nil, &resp); err != nil {
		var rejected *domain.UpstreamRejectedError
		if errors.As(err, &rejected) && rejected.StatusCode == http.StatusNotFound {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	if resp.Transaction == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return resp.Transaction, nil
}

// Ping verifies the provider is reachable with the configured
// credentials. A rejected probe still proves connectivity, so only
// transport-level failures are reported.
func (c *SePayClient) Ping(ctx context.Context) error {
	var resp countResponse
	err := c.get(ctx, "/transactions/count", nil, &resp)
	var unavailable *domain.UpstreamUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	return nil
}

// ParseDate parses a SePay timestamp, tolerating the RFC 3339 variant
// some responses use. The result is UTC-normalized.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range []string{sepayDateFormat, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

func (c *SePayClient) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build sepay request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.UpstreamUnavailableError{Reason: "sepay request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.UpstreamUnavailableError{Reason: "read sepay response", Cause: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return &domain.UpstreamUnavailableError{
			Reason: fmt.Sprintf("sepay returned status %d", resp.StatusCode),
		}
	case resp.StatusCode >= 400:
		return &domain.UpstreamRejectedError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 256),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.UpstreamUnavailableError{Reason: "malformed sepay response body", Cause: err}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
