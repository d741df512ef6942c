// Package mcp exposes the banking façade as MCP tools over SSE so
// agent runtimes can call the same four operations the REST API
// serves. Tool results carry the REST envelope as JSON text.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JustKiet/finkeith/internal/clients"
	"github.com/JustKiet/finkeith/internal/domain"
	"github.com/JustKiet/finkeith/internal/services/banking"
	"github.com/JustKiet/finkeith/internal/web"
)

// BankingService is the façade surface the tool layer depends on.
type BankingService interface {
	GetTransactionHistory(ctx context.Context, req banking.HistoryRequest) (banking.HistoryResult, error)
	CountTransactions(ctx context.Context, req banking.CountRequest) (int, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	GetBalance(ctx context.Context, accountNumber string) (banking.BalanceResult, error)
}

// Gateway serves the banking tools to MCP clients.
type Gateway struct {
	addr    string
	service BankingService
	logger  *zap.Logger
	srv     *server.MCPServer
}

// NewGateway registers the four banking tools on a fresh MCP server.
func NewGateway(addr string, service BankingService, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		addr:    addr,
		service: service,
		logger:  logger,
		srv:     server.NewMCPServer("FinKeith", web.Version),
	}

	g.srv.AddTool(mcp.NewTool("get_transaction_history",
		mcp.WithDescription("Retrieve transaction history for a specific account."),
		mcp.WithString("account_number", mcp.Required(),
			mcp.Description("The account number to retrieve transactions for.")),
		mcp.WithString("date_from",
			mcp.Description("Optional start date for filtering transactions (YYYY-MM-DD or RFC 3339).")),
		mcp.WithString("date_to",
			mcp.Description("Optional end date for filtering transactions (YYYY-MM-DD or RFC 3339).")),
		mcp.WithNumber("amount_in",
			mcp.Description("Optional filter for incoming transaction amounts.")),
		mcp.WithNumber("amount_out",
			mcp.Description("Optional filter for outgoing transaction amounts.")),
		mcp.WithNumber("limit",
			mcp.Description("Optional limit on the number of transactions to retrieve.")),
	), g.handleHistory)

	g.srv.AddTool(mcp.NewTool("get_account_balance",
		mcp.WithDescription("Retrieve the current balance of a specific account."),
		mcp.WithString("account_number", mcp.Required(),
			mcp.Description("The account number to retrieve the balance for.")),
	), g.handleBalance)

	g.srv.AddTool(mcp.NewTool("get_transaction_count",
		mcp.WithDescription("Retrieve the number of transactions for a specific account."),
		mcp.WithString("account_number", mcp.Required(),
			mcp.Description("The account number to retrieve the transaction count for.")),
		mcp.WithString("transaction_date_from",
			mcp.Description("Optional start date for filtering transactions.")),
		mcp.WithString("transaction_date_to",
			mcp.Description("Optional end date for filtering transactions.")),
	), g.handleCount)

	g.srv.AddTool(mcp.NewTool("get_transaction_details",
		mcp.WithDescription("Retrieve detailed information about a specific transaction. Only use with a known transaction ID."),
		mcp.WithString("transaction_id", mcp.Required(),
			mcp.Description("The ID of the transaction to retrieve details for.")),
	), g.handleGetTransaction)

	return g
}

// Start runs the SSE transport (blocking) and shuts it down when ctx
// is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sse := server.NewSSEServer(g.srv)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sse.Shutdown(shutdownCtx)
	}()

	g.logger.Info("mcp gateway listening", zap.String("addr", g.addr))
	if err := sse.Start(g.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, err := req.RequireString("account_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hreq := banking.HistoryRequest{
		AccountNumber: account,
		Limit:         req.GetInt("limit", 0),
	}
	if hreq.DateFrom, err = optionalDate(req, "date_from"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if hreq.DateTo, err = optionalDate(req, "date_to"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v := req.GetFloat("amount_in", -1); v >= 0 {
		d := decimal.NewFromFloat(v)
		hreq.AmountIn = &d
	}
	if v := req.GetFloat("amount_out", -1); v >= 0 {
		d := decimal.NewFromFloat(v)
		hreq.AmountOut = &d
	}

	result, err := g.service.GetTransactionHistory(ctx, hreq)
	if err != nil {
		return g.toolError("get_transaction_history", err), nil
	}

	transactions := make([]transactionPayload, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		transactions = append(transactions, toTransactionPayload(tx))
	}
	return toolResult(historyPayload{
		Transactions: transactions,
		TotalCount:   result.TotalCount,
		SkippedCount: result.Skipped,
	}, "transaction history retrieved")
}

func (g *Gateway) handleBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, err := req.RequireString("account_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := g.service.GetBalance(ctx, account)
	if err != nil {
		return g.toolError("get_account_balance", err), nil
	}

	payload := balancePayload{
		AccountNumber: result.Snapshot.AccountNumber,
		Balance:       result.Snapshot.Balance.String(),
		Currency:      result.Snapshot.Currency,
		AsOf:          result.Snapshot.AsOf,
	}
	if result.Inconsistency != nil {
		payload.Inconsistency = &inconsistencyPayload{
			RecordID: result.Inconsistency.TransactionID,
			Computed: result.Inconsistency.Computed.String(),
			Reported: result.Inconsistency.Reported.String(),
		}
	}
	return toolResult(payload, "balance retrieved")
}

func (g *Gateway) handleCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, err := req.RequireString("account_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	creq := banking.CountRequest{AccountNumber: account}
	if creq.DateFrom, err = optionalDate(req, "transaction_date_from"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if creq.DateTo, err = optionalDate(req, "transaction_date_to"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	count, err := g.service.CountTransactions(ctx, creq)
	if err != nil {
		return g.toolError("get_transaction_count", err), nil
	}
	return toolResult(countPayload{AccountNumber: account, Count: count}, "transaction count retrieved")
}

func (g *Gateway) handleGetTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("transaction_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tx, err := g.service.GetTransaction(ctx, id)
	if err != nil {
		return g.toolError("get_transaction_details", err), nil
	}
	return toolResult(toTransactionPayload(tx), "transaction retrieved")
}

// toolError reports the failure to the client without failing the
// protocol call; transport problems are also logged.
func (g *Gateway) toolError(tool string, err error) *mcp.CallToolResult {
	var unavailableErr *domain.UpstreamUnavailableError
	if errors.As(err, &unavailableErr) {
		g.logger.Warn("tool call failed upstream", zap.String("tool", tool), zap.Error(err))
	}
	return mcp.NewToolResultError(err.Error())
}

func optionalDate(req mcp.CallToolRequest, key string) (*time.Time, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	t, err := clients.ParseDate(raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: err.Error()}
	}
	return &t, nil
}

func toolResult(data any, message string) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
