// Command finkeith runs the SePay banking gateway: a REST façade that
// forwards transaction history, count, balance and single-transaction
// queries to SePay and normalizes the responses.
//
// Usage:
//
//	finkeith --config config.yaml
//	finkeith mcp     (serve the same operations as MCP tools over SSE)
//	finkeith setup   (interactive configuration wizard)
//	finkeith         (uses CLI flags)
//
// Required environment variable (unless set in the config file):
//
//	SEPAY_API_KEY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JustKiet/finkeith/config"
	"github.com/JustKiet/finkeith/internal/clients"
	"github.com/JustKiet/finkeith/internal/mcp"
	"github.com/JustKiet/finkeith/internal/services/banking"
	"github.com/JustKiet/finkeith/internal/services/reconciler"
	"github.com/JustKiet/finkeith/internal/setup"
	"github.com/JustKiet/finkeith/internal/web"
	"github.com/JustKiet/finkeith/pkg/retrier"
)

func main() {
	serveMCP := false
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "setup":
			if err := setup.RunTUI(); err != nil {
				log.Fatal(err)
			}
			return
		case "mcp":
			serveMCP = true
			// drop the subcommand so flag parsing sees only flags
			os.Args = append(os.Args[:1:1], os.Args[2:]...)
		}
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	client, err := clients.NewSePayClient(cfg.SePayBaseURL, cfg.SePayAPIKey, cfg.HTTPTimeout)
	if err != nil {
		logger.Fatal("failed to create sepay client", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// boot-time connectivity probe; the façade itself never retries,
	// so the bounded retry happens here on the caller side.
	probe := retrier.New(retrier.WithMaxRetries(3), retrier.WithInitialInterval(2*time.Second))
	if err := probe.Do(ctx, client.Ping); err != nil {
		logger.Warn("sepay not reachable at startup, serving anyway", zap.Error(err))
	}

	service := banking.New(client, reconciler.New(cfg.ReconcileTolerance), cfg.Currency, logger)

	if serveMCP {
		gateway := mcp.NewGateway(cfg.MCPListenAddr, service, logger)
		if err := gateway.Start(ctx); err != nil {
			logger.Fatal("mcp gateway stopped", zap.Error(err))
		}
		return
	}

	server := web.NewServer(cfg.ListenAddr, service, logger)

	if len(cfg.TLSDomains) > 0 {
		err = server.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.TLSCacheDir)
	} else {
		err = server.Start(ctx)
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
