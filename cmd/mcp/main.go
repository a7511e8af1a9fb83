package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/olegsavin/invoice-assistant/internal/adapters/mcp"
	"github.com/olegsavin/invoice-assistant/internal/bootstrap"
	"github.com/olegsavin/invoice-assistant/internal/config"
	"github.com/olegsavin/invoice-assistant/internal/observability/logging"
	"github.com/olegsavin/invoice-assistant/internal/observability/metrics"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "mcp", cfg, logging.NewTextLogger("mcp", cfg.LogLevel))
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewQueryMetrics("mcp")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		server := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	queries := metrics.InstrumentQueryService(app.QueryUC, m, "mcp")
	server := mcp.NewServer(queries, version, app.Log)
	if err := server.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
