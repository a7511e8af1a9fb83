package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olegsavin/invoice-assistant/internal/bootstrap"
	"github.com/olegsavin/invoice-assistant/internal/config"
	"github.com/olegsavin/invoice-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "ingestd", cfg, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	queue, err := app.Queue()
	if err != nil {
		log.Fatalf("queue error: %v", err)
	}

	m := metrics.NewIngestMetrics("ingestd")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		server := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	log.Printf("ingestd subscribed to %s", cfg.NATSSubject)
	err = queue.SubscribeIngestRequested(ctx, func(handlerCtx context.Context, path string) error {
		ingestCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		m.StartInvoice()
		start := time.Now()
		report, err := app.IngestUC.Ingest(ingestCtx, path)

		lineItems, failedPages := 0, 0
		if report != nil {
			lineItems = report.LineItems
			failedPages = len(report.FailedPages)
			if report.Skipped {
				m.RecordSkipped("ingestd")
			}
		}
		m.FinishInvoice("ingestd", time.Since(start), lineItems, failedPages, err)
		return err
	})
	if err != nil {
		log.Fatalf("ingestd subscribe error: %v", err)
	}
}
