package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olegsavin/invoice-assistant/internal/adapters/cli"
	"github.com/olegsavin/invoice-assistant/internal/bootstrap"
	"github.com/olegsavin/invoice-assistant/internal/config"
	"github.com/olegsavin/invoice-assistant/internal/observability/logging"
)

func main() {
	textOut := flag.Bool("text", false, "print results as a table instead of JSON")
	generate := flag.Bool("generate-answer", false, "synthesize a natural-language answer from the retrieved records")
	xlsxPath := flag.String("xlsx", "", "write results to an XLSX file at this path")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [flags] \"question about your invoices\"")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "ask", cfg, logging.NewTextLogger("ask", cfg.LogLevel))
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if *xlsxPath != "" {
		raw, err := app.Export.ExportQueryXLSX(ctx, query)
		if err != nil {
			log.Fatalf("export error: %v", err)
		}
		if err := os.WriteFile(*xlsxPath, raw, 0o644); err != nil {
			log.Fatalf("write %s: %v", *xlsxPath, err)
		}
		fmt.Printf("wrote %s\n", *xlsxPath)
		return
	}

	result, err := app.QueryUC.Ask(ctx, query, *generate)
	if err != nil {
		log.Fatalf("query error: %v", err)
	}

	if cli.UseTextOutput(*textOut, *generate) {
		cli.WriteRetrievalResult(os.Stdout, result)
		return
	}
	if err := cli.WriteJSON(os.Stdout, result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}
