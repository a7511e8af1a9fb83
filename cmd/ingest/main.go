package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/olegsavin/invoice-assistant/internal/adapters/cli"
	"github.com/olegsavin/invoice-assistant/internal/bootstrap"
	"github.com/olegsavin/invoice-assistant/internal/config"
	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/observability/logging"
)

func main() {
	enqueue := flag.Bool("enqueue", false, "publish files to the ingest queue instead of processing inline")
	jsonOut := flag.Bool("json", false, "print reports as JSON")
	parallel := flag.Int("parallel", 2, "number of files ingested concurrently")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] file.pdf [file.pdf ...]")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "ingest", cfg, logging.NewTextLogger("ingest", cfg.LogLevel))
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if *enqueue {
		queue, err := app.Queue()
		if err != nil {
			log.Fatalf("queue error: %v", err)
		}
		for _, path := range files {
			if err := queue.PublishIngestRequested(ctx, path); err != nil {
				log.Fatalf("enqueue %s: %v", path, err)
			}
			fmt.Printf("%s: enqueued\n", path)
		}
		return
	}

	if *parallel < 1 {
		*parallel = 1
	}

	type outcome struct {
		path   string
		report *domain.IngestReport
		err    error
	}

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for range *parallel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				report, err := app.IngestUC.Ingest(ctx, path)
				results <- outcome{path: path, report: report, err: err}
			}
		}()
	}
	go func() {
		for _, path := range files {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.path, res.err)
			continue
		}
		if *jsonOut {
			_ = cli.WriteJSON(os.Stdout, res.report)
		} else {
			cli.WriteIngestReport(os.Stdout, res.report)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
