package main

// Process every supported file in a directory:
//   go run ./cmd/batch -dir ./samples

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"meddoc-backend/internal/bootstrap"
	"meddoc-backend/internal/shared/config"
)

func main() {
	dir := flag.String("dir", "", "directory of intake documents to process")
	flag.Parse()

	if *dir == "" {
		log.Printf("-dir is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	out, err := app.Processor.ProcessBatch(context.Background(), *dir)
	if err != nil {
		log.Fatalf("batch error: %v", err)
	}

	fmt.Printf("processed %d files: %d succeeded, %d failed, %d flagged for review\n",
		out.Total, out.Succeeded, out.Failed, out.NeedsReview)
	for _, res := range out.Results {
		status := "ok"
		if !res.Success {
			status = "failed"
		}
		fmt.Printf("  %-8s %s confidence=%.2f\n", status, res.DocumentID, res.ConfidenceScore)
	}
	if out.Failed > 0 {
		os.Exit(1)
	}
}
