package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mvbarbosa/judagg/internal/gazette"
	"github.com/mvbarbosa/judagg/internal/index"
	"github.com/mvbarbosa/judagg/internal/relevance"
)

// judagg-index runs one indexing pass over a directory of gazette page
// text and prints the batch summary. With -db the resulting snapshot
// is persisted where the server binary will pick it up.
func main() {
	docsFlag := flag.String("docs", "./data/dje", "directory of extracted gazette page text")
	dbFlag := flag.String("db", "", "path to SQLite snapshot file (empty prints the summary without persisting)")
	rulesFlag := flag.String("rules", "", "YAML keyword rules file (empty uses built-in defaults)")
	workersFlag := flag.Int("workers", 4, "parallel document extraction workers")
	refreshFlag := flag.Bool("refresh", false, "only index documents missing from the current snapshot")
	timeoutFlag := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	keywords := relevance.Default()
	if *rulesFlag != "" {
		keywords, err = relevance.Load(*rulesFlag)
		if err != nil {
			log.Fatalf("load keyword rules (%s): %v", *rulesFlag, err)
		}
	}

	var store index.API
	if *dbFlag != "" {
		ss, err := index.NewSQLiteStore(*dbFlag, index.Config{})
		if err != nil {
			log.Fatalf("open sqlite snapshot store (%s): %v", *dbFlag, err)
		}
		defer ss.Close()
		store = ss
	} else {
		store = index.NewStore(index.Config{})
	}

	source := gazette.NewDirSource(*docsFlag)
	extractor := gazette.NewExtractor(keywords, gazette.DefaultWindow)
	indexer := index.NewIndexer(source, extractor, store, *workersFlag, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	var (
		snap    *index.Snapshot
		summary index.Summary
	)
	if *refreshFlag {
		snap, summary, err = indexer.Refresh(ctx)
	} else {
		snap, summary, err = indexer.Reindex(ctx)
	}
	if err != nil {
		log.Fatalf("indexing failed: %v", err)
	}

	out := struct {
		Summary index.Summary `json:"resumo"`
		Records int           `json:"processos"`
		Seconds float64       `json:"segundos"`
	}{summary, len(snap.Records), summary.Elapsed.Seconds()}
	blob, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("encode summary: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(blob))
}
