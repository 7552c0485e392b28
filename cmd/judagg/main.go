package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mvbarbosa/judagg/internal/datajud"
	"github.com/mvbarbosa/judagg/internal/gazette"
	"github.com/mvbarbosa/judagg/internal/httpapi"
	"github.com/mvbarbosa/judagg/internal/index"
	"github.com/mvbarbosa/judagg/internal/relevance"
	"github.com/mvbarbosa/judagg/internal/telemetry"
)

func main() {
	addrFlag := flag.String("addr", "", "listen address (overrides PORT env var)")
	dbFlag := flag.String("db", "", "path to SQLite snapshot file (overrides DB_PATH env var; empty keeps snapshots in memory)")
	docsFlag := flag.String("docs", "./data/dje", "directory of extracted gazette page text")
	cacheFlag := flag.String("cache", "./data/cache_datajud", "directory for the provider cache")
	rulesFlag := flag.String("rules", "", "YAML keyword rules file (empty uses built-in defaults)")
	ttlFlag := flag.Duration("ttl", index.DefaultTTL, "snapshot and provider cache freshness window")
	workersFlag := flag.Int("workers", 4, "parallel document extraction workers")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTraces, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "judagg",
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
	}, logger)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	keywords := relevance.Default()
	if *rulesFlag != "" {
		keywords, err = relevance.Load(*rulesFlag)
		if err != nil {
			logger.Fatal("load keyword rules", zap.String("path", *rulesFlag), zap.Error(err))
		}
	}

	cfg := index.Config{TTL: *ttlFlag}
	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	var store index.API
	if dbPath != "" {
		ss, err := index.NewSQLiteStore(dbPath, cfg)
		if err != nil {
			logger.Fatal("open sqlite snapshot store", zap.String("path", dbPath), zap.Error(err))
		}
		defer ss.Close()
		store = ss
		logger.Info("using sqlite snapshot store", zap.String("path", dbPath))
	} else {
		store = index.NewStore(cfg)
		logger.Info("using in-memory snapshot store")
	}

	source := gazette.NewDirSource(*docsFlag)
	extractor := gazette.NewExtractor(keywords, gazette.DefaultWindow)
	indexer := index.NewIndexer(source, extractor, store, *workersFlag, logger)

	var providerSvc httpapi.ProviderSource
	var cache *datajud.Cache
	if key := os.Getenv("DATAJUD_API_KEY"); key != "" {
		client := datajud.NewClient(os.Getenv("DATAJUD_BASE_URL"), key, nil, logger)
		cache = datajud.NewCache(*cacheFlag, *ttlFlag, nil)
		providerSvc = datajud.NewService(client, cache, 0, logger)
	} else {
		logger.Info("DATAJUD_API_KEY unset, provider endpoints disabled")
	}

	addr := *addrFlag
	if addr == "" {
		addr = ":8080"
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewServer(store, indexer, providerSvc, cache, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
		if shutdownTraces != nil {
			if err := shutdownTraces(shutdownCtx); err != nil {
				logger.Warn("trace flush", zap.Error(err))
			}
		}
	}()

	logger.Info("judagg listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
