package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/veritex-io/veritex/internal/config"
	dbRedis "github.com/veritex-io/veritex/internal/db/redis"
	"github.com/veritex-io/veritex/internal/domain"
	memindex "github.com/veritex-io/veritex/internal/index/memory"
	"github.com/veritex-io/veritex/internal/index/redisearch"
	logpkg "github.com/veritex-io/veritex/internal/logger"
	"github.com/veritex-io/veritex/internal/metrics"
	blobrepo "github.com/veritex-io/veritex/internal/repository/blob"
	ledgerrepo "github.com/veritex-io/veritex/internal/repository/ledger"
	reportrepo "github.com/veritex-io/veritex/internal/repository/report"
	"github.com/veritex-io/veritex/internal/scorer"
	chiTransport "github.com/veritex-io/veritex/internal/transport/chi"
	openaiEmb "github.com/veritex-io/veritex/internal/transport/openai"
	anchoruc "github.com/veritex-io/veritex/internal/usecase/anchor"
	corpusuc "github.com/veritex-io/veritex/internal/usecase/corpus"
	detectuc "github.com/veritex-io/veritex/internal/usecase/detect"
	healthuc "github.com/veritex-io/veritex/internal/usecase/health"
	reportuc "github.com/veritex-io/veritex/internal/usecase/report"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting veritex API server",
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index", cfg.Index.Name),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterDetectionMetrics()

	// Shortlist index over the reference corpus. The memory backend keeps
	// the corpus in-process for Redis servers without the search module;
	// redisearch pushes BM25 ranking server-side.
	var corpusIndex shortlistIndex
	switch cfg.Index.Backend {
	case "memory":
		corpusIndex = memindex.New()
	default:
		ri := redisearch.New(store, cfg.Index.Name, cfg.Index.KeyPrefix)
		if err := ri.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure corpus index", zap.Error(err))
		}
		corpusIndex = ri
	}
	logger.Info("Corpus index ready", zap.String("backend", cfg.Index.Backend))

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
	})
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	reportRepo := reportrepo.New(store)
	ledgerRepo := ledgerrepo.New(store)
	blobRepo := blobrepo.New(store)

	bands := domain.DefaultRiskBands()
	if cfg.Detection.RiskHigh > 0 {
		bands = domain.RiskBands{High: cfg.Detection.RiskHigh, Medium: cfg.Detection.RiskMedium}
	}

	// Use case services
	corpusSvc := corpusuc.New(corpusIndex)
	reportOpts := []reportuc.Option{reportuc.WithBands(bands)}
	if cfg.Detection.MaxSources > 0 {
		reportOpts = append(reportOpts, reportuc.WithMaxSources(cfg.Detection.MaxSources))
	}
	reportSvc := reportuc.New(reportRepo, reportOpts...)
	anchorSvc := anchoruc.New(blobRepo, ledgerRepo)

	detectSvc := detectuc.New(
		corpusIndex,
		lexicalAdapter{scorer.NewLexical()},
		semanticAdapter{scorer.NewSemantic(embedder)},
		reportSvc,
		detectuc.Options{
			ShortlistK:       cfg.Detection.ShortlistK,
			Workers:          cfg.Detection.Workers,
			CandidateTimeout: time.Duration(cfg.Detection.CandidateTimeoutSec) * time.Second,
			SpanThreshold:    cfg.Detection.SpanThreshold,
			SpanFloor:        cfg.Detection.SpanFloor,
			Weights: domain.FusionWeights{
				Lexical:  cfg.Detection.LexicalWeight,
				Semantic: cfg.Detection.SemanticWeight,
			},
			Bands: bands,
		},
	)

	healthSvc := healthuc.New(store, corpusIndex, embedder)

	server := chiTransport.NewServer(corpusSvc, detectSvc, reportSvc, anchorSvc, healthSvc, logger)
	router := server.Router(
		jsonRecoverer(logger),
		chiMiddleware.RequestID,
		wideEventMiddleware(logger),
		chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys),
		metrics.Middleware(),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// shortlistIndex is what both index backends provide: ingestion for the
// corpus service and Stage 1 retrieval for the detector.
type shortlistIndex interface {
	corpusuc.Indexer
	detectuc.Shortlister
}

// lexicalAdapter narrows *scorer.Lexical to the pipeline's LexicalScorer
// interface. Fit returns a concrete *scorer.Run; the adapter rewraps it as
// the interface the orchestrator expects.
type lexicalAdapter struct {
	lex *scorer.Lexical
}

func (a lexicalAdapter) Fit(query string, docs []string) detectuc.LexicalRun {
	return a.lex.Fit(query, docs)
}

// semanticAdapter does the same for *scorer.Semantic. Returning the nil
// interface on error matters here: a typed nil *scorer.Query wrapped in the
// interface would not compare equal to nil in the orchestrator.
type semanticAdapter struct {
	sem *scorer.Semantic
}

func (a semanticAdapter) Prepare(ctx context.Context, queryText string) (detectuc.SemanticQuery, error) {
	q, err := a.sem.Prepare(ctx, queryText)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
