package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reelsearch/internal/config"
	dbRedis "github.com/kailas-cloud/reelsearch/internal/db/redis"
	"github.com/kailas-cloud/reelsearch/internal/domain"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	logpkg "github.com/kailas-cloud/reelsearch/internal/logger"
	"github.com/kailas-cloud/reelsearch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/reelsearch/internal/repository/catalog"
	"github.com/kailas-cloud/reelsearch/internal/repository/embcache"
	"github.com/kailas-cloud/reelsearch/internal/repository/entitydict"
	"github.com/kailas-cloud/reelsearch/internal/repository/profilestore"
	chiTransport "github.com/kailas-cloud/reelsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/reelsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/reelsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/reelsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/reelsearch/internal/usecase/search"
	"github.com/kailas-cloud/reelsearch/internal/usecase/snapshot"
	"github.com/kailas-cloud/reelsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting reelsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Entity snapshot. A missing source degrades to empty data, never a crash.
	builder, closeProfiles := buildSnapshotBuilder(&cfg.Entities, logger)
	defer closeProfiles()

	snap, err := builder.Build(ctx)
	if err != nil {
		logger.Error("Entity sources unavailable, serving degraded",
			zap.Error(domain.NewConfigurationError("entities", err)))
	}
	holder := snapshot.NewHolder(snap)

	// Pass nil interfaces (not typed nil pointers) to health when a component is down.
	var (
		searchSvc  *searchuc.Service
		indexCheck healthuc.IndexChecker
		embedCheck healthuc.EmbeddingChecker
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err == nil {
		defer store.Close()
		err = store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	}

	if err != nil {
		cause := domain.NewConfigurationError("index", err)
		logger.Error("Vector index unavailable, search disabled", zap.Error(cause))
		searchSvc = searchuc.NewUnavailable(cause, holder)
	} else {
		logger.Info("Connected to database")

		queryEmbedder := buildEmbedder(&cfg.Embedding, store, cfg.Catalog.KeyPrefix, logger)
		repo := catalogrepo.New(store, cfg.Catalog.KeyPrefix, cfg.Catalog.IndexName)
		if err := repo.Ready(ctx); err != nil {
			logger.Warn("Catalog index not ready yet", zap.Error(err))
		}

		searchSvc, embedCheck = newSearchService(ctx, repo, queryEmbedder, holder, searchuc.Config{
			OverFetch:        cfg.Catalog.OverFetch,
			TimelinePageSize: cfg.Catalog.TimelinePageSize,
		}, time.Duration(cfg.Database.ReadinessTimeout)*time.Second, logger)
		indexCheck = repo
	}

	healthSvc := healthuc.New(indexCheck, embedCheck, holder)

	server := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.Options{
		DefaultLimit:     cfg.Search.DefaultLimit,
		DefaultThreshold: cfg.Search.DefaultThreshold,
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
			Code:    chiTransport.ErrorCodeNotFound,
			Message: "route not found",
		})
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if cfg.Entities.Watch {
		watcher := snapshot.NewWatcher(holder, builder, watchedPaths(&cfg.Entities),
			time.Duration(cfg.Entities.DebounceMs)*time.Millisecond, logger)
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped gracefully")
}

// probedEmbedder is the query embedder chain: it embeds and can be health-checked.
type probedEmbedder interface {
	searchuc.Embedder
	healthuc.EmbeddingChecker
}

// newSearchService probes the embedding provider once at startup. An unreachable
// provider disables search for the life of the process, like a missing index, and
// the returned checker is nil so health reports the embedder as unavailable.
func newSearchService(
	ctx context.Context,
	repo searchuc.Repository,
	emb probedEmbedder,
	snaps searchuc.SnapshotSource,
	cfg searchuc.Config,
	timeout time.Duration,
	logger *zap.Logger,
) (*searchuc.Service, healthuc.EmbeddingChecker) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := emb.HealthCheck(probeCtx); err != nil {
		cause := domain.NewConfigurationError("embedding", err)
		logger.Error("Embedding provider unavailable, search disabled", zap.Error(cause))
		return searchuc.NewUnavailable(cause, snaps), nil
	}
	return searchuc.New(repo, emb, snaps, cfg), emb
}

// buildSnapshotBuilder wires the dictionary and profile sources. The returned
// func releases the badger store when one is configured.
func buildSnapshotBuilder(cfg *config.EntitiesConfig, logger *zap.Logger) (*snapshot.Builder, func()) {
	var dict snapshot.DictionaryLoader
	if cfg.DictionaryPath != "" {
		dict = entitydict.NewFile(cfg.DictionaryPath)
	}

	closer := func() {}
	var loaders []profilestore.Loader
	switch {
	case cfg.BadgerPath != "":
		db, err := profilestore.OpenBadger(cfg.BadgerPath, logger)
		if err != nil {
			logger.Error("Profile store unavailable", zap.String("path", cfg.BadgerPath), zap.Error(err))
			loaders = append(loaders, failingLoader{err: err})
			break
		}
		loaders = append(loaders, db)
		closer = func() { _ = db.Close() }
	case cfg.ProfilesPath != "":
		loaders = append(loaders, profilestore.NewJSONFile(cfg.ProfilesPath))
	}
	if cfg.BatchGlob != "" {
		loaders = append(loaders, profilestore.NewBatchReader(cfg.BatchGlob, 0, logger))
	}

	var profiles snapshot.ProfileLoader
	if len(loaders) > 0 {
		profiles = profilestore.NewSource(loaders...)
	}
	return snapshot.NewBuilder(dict, profiles, logger), closer
}

// failingLoader reports a store that could not be opened on every build.
type failingLoader struct{ err error }

func (f failingLoader) LoadProfiles(context.Context) ([]domprofile.Profile, error) { return nil, f.err }

func watchedPaths(cfg *config.EntitiesConfig) []string {
	paths := []string{cfg.DictionaryPath}
	if cfg.BadgerPath == "" {
		paths = append(paths, cfg.ProfilesPath)
	}
	return paths
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached -> Instruction.
func buildEmbedder(
	cfg *config.EmbeddingConfig, store *dbRedis.Store, keyPrefix string, logger *zap.Logger,
) *domain.InstructionEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, logger)
	embedder = embcache.New(embedder, store, keyPrefix, cfg.Model,
		time.Duration(cfg.CacheTTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)

	// Outermost, so the cache key includes the instruction.
	return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.Query().Get("q")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
