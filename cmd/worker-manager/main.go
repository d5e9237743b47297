// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"oyz-trade/internal/assistant"
	"oyz-trade/internal/common/camunda"
	"oyz-trade/internal/common/config"
	"oyz-trade/internal/common/database"
	apperrors "oyz-trade/internal/common/errors"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/common/observability"
	"oyz-trade/internal/recordstore"
	"oyz-trade/internal/sessionstore"

	ht "oyz-trade/internal/workers/assistant/handle-turn"
	li "oyz-trade/internal/workers/inventory/lookup-items"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewFromConfig(cfg.Logging)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":           cfg.App.Name,
		"searchBackend": cfg.Assistant.SearchBackend,
	})

	obs := observability.New(cfg.Observability.ServiceName, log)
	defer obs.Shutdown()

	shutdownTracing, err := observability.InitTracing(cfg.Observability)
	if err != nil {
		log.Warn("tracing disabled", map[string]interface{}{"error": err})
		shutdownTracing = func(context.Context) error { return nil }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, log, "zeebe client")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("zeebe client connected", nil)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "postgres connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected", nil)

	// --- Redis ---
	var rdb *database.RedisClient
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected", nil)

	// --- Record store ---
	finder := recordstore.NewPostgres(pg.DB)
	var searcher recordstore.Searcher = finder
	var esClient *database.ElasticsearchClient
	if cfg.Assistant.SearchBackend == config.SearchBackendElasticsearch {
		err = camunda.RetryWithBackoff(ctx, func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, log, "elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		searcher = recordstore.NewElasticsearchSearcher(esClient.Client, cfg.Assistant.IndexPrefix)
		log.Info("elasticsearch connected", nil)
	}
	store := recordstore.New(finder, searcher)

	interp := assistant.NewInterpreter(store, assistant.Options{
		CandidateLimit: cfg.Assistant.CandidateLimit,
		HistoryLimit:   cfg.Assistant.HistoryLimit,
		Routes:         assistant.DefaultRoutes().WithOverrides(cfg.Assistant.Routes),
	}, log)
	sessions := sessionstore.NewRedisStore(rdb.Client, config.GetDuration(cfg.Assistant.SessionTTL))

	// --- Workers ---
	var workers []*camunda.Worker

	if config.IsWorkerEnabled(cfg, ht.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, ht.TaskType)
		handler := ht.NewHandler(&ht.Config{Timeout: config.GetDuration(wcfg.Timeout)}, interp, sessions, log)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), ht.TaskType, wcfg, instrument(obs, ht.TaskType, handler.Handle), log))
	} else {
		log.Info("worker disabled", map[string]interface{}{"taskType": ht.TaskType})
	}

	if config.IsWorkerEnabled(cfg, li.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, li.TaskType)
		handler := li.NewHandler(&li.Config{
			Timeout:      config.GetDuration(wcfg.Timeout),
			DefaultLimit: cfg.Assistant.CandidateLimit,
			MaxLimit:     li.LoadConfig().MaxLimit,
		}, store, log)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), li.TaskType, wcfg, instrument(obs, li.TaskType, handler.Handle), log))
	} else {
		log.Info("worker disabled", map[string]interface{}{"taskType": li.TaskType})
	}

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		status := http.StatusOK
		probe := func(name string, ping func(context.Context) error) {
			pctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(pctx); err != nil {
				checks[name] = apperrors.Normalize(err).Details
				status = http.StatusServiceUnavailable
				return
			}
			checks[name] = "ok"
		}
		probe("postgres", pg.Ping)
		probe("redis", rdb.Ping)
		probe("zeebe", zeebe.HealthCheck)
		if esClient != nil {
			probe("elasticsearch", esClient.Ping)
		}

		checks["status"] = "ready"
		if status != http.StatusOK {
			checks["status"] = "not ready"
		}
		writeStatus(w, status, checks)
	})
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Observability.HTTPAddress, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
		log.Info("worker stopped", map[string]interface{}{"taskType": w.TaskType()})
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("error flushing traces", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("worker manager stopped", nil)
}

// instrument records otel job metrics around a job handler.
func instrument(obs *observability.Observability, taskType string, handle worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		ctx, span := obs.StartSpan(context.Background(), "job."+taskType)
		defer span.End()

		start := time.Now()
		handle(client, job)
		obs.RecordJobProcessed(ctx, taskType, "handled")
		obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
	}
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
