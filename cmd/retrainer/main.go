package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/models"
	"ecopulse-analytics-api/modelstore"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	modelsTrained = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecopulse_retrainer_models_trained_total",
		Help: "Total number of models trained and saved.",
	})
	cyclesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecopulse_retrainer_cycles_failed_total",
		Help: "Total number of retrain cycles with at least one failed target.",
	})
	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecopulse_retrainer_record_events_total",
		Help: "Total number of record change events that requested a retrain.",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecopulse_retrainer_cycle_duration_seconds",
		Help:    "Duration of a full retrain cycle.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsAddr := getEnv("METRICS_ADDR", ":8081")
	intervalMin := getEnvInt("RETRAIN_INTERVAL_MIN", 60)
	minGapSec := getEnvInt("RETRAIN_MIN_GAP_SEC", 30)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	st, err := store.Connect(ctx, cfg.Mongo, store.RetryPolicy{MaxAttempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay})
	if err != nil {
		log.Fatalf("mongo connect failed: %v", err)
	}
	defer st.Close(context.Background())

	params, err := modelstore.Open(cfg.Models, cfg.Database)
	if err != nil {
		log.Fatalf("model store init failed: %v", err)
	}

	// Redis is optional: without it only the interval triggers a retrain
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("redis unavailable, record events disabled: %v", err)
	}
	defer cache.Close()

	go serveHTTP(metricsAddr)

	w := &worker{
		records: st.Records(),
		params:  params,
		cache:   cache,
		minGap:  time.Duration(minGapSec) * time.Second,
	}

	var events <-chan []byte
	if cache.Available() {
		pubsub := cache.Subscribe(ctx, services.RecordsChannel)
		defer pubsub.Close()
		ch := make(chan []byte)
		go func() {
			defer close(ch)
			for msg := range pubsub.Channel() {
				ch <- []byte(msg.Payload)
			}
		}()
		events = ch
	}

	interval := time.Duration(intervalMin) * time.Minute
	log.Printf("retrainer running: interval=%s min_gap=%s targets=%v", interval, w.minGap, forecast.Targets)

	// Run first cycle immediately
	w.runCycle(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case now := <-ticker.C:
			w.runCycle(ctx, now)
		case payload, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !triggersRetrain(payload) {
				continue
			}
			eventsReceived.Inc()
			now := time.Now()
			if wait := w.waitFor(now); wait > 0 {
				debounce.Reset(wait)
				continue
			}
			w.runCycle(ctx, now)
		case now := <-debounce.C:
			w.runCycle(ctx, now)
		case <-ctx.Done():
			log.Printf("retrainer shutting down")
			return
		}
	}
}

type worker struct {
	records dataset.Source
	params  forecast.ParamStore
	cache   *services.CacheService
	minGap  time.Duration
	lastRun time.Time
}

// waitFor reports how long a retrain requested at now must be delayed so
// that cycles are at least minGap apart.
func (w *worker) waitFor(now time.Time) time.Duration {
	if w.lastRun.IsZero() {
		return 0
	}
	if next := w.lastRun.Add(w.minGap); now.Before(next) {
		return next.Sub(now)
	}
	return 0
}

func (w *worker) runCycle(ctx context.Context, now time.Time) {
	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
	}()
	w.lastRun = now

	trained, err := services.TrainAll(ctx, w.records, w.params, forecast.Targets, forecast.DefaultFeatures, forecast.DefaultTrainOptions, now.UTC())
	if err != nil {
		cyclesFailed.Inc()
		log.Printf("retrain cycle: %v", err)
	}
	modelsTrained.Add(float64(len(trained)))
	if len(trained) == 0 {
		return
	}

	if err := w.cache.InvalidatePrefix(ctx, services.NationalForecastPrefix); err != nil {
		log.Printf("cache invalidate failed: %v", err)
	}
	for _, p := range trained {
		event := models.RecordEvent{Type: models.EventRetrained, Collection: models.ModelsCollection, Key: p.Target}
		if err := w.cache.Publish(ctx, services.RecordsChannel, event); err != nil {
			log.Printf("redis publish failed for %s: %v", p.Target, err)
		}
	}

	log.Printf("retrain cycle completed: %d models (%.2fs)", len(trained), time.Since(start).Seconds())
}

// triggersRetrain reports whether an event changed national records.
func triggersRetrain(payload []byte) bool {
	var event models.RecordEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("ignoring malformed record event: %v", err)
		return false
	}
	return event.Collection == store.RecordsCollection
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}
