// cmd/flightbot/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/amadeus"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/config"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/database"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/conversation"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/search"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/transport/telegram"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting flight bot...",
		zap.String("mode", cfg.Telegram.Mode),
		zap.String("storeBackend", cfg.Store.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Conversation store ---
	var store conversation.Store
	switch cfg.Store.Backend {
	case "redis":
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Store.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		store = conversation.NewRedisStore(redis.Client, time.Duration(cfg.Store.TTL)*time.Second)
	default:
		store = conversation.NewMemoryStore()
	}

	// --- Provider and search pipeline ---
	provider := amadeus.NewClient(cfg.Amadeus, log)
	orchestrator := search.NewOrchestrator(provider, cfg.Amadeus.MaxOffers, cfg.Amadeus.Currency, log)

	var resolver conversation.Resolver
	if !cfg.Resolver.Disabled {
		resolver = &cityResolver{client: provider, max: cfg.Resolver.MaxCandidates}
	}

	engine := conversation.NewEngine(conversation.EngineOptions{
		Store:       store,
		Resolver:    resolver,
		Searcher:    orchestrator,
		Logger:      log,
		DirectEntry: cfg.Resolver.Disabled,
	})

	bot, err := telegram.New(cfg.Telegram, engine, log)
	if err != nil {
		zapLog.Fatal("telegram client failed", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Run transport until shutdown ---
	switch cfg.Telegram.Mode {
	case "webhook":
		err = bot.RunWebhook(ctx)
	default:
		err = bot.RunPolling(ctx)
	}
	if err != nil && err != context.Canceled {
		zapLog.Fatal("transport stopped with error", zap.Error(err))
	}

	zapLog.Info("Flight bot stopped gracefully")
}

// cityResolver adapts the provider's location lookup to the conversation
// engine's candidate type, capping the list length.
type cityResolver struct {
	client *amadeus.Client
	max    int
}

func (r *cityResolver) Resolve(ctx context.Context, keyword string) []conversation.Candidate {
	locations := r.client.SearchLocations(ctx, keyword)
	if r.max > 0 && len(locations) > r.max {
		locations = locations[:r.max]
	}

	candidates := make([]conversation.Candidate, 0, len(locations))
	for _, loc := range locations {
		candidates = append(candidates, conversation.Candidate{
			DisplayName:  loc.Name,
			LocationCode: loc.IataCode,
		})
	}
	return candidates
}
