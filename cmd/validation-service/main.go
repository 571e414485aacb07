package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	catalog_db "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	ticket_db "ms-boxoffice/internal/tickets/db"
	"ms-boxoffice/internal/token"
	"ms-boxoffice/internal/validation"
	validation_api "ms-boxoffice/internal/validation/api"
)

// Standalone validation service: the gate scanners hit this and nothing
// else, so a sales rush cannot slow down entry.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.Token.Secret == "" {
		log.Fatal("CONFIG", "TICKET_SECRET_KEY not set")
	}

	ctx := context.Background()

	sqldb, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	var guard *validation.ScanGuard
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable, scan guard disabled: %v", err))
	} else {
		defer redisClient.Close()
		guard = validation.NewScanGuard(redisClient, cfg.Redis.ScanGuardTTL)
	}

	var producer *kafka.Producer
	var publisher validation.KafkaPublisher
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}

	service := validation.NewService(
		&ticket_db.DB{Bun: bunDB},
		&catalog_db.DB{Bun: bunDB},
		token.NewGenerator(cfg.Token.Secret),
		publisher,
		log,
	)
	handler := validation_api.NewHandler(service, guard, log)

	r := chi.NewRouter()
	r.Post("/api/validate", handler.ValidateTicket)

	server := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Validation service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("HTTP", "✅ Validation service shutdown complete")
}
