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
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-boxoffice/internal/auth"
	"ms-boxoffice/internal/catalog"
	catalog_api "ms-boxoffice/internal/catalog/api"
	catalog_db "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/database/migrations"
	"ms-boxoffice/internal/inventory"
	inventory_db "ms-boxoffice/internal/inventory/db"
	"ms-boxoffice/internal/issuance"
	issuance_api "ms-boxoffice/internal/issuance/api"
	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	ticket_db "ms-boxoffice/internal/tickets/db"
	"ms-boxoffice/internal/token"
	"ms-boxoffice/internal/validation"
	validation_api "ms-boxoffice/internal/validation/api"
)

func connectPostgres(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.URL)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL not ready: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable at %s, scan guard disabled: %v", cfg.Redis.Addr, err))
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Box Office service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Token.Secret == "" {
		log.Fatal("CONFIG", "TICKET_SECRET_KEY not set; refusing to issue unsigned tickets")
	}

	ctx := context.Background()

	bunDB := connectPostgres(cfg, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		version, err := runner.Version()
		if err == nil {
			log.Info("DATABASE", fmt.Sprintf("Schema at version %d", version))
		}
	}

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		log.Info("KAFKA", fmt.Sprintf("Producer initialized for topic %s", cfg.Kafka.Topic))
	} else {
		log.Warn("KAFKA", "Kafka disabled, ticket events will not be published")
	}

	tokens := token.NewGenerator(cfg.Token.Secret)

	catalogStore := &catalog_db.DB{Bun: bunDB}
	ticketStore := &ticket_db.DB{Bun: bunDB}
	ledger := inventory.NewLedger(&inventory_db.DB{Bun: bunDB})

	catalogService := catalog.NewService(catalogStore, ticketStore)
	issuanceService := issuance.NewService(catalogStore, ledger, tokens, ticketStore, kafkaOrNil(producer), log)
	validationService := validation.NewService(ticketStore, catalogStore, tokens, validatorKafkaOrNil(producer), log)

	var guard *validation.ScanGuard
	if redisClient != nil {
		guard = validation.NewScanGuard(redisClient, cfg.Redis.ScanGuardTTL)
	}

	catalogHandler := catalog_api.NewHandler(catalogService, log)
	issuanceHandler := issuance_api.NewHandler(issuanceService, log)
	validationHandler := validation_api.NewHandler(validationService, guard, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	registerRoutes := func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", catalogHandler.CreateEvent)
			r.Get("/", catalogHandler.ListEvents)
			r.Get("/{eventID}", catalogHandler.GetEvent)
			r.Post("/{eventID}/cancel", catalogHandler.CancelEvent)
			r.Post("/{eventID}/finish", catalogHandler.FinishEvent)
			r.Get("/{eventID}/stats", catalogHandler.GetEventStats)
		})
		log.Info("ROUTER", "Catalog routes registered under /api/events")

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", issuanceHandler.PlacePurchase)
			r.Get("/{purchaseID}/tickets", issuanceHandler.GetPurchaseTickets)
		})
		r.Get("/buyers/{email}/tickets", issuanceHandler.GetBuyerTickets)
		r.Post("/tickets/{ticketID}/cancel", issuanceHandler.CancelTicket)
		log.Info("ROUTER", "Issuance routes registered under /api/purchases")

		r.Post("/validate", validationHandler.ValidateTicket)
		log.Info("ROUTER", "Validation route registered at /api/validate")
	}

	if issuer := os.Getenv("OIDC_ISSUER"); issuer != "" {
		authMiddleware, err := auth.Middleware(issuer)
		if err != nil {
			log.Fatal("AUTH", fmt.Sprintf("OIDC setup failed: %v", err))
		}
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Route("/api", registerRoutes)
		})
		log.Info("AUTH", fmt.Sprintf("OIDC middleware applied, issuer %s", issuer))
	} else {
		r.Route("/api", registerRoutes)
		log.Warn("AUTH", "OIDC_ISSUER not set, API routes are unauthenticated")
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Box Office service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Box Office service shutdown complete")
	}
}

// Typed-nil guards: a nil *kafka.Producer stored in an interface field
// would dodge the services' nil checks.
func kafkaOrNil(p *kafka.Producer) issuance.KafkaPublisher {
	if p == nil {
		return nil
	}
	return p
}

func validatorKafkaOrNil(p *kafka.Producer) validation.KafkaPublisher {
	if p == nil {
		return nil
	}
	return p
}
