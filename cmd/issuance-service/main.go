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
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	catalog_db "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/inventory"
	inventory_db "ms-boxoffice/internal/inventory/db"
	"ms-boxoffice/internal/issuance"
	issuance_api "ms-boxoffice/internal/issuance/api"
	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	ticket_db "ms-boxoffice/internal/tickets/db"
	"ms-boxoffice/internal/token"
)

// Standalone issuance service: purchases only, for deployments that
// scale the sales path separately from the gate scanners.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.Token.Secret == "" {
		log.Fatal("CONFIG", "TICKET_SECRET_KEY not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	var producer *kafka.Producer
	var publisher issuance.KafkaPublisher
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}

	service := issuance.NewService(
		&catalog_db.DB{Bun: bunDB},
		inventory.NewLedger(&inventory_db.DB{Bun: bunDB}),
		token.NewGenerator(cfg.Token.Secret),
		&ticket_db.DB{Bun: bunDB},
		publisher,
		log,
	)
	handler := issuance_api.NewHandler(service, log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/purchases", handler.PlacePurchase)
		r.Get("/purchases/{purchaseID}/tickets", handler.GetPurchaseTickets)
		r.Get("/buyers/{email}/tickets", handler.GetBuyerTickets)
		r.Post("/tickets/{ticketID}/cancel", handler.CancelTicket)
	})

	server := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Issuance service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("HTTP", "✅ Issuance service shutdown complete")
}
