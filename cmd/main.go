package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "presto-bot/internal/adapter/http"
	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/adapter/postgres"
	"presto-bot/internal/adapter/rabbitmq"
	"presto-bot/internal/app/conversation"
	"presto-bot/internal/app/notify"
	"presto-bot/internal/app/order"
	"presto-bot/internal/app/session"
	"presto-bot/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lgr := logger.New("presto-bot")

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	// Wiring: repositories, ports, core services.
	userRepo := postgres.NewUserRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	chat := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, *prefetch)

	store := session.NewStore(cfg.Session.MaxEntries)
	stats := &conversation.Stats{}
	processor := order.NewProcessor(lgr)
	dispatcher := notify.NewDispatcher(chat, userRepo, cfg.Bot.AdminChatID, lgr)

	engine := conversation.NewEngine(store, userRepo, catalogRepo, processor, dispatcher, chat, lgr, stats, conversation.Config{
		AdminChatID:   cfg.Bot.AdminChatID,
		BranchPhone:   cfg.Bot.BranchPhone,
		BranchAddress: cfg.Bot.BranchAddress,
		WebAppURL:     cfg.Bot.WebAppURL,
	})

	// Inbound events.
	go func() {
		if err := consumer.ConsumeEvents(ctx, engine.HandleRaw); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming chat events", "", nil, err)
		}
	}()

	// Operational HTTP surface.
	statsHandler := httpAdapter.NewStatsHandler(stats, store, lgr)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      statsHandler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lgr.Error("server_error", "HTTP server error", "", nil, err)
		}
	}()

	lgr.Info("service_started", "Presto bot core started", "", map[string]interface{}{
		"http_port":     cfg.HTTP.Port,
		"admin_chat_id": cfg.Bot.AdminChatID,
	})

	// Graceful shutdown.
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down", "", nil)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "", nil, err)
	}
}
