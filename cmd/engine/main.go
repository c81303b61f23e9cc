package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/asynkron/protoactor-go/actor"

	"paw-grove/internal/config"
	"paw-grove/internal/database"
	"paw-grove/internal/engine"
	"paw-grove/internal/handlers"
	"paw-grove/internal/middleware"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
	"paw-grove/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	metrics := utils.NewMetricsCollector()
	taxonomy := models.NewTaxonomy(models.DefaultTaxonomy())

	// Pick the persistence backend from config. "memory" runs without
	// one; the actors keep everything in process.
	var store database.DBAdapter
	switch cfg.Database.Type {
	case "mongo":
		mongodb, err := database.NewMongoDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongodb.Close(context.Background())
		store = mongodb
	case "postgres":
		postgres, err := database.NewPostgresDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer postgres.Close(context.Background())
		if err := postgres.InitializeTables(context.Background()); err != nil {
			log.Fatalf("Failed to initialize tables: %v", err)
		}
		store = postgres
	}

	hub := websocket.NewHub()
	go hub.Run()

	system := actor.NewActorSystem()
	groveEngine := engine.NewEngine(system, metrics, taxonomy, store, hub)

	server := handlers.NewServer(system, system.Root, groveEngine, metrics, store, hub, taxonomy)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HandleHealth())
	mux.HandleFunc("/metrics", server.HandleMetrics())

	mux.HandleFunc("/user/register", server.HandleUserRegistration())
	mux.HandleFunc("/user/login", server.HandleUserLogin())
	mux.HandleFunc("/user/profile", server.HandleUserProfile())
	mux.HandleFunc("/user/follow", server.HandleFollow())
	mux.HandleFunc("/user/role", server.HandleSetRole())

	mux.HandleFunc("/post", server.HandlePost())
	mux.HandleFunc("/post/pin", server.HandlePin())
	mux.HandleFunc("/post/reaction", server.HandleReaction())
	mux.HandleFunc("/post/pawvote", server.HandlePawvote())
	mux.HandleFunc("/post/save", server.HandleSave())
	mux.HandleFunc("/post/poll", server.HandlePollVote())
	mux.HandleFunc("/post/block-author", server.HandleBlockAuthor())
	mux.HandleFunc("/feed", server.HandleFeed())

	mux.HandleFunc("/comment", server.HandleComment())
	mux.HandleFunc("/comment/post", server.HandlePostComments())
	mux.HandleFunc("/comment/pawvote", server.HandleCommentPawvote())

	mux.HandleFunc("/moderation/report", server.HandleReport())
	mux.HandleFunc("/moderation/resolve", server.HandleResolveReport())
	mux.HandleFunc("/moderation/appeal", server.HandleAppeal())
	mux.HandleFunc("/moderation/appeal/review", server.HandleReviewAppeal())
	mux.HandleFunc("/moderation/verification", server.HandleVerification())
	mux.HandleFunc("/moderation/verification/review", server.HandleReviewVerification())

	mux.HandleFunc("/adoption", server.HandleListing())
	mux.HandleFunc("/adoption/browse", server.HandleBrowseListings())
	mux.HandleFunc("/adoption/interest", server.HandleListingInterest())
	mux.HandleFunc("/adoption/status", server.HandleListingStatus())

	mux.HandleFunc("/support/ticket", server.HandleTicket())
	mux.HandleFunc("/support/open", server.HandleOpenTickets())
	mux.HandleFunc("/support/reply", server.HandleTicketReply())
	mux.HandleFunc("/support/close", server.HandleCloseTicket())

	mux.HandleFunc("/ws", server.HandleWebSocket())

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	handler := middleware.CORSMiddleware(corsConfig)(middleware.AuthMiddleware(mux))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s (db: %s)", serverAddr, cfg.Database.Type)
	if err := http.ListenAndServe(serverAddr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
