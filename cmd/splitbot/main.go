package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/splitbot/splitbot/internal/api"
	"github.com/splitbot/splitbot/internal/auth"
	"github.com/splitbot/splitbot/internal/balance"
	"github.com/splitbot/splitbot/internal/bot"
	"github.com/splitbot/splitbot/internal/config"
	"github.com/splitbot/splitbot/internal/db"
	"github.com/splitbot/splitbot/internal/dialogue"
	"github.com/splitbot/splitbot/internal/ledger"
	"github.com/splitbot/splitbot/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Pick the session store: Postgres when configured, in-memory otherwise
	var store session.Store
	if cfg.DatabaseURL != "" {
		database, err := db.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.RunMigrations(context.Background()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		store = database
	} else {
		log.Println("DATABASE_URL not set; sessions will not survive a restart")
		store = session.NewMemory()
	}

	// Ledger gateway and services
	client := ledger.NewClient(cfg.SplitwiseClientID, cfg.SplitwiseClientSecret, cfg.SplitwiseAPIURL, cfg.OAuthRedirectURI)
	signer := auth.NewStateSigner([]byte(cfg.JWTSecret))
	authService := auth.NewService(client, store, signer)
	balances := balance.NewService(client, cfg.CurrencySymbol)

	// Discord transport, dialogue engine, command registry
	discordBot, err := bot.New(cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}
	engine := dialogue.NewEngine(client, discordBot, store, cfg.SessionTimeout, cfg.CurrencySymbol, cfg.SettleDescription)
	registry := bot.NewRouter(discordBot, bot.Services{
		Auth:     authService,
		Balances: balances,
		Engine:   engine,
		Store:    store,
	})
	discordBot.Bind(registry, engine)

	// OAuth callback server
	apiServer := api.New(cfg, authService, discordBot)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
