package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/tawhid120/Save-restricted-content-bot/internal/bot"
	"github.com/tawhid120/Save-restricted-content-bot/internal/config"
	"github.com/tawhid120/Save-restricted-content-bot/internal/database"
	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
	"github.com/tawhid120/Save-restricted-content-bot/internal/publisher"
	"github.com/tawhid120/Save-restricted-content-bot/internal/relay"
	"github.com/tawhid120/Save-restricted-content-bot/internal/telegram"
	"github.com/tawhid120/Save-restricted-content-bot/internal/users"
	"github.com/tawhid120/Save-restricted-content-bot/internal/web"
)

func main() {
	_ = godotenv.Load()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel, cfg.LogFile)
	log := logger.Get()
	log.Info().Msg("starting content saver bot")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Setup resources
	replies, err := config.LoadReplies(cfg.RepliesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load replies")
	}

	// Database, optional
	var store *users.Store
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		store, err = users.NewStore(db.GORM)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to migrate users table")
		}
		log.Info().Msg("connected to database")
	} else {
		log.Warn().Msg("DATABASE_URL not set, user directory disabled")
	}

	// NATS, optional
	var events relay.EventPublisher
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("content-saver-bot"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer nc.Close()
		events = publisher.NewNATSPublisher(nc)
		log.Info().Msg("connected to nats")
	}

	// Telegram client
	proto, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypeBot(cfg.BotToken),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open(cfg.SessionDB)),
			DisableCopyright: true,
		})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram client")
	}
	client := telegram.NewClient(proto)
	log.Info().Str("username", client.Self().Username).Msg("telegram client authorized")

	go func() {
		<-ctx.Done()
		proto.Stop()
	}()

	// Relay
	state := relay.NewStateStore()
	coordinator := relay.NewCoordinator(relay.NewEngine(client), state, events)

	b := bot.New(client, coordinator, store, replies, cfg.OwnerID)

	// Web server
	srv := web.NewServer(&web.Config{Port: cfg.HTTPPort}, func(ctx context.Context) web.Status {
		status := web.Status{
			Bot:    "@" + client.Self().Username,
			Uptime: b.Uptime().Round(time.Second).String(),
		}
		if n, err := store.Count(ctx); err == nil {
			status.UsersSeen = n
		}
		if db != nil {
			_, _, total := db.Stats()
			status.DBConnections = total
		}
		status.ActiveBatches = state.Count()
		return status
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("web server stopped")
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Stop(shutdownCtx)
	}()
	log.Info().Int("port", cfg.HTTPPort).Msg("web server started")

	// 5. Run the bot until shutdown
	if err := b.Run(); err != nil {
		log.Fatal().Err(err).Msg("bot stopped with error")
	}

	log.Info().Msg("shutdown complete")
}
