package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"

	appbot "terarelay-bot/internal/bot"
	"terarelay-bot/internal/config"
	"terarelay-bot/internal/links"
	"terarelay-bot/internal/relay"
	"terarelay-bot/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Release:     cfg.Version,
		Debug:       cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, db, err := storage.ConnectDB(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	defer func() {
		if err = client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Disconnected from MongoDB.")
		}
	}()

	// Create the forward-record repository and its unique index
	forwardRepo := storage.NewMongoForwardRepository(db)
	if err := forwardRepo.EnsureIndexes(ctx); err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Create the raw telego bot instance
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	// Build the link pipeline and caption builder
	classifier := links.NewClassifier(cfg.TrackedMarker)
	redirects := links.NewRedirectBuilder(cfg.RedirectBase)
	rewriter := links.NewRewriter(classifier, redirects)
	captions := relay.NewCaptionBuilder(cfg.CaptionTemplate, cfg.FooterText)

	// Create the relayer
	relayer, err := relay.New(relay.RelayerDeps{
		Bot:          bot,
		Store:        forwardRepo,
		Rewriter:     rewriter,
		Redirects:    redirects,
		Captions:     captions,
		Sources:      cfg.SourceChannels,
		Destinations: cfg.Destinations,
		Debug:        cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Obtain the updates channel: webhook when a public URL is
	// configured, long polling otherwise
	var updates <-chan telego.Update
	var srv *http.Server
	if cfg.PublicURL != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		webhookURL := strings.TrimRight(cfg.PublicURL, "/") + cfg.WebhookPath
		log.Printf("Setting webhook to %s", webhookURL)
		updates, err = bot.UpdatesViaWebhook(ctx,
			telego.WebhookHTTPServeMux(mux, "POST "+cfg.WebhookPath, cfg.WebhookSecret),
			telego.WithWebhookSet(ctx, &telego.SetWebhookParams{
				URL:            webhookURL,
				SecretToken:    cfg.WebhookSecret,
				AllowedUpdates: []string{"channel_post"},
			}),
		)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatalf("Failed to start webhook updates: %v", err)
		}

		srv = &http.Server{Addr: cfg.ListenAddr, Handler: mux}
		go func() {
			log.Printf("Webhook server listening on %s", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Webhook server error: %v", err)
				sentry.CaptureException(err)
				stop()
			}
		}()
	} else {
		updates, err = bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
			AllowedUpdates: []string{"channel_post"},
		})
		if err != nil {
			sentry.CaptureException(err)
			log.Fatalf("Failed to start long polling: %v", err)
		}
	}

	// Create the bot wrapper and start its processing loop
	appBot, err := appbot.New(appbot.BotDeps{
		UpdatesChan: updates,
		Relayer:     relayer,
		Debug:       cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	go appBot.Start(ctx)

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Println("Shutting down bot...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Webhook server shutdown error: %v", err)
		}
	}

	log.Println("Bot shutdown complete.")
}
