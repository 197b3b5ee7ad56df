package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is built once at startup
// and passed into component constructors; nothing reads the environment
// after LoadConfig returns.
type Config struct {
	AppEnv  string
	Debug   bool
	Version string

	BotToken string

	// SourceChannels is the optional source allow-list. Empty means any
	// channel is accepted. Entries are numeric chat IDs or @usernames.
	SourceChannels []string
	// Destinations is the list of channels posts are relayed to.
	Destinations []string

	// RedirectBase is the tracking-redirect base URL. Empty disables
	// rewriting and passes tracked URLs through unchanged.
	RedirectBase string
	// TrackedMarker is the substring identifying the monitored file host.
	TrackedMarker string

	CaptionTemplate string
	FooterText      string

	SentryDSN       string
	MongoDBURI      string
	MongoDBDatabase string

	// Webhook mode is enabled when PublicURL is set; otherwise the bot
	// falls back to long polling.
	PublicURL     string
	WebhookPath   string
	WebhookSecret string
	ListenAddr    string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Debug:           debug,
		Version:         getEnv("VERSION", "dev"),
		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		SourceChannels:  splitList(getEnv("SOURCE_CHANNEL_IDS", "")),
		Destinations:    splitList(getEnv("DEST_CHANNELS", "")),
		RedirectBase:    getEnv("REDIRECT_BASE", ""),
		TrackedMarker:   getEnv("TRACKED_MARKER", "terabox"),
		CaptionTemplate: unescapeNewlines(getEnv("CAPTION_TEMPLATE", "{original_text}\n\n{footer}")),
		FooterText:      getEnv("FOOTER_TEXT", "Shared via MyBrand"),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", ""),
		PublicURL:       getEnv("PUBLIC_URL", ""),
		WebhookPath:     getEnv("WEBHOOK_PATH", ""),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
	}

	if cfg.WebhookPath == "" {
		cfg.WebhookPath = defaultWebhookPath(cfg.BotToken)
	}

	// Basic validation for essential variables
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if len(cfg.Destinations) == 0 {
		return nil, fmt.Errorf("DEST_CHANNELS is required (comma-separated list of destinations)")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.MongoDBDatabase == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE is required")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}
	if cfg.RedirectBase == "" {
		log.Println("Warning: REDIRECT_BASE is not set. Tracked links pass through unchanged.")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// unescapeNewlines converts literal \n sequences into newlines. Env files
// cannot carry real newlines, so templates arrive escaped.
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// defaultWebhookPath derives a non-guessable webhook path from the token
// tail, mirroring the path used when WEBHOOK_PATH is not configured.
func defaultWebhookPath(token string) string {
	tail := token
	if len(tail) > 20 {
		tail = tail[len(tail)-20:]
	}
	if tail == "" {
		tail = "secret"
	}
	return "/webhook/" + tail
}
