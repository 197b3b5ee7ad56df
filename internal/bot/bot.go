// Package bot wraps the telego update channel and drives the relay.
package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"go.uber.org/ratelimit"

	"terarelay-bot/internal/relay"
)

const processTimeout = 30 * time.Second

// Bot consumes updates and hands channel posts to the relayer, one at a
// time. Processing is deliberately sequential: the dedupe check-then-commit
// is not atomic, so concurrent relays of the same post could both pass the
// duplicate check.
type Bot struct {
	updatesChan <-chan telego.Update
	relayer     *relay.Relayer
	debug       bool
	ratelimiter ratelimit.Limiter
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	UpdatesChan <-chan telego.Update
	Relayer     *relay.Relayer
	Debug       bool
}

// New creates a new Bot instance from its dependencies.
// Returns the new Bot instance or an error if dependencies are missing.
func New(deps BotDeps) (*Bot, error) {
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	if deps.Relayer == nil {
		return nil, fmt.Errorf("relayer cannot be nil")
	}

	return &Bot{
		updatesChan: deps.UpdatesChan,
		relayer:     deps.Relayer,
		debug:       deps.Debug,
		ratelimiter: ratelimit.New(20),
	}, nil
}

// processUpdate handles a single update, with panic recovery and a
// per-update timeout.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	post := update.ChannelPost
	if post == nil {
		if b.debug {
			log.Printf("Ignoring non-channel-post update %d", update.UpdateID)
		}
		return
	}

	processingCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	outcome, err := b.relayer.ProcessChannelPost(processingCtx, *post)
	if err != nil {
		log.Printf("Error relaying post %d from chat %d: %v", post.MessageID, post.Chat.ID, err)
		sentry.CaptureException(fmt.Errorf("relay of %d:%d failed: %w", post.Chat.ID, post.MessageID, err))
		return
	}
	if b.debug {
		log.Printf("Post %d from chat %d: %s", post.MessageID, post.Chat.ID, outcome)
	}
}

// Start begins the bot's update processing loop. It returns when the
// context is cancelled or the updates channel closes.
func (b *Bot) Start(ctx context.Context) {
	log.Println("Listening for updates...")

	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}
