// Package relay implements the channel-post relay pipeline: source
// filtering, dedupe, link rewriting, caption templating and fan-out
// delivery to the configured destinations.
package relay

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"terarelay-bot/internal/links"
	"terarelay-bot/internal/storage"
	"terarelay-bot/pkg/telegoapi"
)

const trackedButtonLabel = "Open (Terabox)"

// Outcome is the terminal state of one relay attempt.
type Outcome int

const (
	// OutcomeSkippedFiltered means the post's source channel is not on
	// the configured allow-list.
	OutcomeSkippedFiltered Outcome = iota
	// OutcomeSkippedDuplicate means the post was already relayed.
	OutcomeSkippedDuplicate
	// OutcomeRelayed means delivery was attempted to every destination
	// and the forward record was committed.
	OutcomeRelayed
	// OutcomeAborted means processing stopped on a store failure before
	// any delivery was attempted.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkippedFiltered:
		return "skipped-filtered"
	case OutcomeSkippedDuplicate:
		return "skipped-duplicate"
	case OutcomeRelayed:
		return "relayed"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Relayer drives the relay of one channel post at a time. It is the only
// component with side effects: store writes and outbound delivery calls.
type Relayer struct {
	bot          telegoapi.BotAPI
	store        storage.ForwardStore
	rewriter     *links.Rewriter
	redirects    *links.RedirectBuilder
	captions     *CaptionBuilder
	sources      map[string]struct{}
	destinations []telego.ChatID
	debug        bool
}

// RelayerDeps holds the dependencies required by the Relayer.
type RelayerDeps struct {
	Bot       telegoapi.BotAPI
	Store     storage.ForwardStore
	Rewriter  *links.Rewriter
	Redirects *links.RedirectBuilder
	Captions  *CaptionBuilder
	// Sources is the optional source allow-list (numeric IDs or
	// @usernames); empty accepts any source channel.
	Sources []string
	// Destinations are the channels posts are relayed to, as numeric
	// IDs or @usernames.
	Destinations []string
	Debug        bool
}

// New creates a Relayer from its dependencies.
// Returns an error if dependencies are missing or a destination is neither
// a numeric chat ID nor an @username.
func New(deps RelayerDeps) (*Relayer, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("bot (BotAPI) instance cannot be nil")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("forward store cannot be nil")
	}
	if deps.Rewriter == nil {
		return nil, fmt.Errorf("rewriter cannot be nil")
	}
	if deps.Redirects == nil {
		return nil, fmt.Errorf("redirect builder cannot be nil")
	}
	if deps.Captions == nil {
		return nil, fmt.Errorf("caption builder cannot be nil")
	}
	if len(deps.Destinations) == 0 {
		return nil, fmt.Errorf("at least one destination is required")
	}

	destinations := make([]telego.ChatID, 0, len(deps.Destinations))
	for _, dest := range deps.Destinations {
		chatID, err := parseChatID(dest)
		if err != nil {
			return nil, fmt.Errorf("invalid destination %q: %w", dest, err)
		}
		destinations = append(destinations, chatID)
	}

	sources := make(map[string]struct{}, len(deps.Sources))
	for _, src := range deps.Sources {
		sources[src] = struct{}{}
	}

	return &Relayer{
		bot:          deps.Bot,
		store:        deps.Store,
		rewriter:     deps.Rewriter,
		redirects:    deps.Redirects,
		captions:     deps.Captions,
		sources:      sources,
		destinations: destinations,
		debug:        deps.Debug,
	}, nil
}

// ProcessChannelPost relays one channel post. Delivery failures for
// individual destinations are logged and do not abort the relay; the
// forward record is committed after all destinations were attempted,
// regardless of how many succeeded. Only a store failure aborts the post.
func (r *Relayer) ProcessChannelPost(ctx context.Context, msg telego.Message) (Outcome, error) {
	srcChatID := strconv.FormatInt(msg.Chat.ID, 10)
	logPrefix := fmt.Sprintf("[Relay Src:%s Msg:%d]", srcChatID, msg.MessageID)

	if !r.sourceAllowed(msg.Chat) {
		if r.debug {
			log.Printf("%s Ignored: source not on allow-list", logPrefix)
		}
		return OutcomeSkippedFiltered, nil
	}

	forwarded, err := r.store.IsForwarded(ctx, srcChatID, msg.MessageID)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("forward lookup failed for %s:%d: %w", srcChatID, msg.MessageID, err)
	}
	if forwarded {
		log.Printf("%s Already forwarded", logPrefix)
		return OutcomeSkippedDuplicate, nil
	}

	log.Printf("%s Processing", logPrefix)

	originalText, entities := resolveTextAndEntities(msg)

	rewritten := r.rewriter.RewriteText(originalText, entities)
	tracked := dedupeKeepOrder(r.rewriter.ExtractTracked(originalText, entities))
	markup := r.rewriter.ConvertMarkup(msg.ReplyMarkup)

	if len(tracked) > 0 {
		markup = r.appendTrackedButtons(markup, tracked)
	}

	caption := r.captions.Build(rewritten, srcChatID, msg.MessageID)

	for _, dest := range r.destinations {
		if err := r.deliver(ctx, dest, msg, caption, markup); err != nil {
			log.Printf("%s Failed posting to %v: %v", logPrefix, dest, err)
			sentry.CaptureException(fmt.Errorf("%s delivery to %v failed: %w", logPrefix, dest, err))
			continue
		}
		log.Printf("%s Posted to %v", logPrefix, dest)
	}

	if err := r.store.MarkForwarded(ctx, srcChatID, msg.MessageID); err != nil {
		return OutcomeRelayed, fmt.Errorf("forward commit failed for %s:%d: %w", srcChatID, msg.MessageID, err)
	}

	return OutcomeRelayed, nil
}

// sourceAllowed matches the post's chat against the allow-list by numeric
// ID or @username. An empty allow-list accepts any source.
func (r *Relayer) sourceAllowed(chat telego.Chat) bool {
	if len(r.sources) == 0 {
		return true
	}
	if _, ok := r.sources[strconv.FormatInt(chat.ID, 10)]; ok {
		return true
	}
	if chat.Username != "" {
		if _, ok := r.sources["@"+chat.Username]; ok {
			return true
		}
	}
	return false
}

// appendTrackedButtons adds one row with an "Open (Terabox)" button per
// tracked link after any existing rows, creating a fresh single-row grid
// when the post carried no markup.
func (r *Relayer) appendTrackedButtons(markup *telego.InlineKeyboardMarkup, tracked []string) *telego.InlineKeyboardMarkup {
	row := make([]telego.InlineKeyboardButton, 0, len(tracked))
	for _, link := range tracked {
		row = append(row, tu.InlineKeyboardButton(trackedButtonLabel).WithURL(r.redirects.Build(link)))
	}

	if markup == nil {
		return &telego.InlineKeyboardMarkup{InlineKeyboard: [][]telego.InlineKeyboardButton{row}}
	}
	markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	return markup
}

// deliver sends the post to one destination using a media-kind-specific
// strategy. Media is referenced by file ID, never re-uploaded.
func (r *Relayer) deliver(ctx context.Context, dest telego.ChatID, msg telego.Message, caption string, markup *telego.InlineKeyboardMarkup) error {
	switch {
	case len(msg.Photo) > 0:
		_, err := r.bot.SendPhoto(ctx, &telego.SendPhotoParams{
			ChatID:      dest,
			Photo:       telego.InputFile{FileID: largestPhoto(msg.Photo).FileID},
			Caption:     caption,
			ReplyMarkup: replyMarkup(markup),
		})
		return err
	case msg.Document != nil:
		_, err := r.bot.SendDocument(ctx, &telego.SendDocumentParams{
			ChatID:      dest,
			Document:    telego.InputFile{FileID: msg.Document.FileID},
			Caption:     caption,
			ReplyMarkup: replyMarkup(markup),
		})
		return err
	case msg.Video != nil:
		_, err := r.bot.SendVideo(ctx, &telego.SendVideoParams{
			ChatID:      dest,
			Video:       telego.InputFile{FileID: msg.Video.FileID},
			Caption:     caption,
			ReplyMarkup: replyMarkup(markup),
		})
		return err
	case msg.Audio != nil:
		_, err := r.bot.SendAudio(ctx, &telego.SendAudioParams{
			ChatID:      dest,
			Audio:       telego.InputFile{FileID: msg.Audio.FileID},
			Caption:     caption,
			ReplyMarkup: replyMarkup(markup),
		})
		return err
	case msg.Voice != nil:
		_, err := r.bot.SendVoice(ctx, &telego.SendVoiceParams{
			ChatID:      dest,
			Voice:       telego.InputFile{FileID: msg.Voice.FileID},
			Caption:     caption,
			ReplyMarkup: replyMarkup(markup),
		})
		return err
	case msg.Sticker != nil:
		// Captions do not attach to stickers; send the caption as a
		// separate plain message.
		if _, err := r.bot.SendSticker(ctx, &telego.SendStickerParams{
			ChatID:  dest,
			Sticker: telego.InputFile{FileID: msg.Sticker.FileID},
		}); err != nil {
			return err
		}
		if caption != "" {
			_, err := r.bot.SendMessage(ctx, tu.Message(dest, caption))
			return err
		}
		return nil
	default:
		if caption != "" {
			params := tu.Message(dest, caption)
			params.ReplyMarkup = replyMarkup(markup)
			_, err := r.bot.SendMessage(ctx, params)
			return err
		}
		_, err := r.bot.ForwardMessage(ctx, &telego.ForwardMessageParams{
			ChatID:     dest,
			FromChatID: tu.ID(msg.Chat.ID),
			MessageID:  msg.MessageID,
		})
		return err
	}
}

// replyMarkup avoids storing a typed nil markup pointer into the
// ReplyMarkup interface field, which would serialize as an explicit null.
func replyMarkup(m *telego.InlineKeyboardMarkup) telego.ReplyMarkup {
	if m == nil {
		return nil
	}
	return m
}

// resolveTextAndEntities picks the post's text over its caption when both
// are present, together with the matching entity list.
func resolveTextAndEntities(msg telego.Message) (string, []telego.MessageEntity) {
	if msg.Text != "" {
		return msg.Text, msg.Entities
	}
	return msg.Caption, msg.CaptionEntities
}

// largestPhoto picks the largest size variant of a photo.
func largestPhoto(sizes []telego.PhotoSize) telego.PhotoSize {
	largest := sizes[0]
	for _, size := range sizes {
		if size.FileSize > largest.FileSize {
			largest = size
		}
	}
	return largest
}

// dedupeKeepOrder removes duplicates preserving first-seen order.
func dedupeKeepOrder(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// parseChatID turns a configured channel identifier into a telego ChatID.
func parseChatID(raw string) (telego.ChatID, error) {
	if strings.HasPrefix(raw, "@") {
		return tu.Username(raw), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return telego.ChatID{}, fmt.Errorf("expected numeric chat ID or @username: %w", err)
	}
	return tu.ID(id), nil
}
