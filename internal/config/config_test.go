package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token-abcdefghij")
	t.Setenv("DEST_CHANNELS", " -100111 , @mirror ,")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "terarelay")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"-100111", "@mirror"}, cfg.Destinations)
	assert.Empty(t, cfg.SourceChannels)
	assert.Equal(t, "terabox", cfg.TrackedMarker)
	assert.Equal(t, "{original_text}\n\n{footer}", cfg.CaptionTemplate)
	assert.Equal(t, "Shared via MyBrand", cfg.FooterText)
	assert.Equal(t, "/webhook/est-token-abcdefghij", cfg.WebhookPath)
}

func TestLoadConfigRequiresDestinations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEST_CHANNELS", " , ")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DEST_CHANNELS")
}

func TestLoadConfigUnescapesTemplateNewlines(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CAPTION_TEMPLATE", `{original_text}\n\n{footer}`)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "{original_text}\n\n{footer}", cfg.CaptionTemplate)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , , b "))
}
