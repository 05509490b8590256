package notify

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}

	return tgbotapi.Message{}, nil
}

func testDigest() *domain.Digest {
	return &domain.Digest{
		Content:   "BTC is up today [1].",
		Sentiment: domain.VerdictUp,
		Citations: []domain.Citation{
			{Number: 1, Title: "coindesk.com", URL: "https://coindesk.com/btc", IsCited: true},
			{Number: 2, Title: "unknown source", URL: "#", IsCited: true},
		},
	}
}

func TestFormatDigest(t *testing.T) {
	got := FormatDigest(testDigest())

	assert.Contains(t, got, "📈")
	assert.Contains(t, got, "BTC is up today [1].")
	assert.Contains(t, got, `<a href="https://coindesk.com/btc">coindesk.com</a>`)

	// Sentinel URLs render as plain text, not dead links.
	assert.Contains(t, got, "[2] unknown source")
	assert.NotContains(t, got, `href="#"`)
}

func TestFormatDigestEscapesHTML(t *testing.T) {
	digest := &domain.Digest{Content: "Spread <tightened> & narrowed.", Sentiment: domain.VerdictNeutral}

	got := FormatDigest(digest)

	assert.Contains(t, got, "&lt;tightened&gt;")
	assert.Contains(t, got, "&amp;")
}

func TestNotifyDigestSendsSingleMessage(t *testing.T) {
	rec := &recordingSender{}
	notifier := newWithSender(rec, 42, nil)

	require.NoError(t, notifier.NotifyDigest(testDigest()))

	require.Len(t, rec.sent, 1)
	assert.Equal(t, int64(42), rec.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, rec.sent[0].ParseMode)
}

func TestNotifyDigestSplitsLongContent(t *testing.T) {
	rec := &recordingSender{}
	notifier := newWithSender(rec, 42, nil)

	digest := &domain.Digest{
		Content:   strings.Repeat("Markets moved sideways on thin volume.\n", 300),
		Sentiment: domain.VerdictNeutral,
	}

	require.NoError(t, notifier.NotifyDigest(digest))

	require.Greater(t, len(rec.sent), 1)

	for _, msg := range rec.sent {
		assert.LessOrEqual(t, len(msg.Text), maxMessageSize)
	}
}

func TestSplitMessageKeepsShortTextWhole(t *testing.T) {
	parts := splitMessage("short", 100)

	assert.Equal(t, []string{"short"}, parts)
}

func TestSplitMessageHandlesOversizedLine(t *testing.T) {
	parts := splitMessage(strings.Repeat("x", 250), 100)

	require.Len(t, parts, 3)
	assert.Equal(t, 100, len(parts[0]))
	assert.Equal(t, 50, len(parts[2]))
}
