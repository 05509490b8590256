// Package notify delivers freshly built digests to a Telegram chat.
// Delivery is optional and best-effort: a send failure never fails the
// refresh cycle that produced the digest.
package notify

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

const (
	// maxMessageSize is the maximum size of a single Telegram message part.
	maxMessageSize = 4000
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    sender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegram(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return newWithSender(bot, chatID, logger), nil
}

func newWithSender(bot sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}
}

// NotifyDigest formats and sends the digest, splitting when it exceeds
// the Telegram message size limit.
func (n *TelegramNotifier) NotifyDigest(digest *domain.Digest) error {
	text := FormatDigest(digest)

	for _, part := range splitMessage(text, maxMessageSize) {
		msg := tgbotapi.NewMessage(n.chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if _, err := n.bot.Send(msg); err != nil {
			return fmt.Errorf("send digest message: %w", err)
		}
	}

	n.logger.Info().Int64("chat_id", n.chatID).Msg("digest delivered to telegram")

	return nil
}

// FormatDigest renders a digest as Telegram HTML: a sentiment header,
// the prose, and the citation list as numbered links.
func FormatDigest(digest *domain.Digest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s <b>Market Digest</b>\n\n", sentimentEmoji(digest.Sentiment)))
	sb.WriteString(html.EscapeString(digest.Content))

	if len(digest.Citations) > 0 {
		sb.WriteString("\n\n<b>Sources</b>\n")

		for _, c := range digest.Citations {
			if c.URL == "" || c.URL == "#" {
				sb.WriteString(fmt.Sprintf("[%d] %s\n", c.Number, html.EscapeString(c.Title)))

				continue
			}

			sb.WriteString(fmt.Sprintf(`[%d] <a href="%s">%s</a>`+"\n",
				c.Number, html.EscapeString(c.URL), html.EscapeString(c.Title)))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func sentimentEmoji(verdict domain.Verdict) string {
	switch verdict {
	case domain.VerdictUp:
		return "📈"
	case domain.VerdictDown:
		return "📉"
	default:
		return "➖"
	}
}

// splitMessage breaks text on line boundaries so no part exceeds the
// size limit. A single oversized line is split mid-line as a last resort.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
	)

	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			flushPart(&parts, &current)
			parts = append(parts, line[:limit])
			line = line[limit:]
		}

		if current.Len()+len(line)+1 > limit {
			flushPart(&parts, &current)
		}

		if current.Len() > 0 {
			current.WriteString("\n")
		}

		current.WriteString(line)
	}

	flushPart(&parts, &current)

	return parts
}

func flushPart(parts *[]string, current *strings.Builder) {
	if current.Len() == 0 {
		return
	}

	*parts = append(*parts, current.String())
	current.Reset()
}
