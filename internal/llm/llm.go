// Package llm generates raw market commentary via an upstream
// text-generation provider. The returned prose is untrusted input for
// the digest pipeline; nothing here parses or structures it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/config"
	"github.com/marketbrief/marketbrief/internal/core/domain"
)

// CommentaryInput carries the context passed to the provider.
type CommentaryInput struct {
	// Headlines are recent market headlines used to ground the commentary.
	Headlines []string
	// Model overrides the configured model when non-empty.
	Model string
}

// Commentary is the raw provider output: free-form prose, possibly with
// a SENTIMENT directive and a Sources block, plus optional structured
// source hints when the provider supplies them.
type Commentary struct {
	Text    string
	Sources []domain.SourceHint
	Model   string
}

type Client interface {
	GenerateCommentary(ctx context.Context, input CommentaryInput) (*Commentary, error)
}

// New returns the OpenAI-backed client, or a mock when no API key is
// configured so the rest of the service stays runnable locally.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == "mock" {
		return &mockClient{}
	}

	return NewOpenAI(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) GenerateCommentary(_ context.Context, input CommentaryInput) (*Commentary, error) {
	var sb strings.Builder

	sb.WriteString("SENTIMENT: NEUTRAL\n")
	sb.WriteString("Markets were mixed today with no clear direction [1].")

	if len(input.Headlines) > 0 {
		sb.WriteString(fmt.Sprintf(" Commentary grounded on %d headlines.", len(input.Headlines)))
	}

	sb.WriteString("\n\nSources:\n1. https://example.com/markets")

	return &Commentary{Text: sb.String(), Model: "mock"}, nil
}
