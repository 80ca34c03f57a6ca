// Package alert delivers operator escalations. Slack is the primary
// channel; deployments without a bot token fall back to structured logs
// so escalations are never silently lost.
package alert

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by Slack.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Slack posts escalations to a fixed operator channel.
type Slack struct {
	api     SlackAPI
	channel string
}

// NewSlack creates a Slack notifier posting to the given channel.
func NewSlack(api SlackAPI, channel string) *Slack {
	return &Slack{api: api, channel: channel}
}

// Alert posts the text to the operator channel.
func (s *Slack) Alert(ctx context.Context, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("alert.Slack.Alert: %w", err)
	}

	return nil
}

// Log writes escalations to the structured log at error level.
type Log struct{}

// NewLog creates the log fallback notifier.
func NewLog() *Log {
	return &Log{}
}

// Alert logs the escalation text.
func (l *Log) Alert(_ context.Context, text string) error {
	log.Error().Str("alert", text).Msg("operator escalation")
	return nil
}
