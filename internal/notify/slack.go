package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/logger"
)

// Notifier announces events of the field workflow
type Notifier interface {
	NotifyAttachment(ctx context.Context, issueKey, fileName string) error
	NotifyTransition(ctx context.Context, issueKey, target string) error
}

// SlackPoster is the part of *slack.Client used for notifications
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts workflow events to one channel
type SlackNotifier struct {
	api     SlackPoster
	channel string
}

// NewSlackNotifier returns a notifier posting with the given bot token. An empty token yields a no-op notifier.
func NewSlackNotifier(token, channel string) Notifier {
	if token == "" {
		return Nop{}
	}
	return &SlackNotifier{api: slack.New(token), channel: channel}
}

// NewSlackNotifierWithAPI is used when the Slack client is built elsewhere
func NewSlackNotifierWithAPI(api SlackPoster, channel string) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channel}
}

func (n *SlackNotifier) NotifyAttachment(ctx context.Context, issueKey, fileName string) error {
	return n.sendMarkdownMessage(ctx, fmt.Sprintf(":page_facing_up: RAT *%s* anexado em *%s*", fileName, issueKey))
}

func (n *SlackNotifier) NotifyTransition(ctx context.Context, issueKey, target string) error {
	return n.sendMarkdownMessage(ctx, fmt.Sprintf(":arrows_counterclockwise: *%s* movido para _%s_", issueKey, target))
}

// sendMarkdownMessage sends a message to Slack with Markdown formatting enabled
func (n *SlackNotifier) sendMarkdownMessage(ctx context.Context, message string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(message, false),
		slack.MsgOptionDisableLinkUnfurl())
	if err != nil {
		logger.GetLogger().Error("failed to post slack message", zap.String("channel", n.channel), zap.Error(err))
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

// Nop discards every notification
type Nop struct{}

func (Nop) NotifyAttachment(context.Context, string, string) error { return nil }

func (Nop) NotifyTransition(context.Context, string, string) error { return nil }
