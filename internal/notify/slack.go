package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"folderwatch/internal/watch"
)

// SlackNotifier posts notifications to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL   string
	targetSuffix string
	client       *http.Client
}

// NewSlackNotifier creates a notifier for the given webhook URL.
// targetSuffix labels each owner's folder in messages.
func NewSlackNotifier(webhookURL, targetSuffix string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL:   webhookURL,
		targetSuffix: targetSuffix,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

// NotifyBatch posts one message covering every file, grouped by owner.
func (n *SlackNotifier) NotifyBatch(ctx context.Context, files []watch.CandidateFile) error {
	if len(files) == 0 {
		return nil
	}
	return n.post(ctx, FormatBatch(files, n.targetSuffix))
}

// NotifyError posts a failure message.
func (n *SlackNotifier) NotifyError(ctx context.Context, message string) error {
	return n.post(ctx, FormatError(message, n.targetSuffix))
}

// SendTest posts a fixed message to verify the webhook.
func (n *SlackNotifier) SendTest(ctx context.Context) error {
	return n.post(ctx, testMessage)
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.client, msg); err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	return nil
}

// Compile-time check that SlackNotifier implements watch.Notifier interface
var _ watch.Notifier = (*SlackNotifier)(nil)
