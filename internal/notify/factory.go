package notify

import (
	"fmt"

	"folderwatch/internal/config"
	"folderwatch/internal/watch"
)

// NewNotifierFromConfig creates a Notifier based on the notifier config type.
// targetSuffix is the drive's target folder suffix, used to label folders.
func NewNotifierFromConfig(cfg config.NotifierConfig, targetSuffix string, logger watch.Logger) (watch.Notifier, error) {
	switch cfg.Type {
	case "slack", "":
		url := config.Env(cfg.WebhookURLEnv, "SLACK_WEBHOOK_URL")
		if url == "" {
			return nil, fmt.Errorf("slack notifier requires a webhook url in $%s", envName(cfg.WebhookURLEnv, "SLACK_WEBHOOK_URL"))
		}
		return NewSlackNotifier(url, targetSuffix), nil
	case "log":
		return NewLogNotifier(logger, targetSuffix), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", cfg.Type)
	}
}

func envName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
