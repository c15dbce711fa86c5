package notify

import (
	"context"

	"folderwatch/internal/watch"
)

// LogNotifier writes notifications to the logger instead of delivering them.
// Useful for dry runs and local setups without a webhook.
type LogNotifier struct {
	logger       watch.Logger
	targetSuffix string
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger watch.Logger, targetSuffix string) *LogNotifier {
	return &LogNotifier{logger: logger, targetSuffix: targetSuffix}
}

func (n *LogNotifier) NotifyBatch(_ context.Context, files []watch.CandidateFile) error {
	for _, f := range files {
		n.logger.Info("new file", "owner", f.OwnerName, "name", f.Name, "id", f.ID, "link", f.Link)
	}
	n.logger.Info("notification", "text", FormatBatch(files, n.targetSuffix))
	return nil
}

func (n *LogNotifier) NotifyError(_ context.Context, message string) error {
	n.logger.Error("notification", "text", FormatError(message, n.targetSuffix))
	return nil
}

func (n *LogNotifier) SendTest(context.Context) error {
	n.logger.Info("notification", "text", testMessage)
	return nil
}

var _ watch.Notifier = (*LogNotifier)(nil)
