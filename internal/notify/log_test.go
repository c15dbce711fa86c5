package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"folderwatch/internal/watch"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) record(level, msg string, args ...any) {
	l.lines = append(l.lines, fmt.Sprint(append([]any{level, msg}, args...)...))
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

func TestLogNotifier(t *testing.T) {
	logger := &recordingLogger{}
	n := NewLogNotifier(logger, "Wage Statements")
	ctx := context.Background()

	files := []watch.CandidateFile{{ID: "f1", Name: "a.pdf", OwnerName: "Acme", Link: "https://x/acme/a.pdf"}}
	if err := n.NotifyBatch(ctx, files); err != nil {
		t.Fatalf("NotifyBatch() error = %v", err)
	}
	if err := n.NotifyError(ctx, "boom"); err != nil {
		t.Fatalf("NotifyError() error = %v", err)
	}
	if err := n.SendTest(ctx); err != nil {
		t.Fatalf("SendTest() error = %v", err)
	}

	all := strings.Join(logger.lines, "\n")
	for _, want := range []string{"a.pdf", "Acme Wage Statements", "boom", testMessage} {
		if !strings.Contains(all, want) {
			t.Errorf("log output missing %q:\n%s", want, all)
		}
	}
}
