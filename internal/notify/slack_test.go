package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"folderwatch/internal/watch"
)

type webhookRecorder struct {
	mu     sync.Mutex
	texts  []string
	status int
}

func (rec *webhookRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	rec.texts = append(rec.texts, body.Text)

	if rec.status != 0 {
		http.Error(w, "invalid_token", rec.status)
		return
	}
	w.Write([]byte("ok"))
}

func newWebhook(t *testing.T) (*webhookRecorder, *SlackNotifier) {
	t.Helper()
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return rec, NewSlackNotifier(srv.URL, "Wage Statements")
}

func TestSlackNotifier_NotifyBatch(t *testing.T) {
	rec, n := newWebhook(t)

	files := []watch.CandidateFile{
		{ID: "f1", Name: "a.pdf", OwnerName: "Acme", Link: "https://x/acme/a.pdf"},
		{ID: "f2", Name: "b.pdf", OwnerName: "Acme", Link: "https://x/acme/b.pdf"},
	}
	if err := n.NotifyBatch(context.Background(), files); err != nil {
		t.Fatalf("NotifyBatch() error = %v", err)
	}

	if len(rec.texts) != 1 {
		t.Fatalf("webhook got %d posts, want 1", len(rec.texts))
	}
	if want := "File Uploaded to <https://x/acme|Acme Wage Statements>"; rec.texts[0] != want {
		t.Errorf("text = %q, want %q", rec.texts[0], want)
	}
}

func TestSlackNotifier_EmptyBatch(t *testing.T) {
	rec, n := newWebhook(t)

	if err := n.NotifyBatch(context.Background(), nil); err != nil {
		t.Fatalf("NotifyBatch() error = %v", err)
	}
	if len(rec.texts) != 0 {
		t.Errorf("webhook got %d posts, want 0", len(rec.texts))
	}
}

func TestSlackNotifier_ErrorAndTest(t *testing.T) {
	rec, n := newWebhook(t)
	ctx := context.Background()

	if err := n.NotifyError(ctx, "root folder not found"); err != nil {
		t.Fatalf("NotifyError() error = %v", err)
	}
	if err := n.SendTest(ctx); err != nil {
		t.Fatalf("SendTest() error = %v", err)
	}

	if len(rec.texts) != 2 {
		t.Fatalf("webhook got %d posts, want 2", len(rec.texts))
	}
	if !strings.HasPrefix(rec.texts[0], "❌ Error monitoring") {
		t.Errorf("error text = %q", rec.texts[0])
	}
	if rec.texts[1] != testMessage {
		t.Errorf("test text = %q, want %q", rec.texts[1], testMessage)
	}
}

func TestSlackNotifier_Non200(t *testing.T) {
	rec, n := newWebhook(t)
	rec.status = http.StatusForbidden

	err := n.NotifyBatch(context.Background(), []watch.CandidateFile{{ID: "f1", OwnerName: "Acme"}})
	if err == nil {
		t.Fatal("NotifyBatch() error = nil, want failure")
	}
}
