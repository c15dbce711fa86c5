package app

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"folderwatch/internal/watch"
)

// isoMillis is the millisecond-precision layout of response timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type checkResponse struct {
	Success          bool          `json:"success"`
	Timestamp        string        `json:"timestamp"`
	RunID            string        `json:"runId"`
	FilesChecked     int           `json:"filesChecked"`
	NewFilesFound    int           `json:"newFilesFound"`
	NewFiles         []newFileJSON `json:"newFiles"`
	Message          string        `json:"message"`
	StateForStorage  string        `json:"stateForStorage"`
	EvictedFromState int           `json:"evictedFromState"`
	ExcludedFolders  int           `json:"excludedFolders"`
}

type newFileJSON struct {
	ID               string `json:"id"`
	ClientName       string `json:"clientName"`
	Name             string `json:"name"`
	ModifiedDateTime string `json:"modifiedDateTime,omitempty"`
	WebURL           string `json:"webUrl"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

// conflictResponse reports a run whose notification went out but whose
// snapshot write was refused.
type conflictResponse struct {
	Success       bool          `json:"success"`
	Error         string        `json:"error"`
	Timestamp     string        `json:"timestamp"`
	RunID         string        `json:"runId"`
	NewFilesFound int           `json:"newFilesFound"`
	NewFiles      []newFileJSON `json:"newFiles"`
}

// Handler returns the HTTP surface of the App:
//
//	GET|POST /api/check-folders      run one check
//	GET|POST /api/test-notification  send the test message
//
// When cronSecret is non-empty both routes require
// "Authorization: Bearer <cronSecret>".
func (a *App) Handler(cronSecret string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/check-folders", a.requireSecret(cronSecret, http.HandlerFunc(a.handleCheck)))
	mux.Handle("/api/test-notification", a.requireSecret(cronSecret, http.HandlerFunc(a.handleTestNotification)))
	return mux
}

func (a *App) requireSecret(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+secret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	result, err := a.Check(r.Context())
	now := a.clock.Now().UTC().Format(isoMillis)
	switch {
	case errors.Is(err, watch.ErrRevisionConflict) && result != nil:
		writeJSON(w, http.StatusConflict, conflictResponse{
			Success:       false,
			Error:         err.Error(),
			Timestamp:     now,
			RunID:         result.RunID,
			NewFilesFound: len(result.NewFiles),
			NewFiles:      toNewFilesJSON(result.NewFiles),
		})
		return
	case errors.Is(err, watch.ErrRevisionConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Success: false, Error: err.Error(), Timestamp: now})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Error: err.Error(), Timestamp: now})
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Success:          true,
		Timestamp:        now,
		RunID:            result.RunID,
		FilesChecked:     result.FilesChecked,
		NewFilesFound:    len(result.NewFiles),
		NewFiles:         toNewFilesJSON(result.NewFiles),
		Message:          result.Message,
		StateForStorage:  result.State,
		EvictedFromState: result.Evicted,
		ExcludedFolders:  result.ExcludedFolders,
	})
}

// toNewFilesJSON never returns nil so the field encodes as [].
func toNewFilesJSON(files []watch.CandidateFile) []newFileJSON {
	out := make([]newFileJSON, 0, len(files))
	for _, f := range files {
		nf := newFileJSON{ID: f.ID, ClientName: f.OwnerName, Name: f.Name, WebURL: f.Link}
		if !f.ModifiedAt.IsZero() {
			nf.ModifiedDateTime = f.ModifiedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, nf)
	}
	return out
}

func (a *App) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if err := a.TestNotification(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Test notification sent",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
