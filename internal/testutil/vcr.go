// Package testutil holds helpers for replaying recorded upstream exchanges
// in tests. Cassettes live under testdata/fixtures; set VCR_MODE=record to
// re-record against live services.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewRecorder creates a recorder replaying (or recording) the named
// cassette. It stops itself when the test finishes.
func NewRecorder(t *testing.T, cassetteName string) *recorder.Recorder {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", cassetteName), mode, nil)
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	r.SetMatcher(matchRequest)

	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("failed to stop recorder: %v", err)
		}
	})
	return r
}

// matchRequest compares method, URL, and body. The chat wire contracts are
// body-sensitive (model, max_tokens, and the system prompt travel in the
// request), so two calls to the same URL with different payloads must not
// replay the same interaction.
func matchRequest(r *http.Request, i cassette.Request) bool {
	if r.Method != i.Method || r.URL.String() != i.URL {
		return false
	}
	if r.Body == nil {
		return i.Body == ""
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return string(body) == i.Body
}

// HTTPClient returns a client whose transport serves requests from r.
func HTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{Transport: r}
}
