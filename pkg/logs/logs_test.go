package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alijeyrad/simorq_noshow/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With("component", "test")

	logger.Info("hello")
	if a.Len() == 0 {
		t.Error("info handler did not receive record")
	}
	if b.Len() != 0 {
		t.Error("error-level handler should skip info records")
	}

	logger.Error("boom")
	if b.Len() == 0 {
		t.Error("error-level handler did not receive error record")
	}
	if !bytes.Contains(b.Bytes(), []byte(`"component":"test"`)) {
		t.Errorf("attrs not propagated: %s", b.String())
	}
}

func TestLokiWriter_Push(t *testing.T) {
	var got lokiPush
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != lokiPushPath {
			t.Errorf("path = %q, want %q", r.URL.Path, lokiPushPath)
		}
		user, pass, _ = r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("invalid push body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Logging.Output.Loki = config.LokiConfig{Enabled: true, Endpoint: srv.URL + "/", Username: "u", Password: "p"}
	cfg.Observability.ServiceName = "simorq_noshow"
	cfg.Server.Environment = "test"

	h := newLokiHandler(cfg, slog.LevelInfo)
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "scored", 0)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if user != "u" || pass != "p" {
		t.Errorf("basic auth = %q/%q, want u/p", user, pass)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	s := got.Streams[0]
	if s.Stream["service"] != "simorq_noshow" || s.Stream["env"] != "test" {
		t.Errorf("labels = %v", s.Stream)
	}
	if len(s.Values) != 1 || !bytes.Contains([]byte(s.Values[0][1]), []byte(`"msg":"scored"`)) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestLokiWriter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	lw := &lokiWriter{endpoint: srv.URL, client: srv.Client(), now: time.Now}
	if _, err := lw.Write([]byte("{}\n")); err == nil {
		t.Error("Expected error for non-2xx status")
	}
}
