package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mfriebe/claimpilot/internal/router"
	"github.com/mfriebe/claimpilot/internal/stream"
)

type stubOrchestrator struct {
	lastPrompt string
	result     *router.Result
}

func (s *stubOrchestrator) Handle(ctx context.Context, prompt, threadID string) (*router.Result, error) {
	s.lastPrompt = prompt
	if s.result != nil {
		return s.result, nil
	}
	return &router.Result{ThreadID: threadID, Response: "ok", Hops: 1}, nil
}

func TestChat_RoundTrip(t *testing.T) {
	orch := &stubOrchestrator{result: &router.Result{
		ThreadID: "t1",
		Response: "Zwei neue Nachrichten.",
		Hops:     2,
		Resource: &stream.Resource{URI: "ui://x", MimeType: "text/html"},
	}}
	srv := NewServer(":0", orch)

	body := strings.NewReader(`{"prompt":"Was steht in der neuesten E-Mail?","thread_id":"t1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "Zwei neue Nachrichten." || resp.Hops != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.UIResource == nil || resp.UIResource.URI != "ui://x" {
		t.Errorf("ui resource lost: %+v", resp.UIResource)
	}
	if orch.lastPrompt != "Was steht in der neuesten E-Mail?" {
		t.Errorf("prompt not forwarded: %q", orch.lastPrompt)
	}
}

func TestChat_RejectsBadRequests(t *testing.T) {
	srv := NewServer(":0", &stubOrchestrator{})

	cases := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing prompt", http.MethodPost, `{"thread_id":"x"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/v1/chat", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	srv := NewServer(":0", &stubOrchestrator{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health check failed: %d", rec.Code)
	}
}
