package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumi-hq/lumi-inbox/backend/internal/handler/conversation"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/template"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/internal/service/live"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	convs, msgs := inbox.Seed(time.Now())
	store, err := inbox.NewMemoryStore(convs, msgs)
	if err != nil {
		t.Fatalf("NewMemoryStore err: %v", err)
	}
	hub := live.NewHub(4)
	t.Cleanup(hub.Close)

	return NewRouter(Dependencies{
		Inbox:     inboxService.NewService(store, inboxService.WithPublisher(hub)),
		Templates: template.NewMemoryStore(template.Seed()),
		Live:      hub,
		Display:   conversation.Options{Locale: "pt-BR", Timezone: time.UTC},
	})
}

func TestRouterServesRoutes(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/conversations", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/conversations/counts", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/conversations/c1", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/conversations/c1/messages", want: http.StatusOK},
		{method: http.MethodPost, path: "/api/conversations/c1/open", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/templates", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/conversations/c1/suggestion", want: http.StatusServiceUnavailable},
		{method: http.MethodGet, path: "/api/live", want: http.StatusBadRequest},
		{method: http.MethodGet, path: "/api/unknown", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, rec.Code)
		}
	}
}

func TestRouterAnswersPreflight(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/conversations", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS header")
	}
}
