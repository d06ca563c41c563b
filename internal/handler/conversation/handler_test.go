package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
)

var fixedNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

type listResponse struct {
	Items []struct {
		ID            string `json:"id"`
		State         string `json:"state"`
		LastText      string `json:"lastText"`
		AtRisk        bool   `json:"atRisk"`
		RelativeTime  string `json:"relativeTime"`
		PriorityLabel string `json:"priorityLabel"`
		Avatar        struct {
			Initials string `json:"initials"`
		} `json:"avatar"`
	} `json:"items"`
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	convs, msgs := inbox.Seed(fixedNow)
	store, err := inbox.NewMemoryStore(convs, msgs)
	if err != nil {
		t.Fatalf("NewMemoryStore err: %v", err)
	}
	clock := inboxService.ClockFunc(func() time.Time { return fixedNow })
	svc := inboxService.NewService(store, inboxService.WithClock(clock))

	h := New(svc, Options{Locale: "pt-BR", Timezone: time.UTC, Clock: clock})
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	return resp
}

func listIDs(resp listResponse) string {
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ids = append(ids, item.ID)
	}
	return strings.Join(ids, ",")
}

func TestListConversationsOrdersWaitingTab(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/conversations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decodeList(t, rec)
	if got := listIDs(resp); got != "c1,c2,c3" {
		t.Fatalf("expected order c1,c2,c3, got %s", got)
	}
	first := resp.Items[0]
	if first.RelativeTime != "8min" || first.PriorityLabel != "Alta" || first.Avatar.Initials != "EC" || !first.AtRisk {
		t.Fatalf("unexpected display fields: %+v", first)
	}
}

func TestListConversationsFilters(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		path string
		want string
	}{
		{path: "/api/conversations?filter=risk", want: "c1,c2"},
		{path: "/api/conversations?q=AGENDAMENTO", want: "c2"},
		{path: "/api/conversations?tab=done", want: ""},
		{path: "/api/conversations?tab=done&filter=risk", want: "c1,c2"},
	}
	for _, tt := range tests {
		rec := doRequest(t, router, http.MethodGet, tt.path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", tt.path, rec.Code)
		}
		if got := listIDs(decodeList(t, rec)); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestListConversationsRejectsUnknownTab(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{"/api/conversations?tab=archived", "/api/conversations?filter=vip"} {
		if rec := doRequest(t, router, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", path, rec.Code)
		}
	}
}

func TestAcceptFinishLifecycle(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/conversations/c1/accept", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected accept status 200, got %d", rec.Code)
	}
	var conv struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode accept: %v", err)
	}
	if conv.State != string(inbox.StateInProgress) {
		t.Fatalf("expected in_progress, got %s", conv.State)
	}

	if got := listIDs(decodeList(t, doRequest(t, router, http.MethodGet, "/api/conversations?tab=in_progress", ""))); got != "c1" {
		t.Fatalf("expected c1 in progress, got %q", got)
	}

	if rec := doRequest(t, router, http.MethodPost, "/api/conversations/c1/finish", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected finish status 200, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/api/conversations/c1/accept", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected accept after finish to conflict, got %d", rec.Code)
	}
}

func TestCommandsOnUnknownConversation(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{
		"/api/conversations/nope/accept",
		"/api/conversations/nope/finish",
		"/api/conversations/nope/open",
	} {
		if rec := doRequest(t, router, http.MethodPost, path, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", path, rec.Code)
		}
	}
	if rec := doRequest(t, router, http.MethodGet, "/api/conversations/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestAppendMessage(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/conversations/c1/messages", `{"text":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected blank text to be rejected, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/conversations/c1/messages", `{"role":"agent","text":"Olá Edna!"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	var msg struct {
		ID   string `json:"id"`
		Role string `json:"role"`
		Time string `json:"time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ID == "" || msg.Role != "agent" || msg.Time != "15:00" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	resp := decodeList(t, doRequest(t, router, http.MethodGet, "/api/conversations", ""))
	if resp.Items[0].LastText != "Olá Edna!" {
		t.Fatalf("expected lastText to follow the new message, got %q", resp.Items[0].LastText)
	}

	if rec := doRequest(t, router, http.MethodPost, "/api/conversations/c1/messages", `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid body to be rejected, got %d", rec.Code)
	}
}

func TestListMessagesGrouped(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/c2/messages?grouped=1", nil)
	req.Header.Set("Accept-Language", "en-US")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Groups []struct {
			Day   string `json:"day"`
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode groups: %v", err)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].Day != "Today" || len(resp.Groups[0].Items) != 2 {
		t.Fatalf("unexpected groups: %+v", resp.Groups)
	}
	if resp.Groups[0].Items[0].ID != "m3" {
		t.Fatalf("expected oldest message first, got %s", resp.Groups[0].Items[0].ID)
	}

	if rec := doRequest(t, router, http.MethodGet, "/api/conversations/c2/messages?grouped=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad grouped flag to be rejected, got %d", rec.Code)
	}
}

func TestCounts(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/conversations/counts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var counts struct {
		Waiting  int `json:"waiting"`
		RiskHigh int `json:"riskHigh"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode counts: %v", err)
	}
	if counts.Waiting != 3 || counts.RiskHigh != 2 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestReadTimeoutIsRetryable(t *testing.T) {
	router := setupRouter(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on read timeout")
	}
}
