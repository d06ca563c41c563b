package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lumi-hq/lumi-inbox/backend/internal/analysis/triage"
	"github.com/lumi-hq/lumi-inbox/backend/internal/display"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/pkg/utils"
)

// Options 配置展示相关的默认值。
type Options struct {
	Locale   string
	Timezone *time.Location
	Clock    inboxService.Clock
	Logger   *zap.Logger
}

// Handler 收件箱会话的HTTP处理器
type Handler struct {
	svc      *inboxService.Service
	locale   string
	timezone *time.Location
	clock    inboxService.Clock
	logger   *zap.Logger
}

// New 创建会话处理器
func New(svc *inboxService.Service, opts Options) *Handler {
	h := &Handler{
		svc:      svc,
		locale:   opts.Locale,
		timezone: opts.Timezone,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	if h.timezone == nil {
		h.timezone = time.UTC
	}
	if h.clock == nil {
		h.clock = inboxService.SystemClock{}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleList)
	r.Get("/conversations/counts", h.handleCounts)
	r.Get("/conversations/{id}", h.handleGet)
	r.Get("/conversations/{id}/messages", h.handleListMessages)
	r.Post("/conversations/{id}/messages", h.handleAppendMessage)
	r.Post("/conversations/{id}/accept", h.handleAccept)
	r.Post("/conversations/{id}/finish", h.handleFinish)
	r.Post("/conversations/{id}/open", h.handleOpen)
}

func (h *Handler) presenter(r *http.Request) presenter {
	return presenter{
		locale: display.LookupLocale(r.Header.Get("Accept-Language"), h.locale),
		tz:     h.timezone,
		now:    h.clock.Now(),
	}
}

// handleList 返回当前标签页下可见的会话
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view, err := triage.ParseView(query.Get("tab"), query.Get("q"), query.Get("filter"))
	if err != nil {
		h.respondServiceError(w, err, true)
		return
	}

	visible, err := h.svc.Visible(r.Context(), view)
	if err != nil {
		h.respondServiceError(w, err, true)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"view":  view,
		"items": h.presenter(r).conversations(visible),
	})
}

// handleCounts 返回各标签页的数量
func (h *Handler) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context())
	if err != nil {
		h.respondServiceError(w, err, true)
		return
	}
	utils.RespondJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	conv, err := h.svc.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, true)
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.presenter(r).conversation(conv))
}

// handleListMessages 返回会话消息，grouped=1 时按天分组
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	grouped := false
	if raw := r.URL.Query().Get("grouped"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "grouped must be a boolean")
			return
		}
		grouped = parsed
	}

	msgs, err := h.svc.ListMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, true)
		return
	}

	p := h.presenter(r)
	if grouped {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"groups": p.dayGroups(msgs)})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"items": p.messages(msgs)})
}

// handleAppendMessage 追加一条消息
func (h *Handler) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Role == "" {
		payload.Role = string(inbox.RoleAgent)
	}

	msg, err := h.svc.AppendMessage(r.Context(), chi.URLParam(r, "id"), inbox.Role(payload.Role), payload.Text)
	if err != nil {
		h.respondServiceError(w, err, false)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, h.presenter(r).message(msg))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.svc.Accept)
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.svc.Finish)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.svc.Open)
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, run func(context.Context, string) (inbox.Conversation, error)) {
	id := chi.URLParam(r, "id")
	conv, err := run(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, false)
		return
	}

	h.logger.Debug("conversation updated",
		zap.String("conversation_id", id),
		zap.String("state", string(conv.State)))
	utils.RespondJSON(w, http.StatusOK, h.presenter(r).conversation(conv))
}
