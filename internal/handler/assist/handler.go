package assist

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lumi-hq/lumi-inbox/backend/internal/analysis/mood"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/pkg/utils"
)

// Suggester 生成坐席回复建议。
type Suggester interface {
	StreamingEnabled() bool
	Suggest(ctx context.Context, conv inbox.Conversation, messages []inbox.Message) (*schema.Message, error)
	StreamSuggestion(ctx context.Context, conv inbox.Conversation, messages []inbox.Message) (*schema.StreamReader[*schema.Message], error)
}

// Handler 通过 SSE 推送回复建议
type Handler struct {
	suggester Suggester
	inboxSvc  *inboxService.Service
	logger    *zap.Logger
}

// New 创建回复建议处理器，suggester 为 nil 时接口返回 503。
func New(suggester Suggester, inboxSvc *inboxService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{suggester: suggester, inboxSvc: inboxSvc, logger: logger}
}

// RegisterRoutes 注册回复建议路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations/{id}/suggestion", h.handleSuggestion)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event          string `json:"event"`
	Content        string `json:"content,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Finished       bool   `json:"finished,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (h *Handler) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai assistant unavailable")
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")

	conv, err := h.inboxSvc.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, inbox.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	messages, err := h.inboxSvc.ListMessages(ctx, id)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	h.send(w, flusher, StreamResponse{Event: "start", ConversationID: id})
	h.send(w, flusher, StreamResponse{Event: "mood", ConversationID: id, Content: string(mood.Analyze(messages).Label)})

	response, err := h.dispatch(ctx, w, flusher, conv, messages)
	if err != nil {
		h.logger.Warn("suggestion failed", zap.String("conversation_id", id), zap.Error(err))
		h.send(w, flusher, StreamResponse{Event: "error", ConversationID: id, Error: "suggestion failed"})
		return
	}

	h.send(w, flusher, StreamResponse{Event: "end", ConversationID: id, Finished: true})
	h.logger.Info("suggestion completed",
		zap.String("conversation_id", id),
		zap.Int("length", len(response.Content)))
}

func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, conv inbox.Conversation, messages []inbox.Message) (*schema.Message, error) {
	if !h.suggester.StreamingEnabled() {
		response, err := h.suggester.Suggest(ctx, conv, messages)
		if err != nil {
			return nil, err
		}
		h.send(w, flusher, StreamResponse{Event: "message", ConversationID: conv.ID, Content: response.Content})
		return response, nil
	}

	stream, err := h.suggester.StreamSuggestion(ctx, conv, messages)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(w, flusher, StreamResponse{Event: "delta", ConversationID: conv.ID, Content: chunk.Content})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, err
	}
	h.send(w, flusher, StreamResponse{Event: "message", ConversationID: conv.ID, Content: response.Content})
	return response, nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, resp StreamResponse) {
	if err := utils.SendSSEChunk(w, flusher, resp); err != nil {
		h.logger.Debug("sse write failed", zap.Error(err))
	}
}
