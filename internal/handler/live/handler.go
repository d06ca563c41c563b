package live

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	liveService "github.com/lumi-hq/lumi-inbox/backend/internal/service/live"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Subscriber 提供收件箱事件订阅。
type Subscriber interface {
	Subscribe() (<-chan liveService.Event, func())
}

// Handler 通过 WebSocket 推送收件箱实时事件
type Handler struct {
	hub      Subscriber
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New 创建实时推送处理器
func New(hub Subscriber, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册实时推送路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/live", h.handleLive)
}

type frame struct {
	Type           string             `json:"type"`
	ConversationID string             `json:"conversationId,omitempty"`
	Event          *liveService.Event `json:"event,omitempty"`
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	onlyConversation := r.URL.Query().Get("conversation")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancelSub := h.hub.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.readLoop(conn, cancel)

	h.logger.Debug("live client connected", zap.String("conversation", onlyConversation))
	if err := h.write(conn, frame{Type: "connected", ConversationID: onlyConversation}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if onlyConversation != "" && ev.ConversationID != onlyConversation {
				continue
			}
			if err := h.write(conn, frame{Type: string(ev.Type), ConversationID: ev.ConversationID, Event: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop 丢弃客户端消息，只负责处理 pong 与断开。
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, f frame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(f); err != nil {
		h.logger.Debug("live write failed", zap.Error(err))
		return err
	}
	return nil
}
