package template

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/template"
	"github.com/lumi-hq/lumi-inbox/backend/pkg/utils"
)

// Handler 快捷回复模板的HTTP处理器
type Handler struct {
	templates template.Store
}

// New 创建模板处理器
func New(templates template.Store) *Handler {
	return &Handler{
		templates: templates,
	}
}

// RegisterRoutes 注册模板相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/templates", h.handleList)
	r.Post("/templates/{id}/compose", h.handleCompose)
}

// handleList 列出所有模板
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.templates.List())
}

// handleCompose 把模板插入到草稿中
func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	tpl, ok := h.templates.FindByID(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "template not found")
		return
	}

	var payload struct {
		Draft string `json:"draft"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"templateId": tpl.ID,
		"draft":      template.Compose(payload.Draft, tpl),
	})
}
