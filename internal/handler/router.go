package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	assistHandler "github.com/lumi-hq/lumi-inbox/backend/internal/handler/assist"
	"github.com/lumi-hq/lumi-inbox/backend/internal/handler/conversation"
	liveHandler "github.com/lumi-hq/lumi-inbox/backend/internal/handler/live"
	templateHandler "github.com/lumi-hq/lumi-inbox/backend/internal/handler/template"
	middlewarePkg "github.com/lumi-hq/lumi-inbox/backend/internal/middleware"
	templateModel "github.com/lumi-hq/lumi-inbox/backend/internal/model/template"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/pkg/utils"
)

// Dependencies 汇总路由需要的服务。
type Dependencies struct {
	Inbox          *inboxService.Service
	Templates      templateModel.Store
	Live           liveHandler.Subscriber
	Assist         assistHandler.Suggester
	Display        conversation.Options
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 15 * time.Second
	}
	deps.Display.Logger = logger.Named("http")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	conversationHandler := conversation.New(deps.Inbox, deps.Display)
	tplHandler := templateHandler.New(deps.Templates)
	suggestionHandler := assistHandler.New(deps.Assist, deps.Inbox, logger.Named("assist"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		// Streaming routes manage their own lifetime.
		suggestionHandler.RegisterRoutes(api)
		if deps.Live != nil {
			liveHandler.New(deps.Live, logger.Named("live")).RegisterRoutes(api)
		}

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(deps.RequestTimeout))
			conversationHandler.RegisterRoutes(api)
			tplHandler.RegisterRoutes(api)
		})
	})

	return r
}
