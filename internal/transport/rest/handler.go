package rest

import (
	"context"
	"net/http"
	"time"

	"loanwise/internal/clients"
	"loanwise/internal/domain"
	"loanwise/internal/repository"
	"loanwise/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type LoanCalculator interface {
	Calculate(ctx context.Context, req service.CalculationRequest, userID int64) (domain.CalculationResult, error)
	History(ctx context.Context, userID int64, limit int) ([]repository.CalculationRecord, error)
}

type ScheduleExporter interface {
	StartScheduleExport(ctx context.Context, req service.CalculationRequest, selected []string, format string, userID int64) (string, error)
	GetExports(ctx context.Context, userID int64) ([]interface{}, error)
	GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error)
}

type ChatStreamer interface {
	Enabled() bool
	Stream(ctx context.Context, messages []clients.ChatMessage, maxTokens int, onDelta func(string) error) error
}

type Handler struct {
	loans   LoanCalculator
	exports ScheduleExporter
	chat    ChatStreamer
}

func NewHandler(loans LoanCalculator, exports ScheduleExporter, chat ChatStreamer) *Handler {
	return &Handler{
		loans:   loans,
		exports: exports,
		chat:    chat,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/loan", func(r chi.Router) {
		r.Post("/calculate", h.calculate)
		r.Post("/export", h.exportSchedule)
		r.Get("/history", h.listHistory)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
	})

	r.Post("/chat/stream", h.chatStream)

	return r
}
