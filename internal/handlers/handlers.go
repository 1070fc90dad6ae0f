package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avbochkov/vendobot/internal/telegram"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handlers exposes the process surface: a health check and, in webhook
// delivery mode, the update ingress. The path token doubles as the webhook
// secret.
type Handlers struct {
	handler      telegram.Handler
	webhookToken string
}

func New(handler telegram.Handler, webhookToken string) *Handlers {
	return &Handlers{
		handler:      handler,
		webhookToken: webhookToken,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/healthz", h.Health)
	r.Post("/webhook/{token}", h.Webhook)

	return r
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != h.webhookToken {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		zap.L().Warn("can't decode webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.handler(r.Context(), update); err != nil {
		zap.L().Error("webhook update failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
