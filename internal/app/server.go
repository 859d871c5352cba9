package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"chatbot/internal/bot"
)

// dispatcher accepts updates pushed by Telegram
type dispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

// newRouter wires the health endpoints and, in webhook mode, the update endpoint
func newRouter(d dispatcher, webhookMode bool, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Bot is running!")
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	if webhookMode {
		r.Post(bot.WebhookPath, func(w http.ResponseWriter, r *http.Request) {
			var update tgbotapi.Update
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				logger.Warn("Error decoding webhook update",
					zap.Error(err),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			// Answer Telegram right away; the update is handled in the background
			d.Dispatch(r.Context(), update)
			w.WriteHeader(http.StatusOK)
		})
	}

	return r
}
