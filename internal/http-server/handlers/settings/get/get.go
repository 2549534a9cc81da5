package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reminder-service/api"
	"reminder-service/pkg/response"
	"reminder-service/pkg/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SettingsProvider interface {
	GetNotificationSettings(ctx context.Context, businessID string) (*api.NotificationSettingsPayload, error)
}

type Response struct {
	response.Response
	Settings api.NotificationSettingsPayload `json:"settings,omitempty"`
}

func New(log *slog.Logger, provider SettingsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		businessID := chi.URLParam(r, "business_id")
		if businessID == "" {
			log.Error("business_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "business_id is required"))
			return
		}

		settings, err := provider.GetNotificationSettings(r.Context(), businessID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "settings not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get settings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get settings"))
			return
		}

		render.JSON(w, r, Response{Settings: *settings})
	}
}
