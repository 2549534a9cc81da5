package update

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

type SettingsUpdater interface {
	UpdateNotificationSettings(ctx context.Context, businessID string, payload *api.NotificationSettingsPayload) error
}

type Request struct {
	api.NotificationSettingsPayload
}

func New(log *slog.Logger, updater SettingsUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.update.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		err := updater.UpdateNotificationSettings(r.Context(), businessID, &req.NotificationSettingsPayload)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("unknown channel in payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "unknown channel"))
			return
		}

		if err != nil {
			log.Error("Failed to update settings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update settings"))
			return
		}

		log.Info("Settings updated", slog.String("business_id", businessID))

		render.JSON(w, r, response.Response{})
	}
}
