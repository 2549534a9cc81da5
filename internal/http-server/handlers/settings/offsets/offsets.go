package offsets

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

type OffsetsUpdater interface {
	UpdateReminderOffsets(ctx context.Context, businessID string, offsets []int) error
}

type Request struct {
	api.ReminderOffsetsRequest
}

func New(log *slog.Logger, updater OffsetsUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.offsets.New"

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

		if len(req.Offsets) == 0 {
			log.Error("offsets is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "offsets is required"))
			return
		}

		err := updater.UpdateReminderOffsets(r.Context(), businessID, req.Offsets)

		if errors.Is(err, response.ErrOffsetsTooClose) {
			log.Error("offsets are too close together")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.OFFSETS_TOO_CLOSE), "offsets must not overlap within the tolerance band"))
			return
		}

		if err != nil {
			log.Error("Failed to update offsets", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update offsets"))
			return
		}

		log.Info("Reminder offsets updated",
			slog.String("business_id", businessID),
			slog.Any("offsets", req.Offsets),
		)

		render.JSON(w, r, response.Response{})
	}
}
