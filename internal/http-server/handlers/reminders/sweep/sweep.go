package sweep

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reminder-service/api"
	"reminder-service/pkg/response"
	"reminder-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Sweeper interface {
	RunSweep(ctx context.Context) (*api.SweepResponse, error)
}

type Response struct {
	response.Response
	api.SweepResponse
}

func New(log *slog.Logger, sweeper Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reminders.sweep.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := sweeper.RunSweep(r.Context())

		if errors.Is(err, response.ErrFetch) {
			log.Error("Failed to fetch appointments", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error(string(response.UPSTREAM_UNAVAILABLE), "failed to fetch appointments"))
			return
		}

		if err != nil {
			log.Error("Failed to run sweep", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to run sweep"))
			return
		}

		log.Info("Sweep finished",
			slog.Int("checked", result.AppointmentsChecked),
			slog.Int("processed", result.RemindersProcessed),
			slog.Int("sent", result.RemindersSent),
		)

		render.JSON(w, r, Response{SweepResponse: *result})
	}
}
