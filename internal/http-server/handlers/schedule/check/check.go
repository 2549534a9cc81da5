package check

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

type ConflictChecker interface {
	CheckConflict(ctx context.Context, req *api.ConflictCheckRequest) (*api.ConflictCheckResponse, error)
}

type Request struct {
	api.ConflictCheckRequest
}

type Response struct {
	response.Response
	api.ConflictCheckResponse
}

func New(log *slog.Logger, checker ConflictChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedule.check.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.EmployeeID == "" {
			log.Error("employee_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "employee_id is required"))
			return
		}

		if len(req.Schedule) == 0 {
			log.Error("schedule is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "schedule is required"))
			return
		}

		result, err := checker.CheckConflict(r.Context(), &req.ConflictCheckRequest)

		if errors.Is(err, response.ErrParse) {
			log.Error("malformed schedule entry", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.PARSE_FAILED), "malformed schedule entry"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid schedule entry", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid schedule entry"))
			return
		}

		if errors.Is(err, response.ErrFetch) {
			log.Error("Failed to fetch employments", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error(string(response.UPSTREAM_UNAVAILABLE), "failed to fetch employments"))
			return
		}

		if err != nil {
			log.Error("Failed to check conflicts", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check conflicts"))
			return
		}

		log.Info("Conflict check done", slog.Bool("has_conflict", result.HasConflict))

		render.JSON(w, r, Response{ConflictCheckResponse: *result})
	}
}
