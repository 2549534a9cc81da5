package reject

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

type AbsenceRejecter interface {
	RejectAbsence(ctx context.Context, absenceID, adminID, notes string) (*api.AbsenceDecisionResponse, error)
}

type Request struct {
	api.AbsenceDecisionRequest
}

type Response struct {
	response.Response
	api.AbsenceDecisionResponse
}

func New(log *slog.Logger, rejecter AbsenceRejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.absences.reject.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.AdminID == "" {
			log.Error("admin_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "admin_id is required"))
			return
		}

		result, err := rejecter.RejectAbsence(r.Context(), id, req.AdminID, req.Notes)

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "another decision is in progress"))
			return
		}

		if errors.Is(err, response.ErrInvalidState) {
			log.Error("absence is not pending")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_STATE), "absence is not pending"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to reject absence", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reject absence"))
			return
		}

		log.Info("Absence rejected", slog.String("id", id))

		render.JSON(w, r, Response{AbsenceDecisionResponse: *result})
	}
}
