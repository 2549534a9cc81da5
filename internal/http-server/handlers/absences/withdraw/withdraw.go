package withdraw

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

type AbsenceWithdrawer interface {
	WithdrawAbsence(ctx context.Context, absenceID, employeeID string) (*api.AbsenceResponse, error)
}

type Request struct {
	api.AbsenceWithdrawRequest
}

type Response struct {
	response.Response
	Absence api.AbsenceResponse `json:"absence,omitempty"`
}

func New(log *slog.Logger, withdrawer AbsenceWithdrawer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.absences.withdraw.New"

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

		if req.EmployeeID == "" {
			log.Error("employee_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "employee_id is required"))
			return
		}

		absence, err := withdrawer.WithdrawAbsence(r.Context(), id, req.EmployeeID)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("absence belongs to another employee")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "absence belongs to another employee"))
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
			log.Error("Failed to withdraw absence", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to withdraw absence"))
			return
		}

		log.Info("Absence withdrawn", slog.String("id", id))

		render.JSON(w, r, Response{Absence: *absence})
	}
}
