package create

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

type AbsenceSubmitter interface {
	SubmitAbsence(ctx context.Context, req *api.AbsenceCreateRequest) (*api.AbsenceResponse, error)
}

type Request struct {
	api.AbsenceCreateRequest
}

type Response struct {
	response.Response
	Absence api.AbsenceResponse `json:"absence,omitempty"`
}

func New(log *slog.Logger, submitter AbsenceSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.absences.create.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		if req.EmployeeID == "" {
			log.Error("employee_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "employee_id is required"))
			return
		}

		if req.BusinessID == "" {
			log.Error("business_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "business_id is required"))
			return
		}

		absence, err := submitter.SubmitAbsence(r.Context(), &req.AbsenceCreateRequest)

		if errors.Is(err, response.ErrParse) {
			log.Error("malformed date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.PARSE_FAILED), "dates must be YYYY-MM-DD"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid absence request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid absence request"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "employee or business not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create absence", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create absence"))
			return
		}

		log.Info("Absence created", slog.String("id", absence.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Absence: *absence})
	}
}
