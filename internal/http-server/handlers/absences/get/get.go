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

type AbsenceProvider interface {
	GetAbsence(ctx context.Context, id string) (*api.AbsenceResponse, error)
	ListAbsences(ctx context.Context, employeeID, businessID, status *string) ([]*api.AbsenceResponse, error)
}

type Response struct {
	response.Response
	Absence api.AbsenceResponse `json:"absence,omitempty"`
}

type ListResponse struct {
	response.Response
	Absences []*api.AbsenceResponse `json:"absences"`
}

func New(log *slog.Logger, provider AbsenceProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.absences.get.New"

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

		absence, err := provider.GetAbsence(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get absence", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get absence"))
			return
		}

		render.JSON(w, r, Response{Absence: *absence})
	}
}

// NewList serves the collection endpoint; every filter is optional.
func NewList(log *slog.Logger, provider AbsenceProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.absences.get.NewList"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		absences, err := provider.ListAbsences(r.Context(),
			queryPtr(r, "employee_id"),
			queryPtr(r, "business_id"),
			queryPtr(r, "status"),
		)

		if err != nil {
			log.Error("Failed to list absences", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list absences"))
			return
		}

		if absences == nil {
			absences = []*api.AbsenceResponse{}
		}

		render.JSON(w, r, ListResponse{Absences: absences})
	}
}

func queryPtr(r *http.Request, key string) *string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	return &v
}
