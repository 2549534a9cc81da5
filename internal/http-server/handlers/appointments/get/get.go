package get

import (
	"context"
	"log/slog"
	"net/http"
	"reminder-service/api"
	"reminder-service/internal/models"
	"reminder-service/pkg/response"
	"reminder-service/pkg/sl"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AppointmentLister interface {
	ListAppointments(ctx context.Context, filters models.AppointmentFilters) ([]*api.AppointmentResponse, error)
}

type Response struct {
	response.Response
	Appointments []*api.AppointmentResponse `json:"appointments"`
}

func New(log *slog.Logger, lister AppointmentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		filters := models.AppointmentFilters{
			BusinessID: queryPtr(r, "business_id"),
			EmployeeID: queryPtr(r, "employee_id"),
			Status:     queryPtr(r, "status"),
		}

		if v := r.URL.Query().Get("from"); v != "" {
			from, err := time.Parse(time.RFC3339, v)
			if err != nil {
				log.Error("invalid from", slog.String("from", v))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.PARSE_FAILED), "from must be RFC3339"))
				return
			}
			filters.From = &from
		}

		if v := r.URL.Query().Get("to"); v != "" {
			to, err := time.Parse(time.RFC3339, v)
			if err != nil {
				log.Error("invalid to", slog.String("to", v))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.PARSE_FAILED), "to must be RFC3339"))
				return
			}
			filters.To = &to
		}

		appointments, err := lister.ListAppointments(r.Context(), filters)

		if err != nil {
			log.Error("Failed to list appointments", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list appointments"))
			return
		}

		if appointments == nil {
			appointments = []*api.AppointmentResponse{}
		}

		render.JSON(w, r, Response{Appointments: appointments})
	}
}

func queryPtr(r *http.Request, key string) *string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	return &v
}
