package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reminder-service/api"
	"reminder-service/pkg/response"
	"reminder-service/pkg/sl"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BalanceProvider interface {
	GetVacationBalance(ctx context.Context, employeeID, businessID string, year int) (*api.VacationBalanceResponse, error)
}

type Response struct {
	response.Response
	Balance api.VacationBalanceResponse `json:"balance,omitempty"`
}

func New(log *slog.Logger, provider BalanceProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.balances.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		employeeID := chi.URLParam(r, "employee_id")
		if employeeID == "" {
			log.Error("employee_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "employee_id is required"))
			return
		}

		businessID := r.URL.Query().Get("business_id")
		if businessID == "" {
			log.Error("business_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "business_id is required"))
			return
		}

		year := time.Now().Year()
		if y := r.URL.Query().Get("year"); y != "" {
			parsed, err := strconv.Atoi(y)
			if err != nil {
				log.Error("invalid year", slog.String("year", y))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "year must be a number"))
				return
			}
			year = parsed
		}

		balance, err := provider.GetVacationBalance(r.Context(), employeeID, businessID, year)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "balance not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get balance", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get balance"))
			return
		}

		render.JSON(w, r, Response{Balance: *balance})
	}
}
