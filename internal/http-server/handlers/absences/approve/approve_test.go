package approve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"reminder-service/api"
	"reminder-service/pkg/response"
)

type stubApprover struct {
	resp *api.AbsenceDecisionResponse
	err  error
}

func (s *stubApprover) ApproveAbsence(_ context.Context, _, _, _ string) (*api.AbsenceDecisionResponse, error) {
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, approver AbsenceApprover, id, body string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Put("/absences/{id}/approve", New(discardLogger(), approver))

	req := httptest.NewRequest(http.MethodPut, "/absences/"+id+"/approve", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	return rec
}

func TestApproveHandlerOK(t *testing.T) {
	approver := &stubApprover{resp: &api.AbsenceDecisionResponse{
		Success:               true,
		CancelledAppointments: 2,
		Message:               "2 cancelled, 0 failed",
	}}

	rec := doRequest(t, approver, "abs1", `{"admin_id":"admin1","notes":"ok"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.CancelledAppointments != 2 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestApproveHandlerRequiresAdmin(t *testing.T) {
	rec := doRequest(t, &stubApprover{}, "abs1", `{"notes":"ok"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestApproveHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code response.ErrCode
	}{
		{response.ErrLocked, http.StatusLocked, response.LOCKED},
		{response.ErrInvalidState, http.StatusConflict, response.INVALID_STATE},
		{response.ErrNotFound, http.StatusNotFound, response.NOT_FOUND},
		{fmt.Errorf("boom"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, tc := range cases {
		rec := doRequest(t, &stubApprover{err: fmt.Errorf("op: %w", tc.err)}, "abs1", `{"admin_id":"admin1"}`)

		if rec.Code != tc.want {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}

		var resp response.Response
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Code != string(tc.code) {
			t.Fatalf("%v: code = %q, want %q", tc.err, resp.Code, tc.code)
		}
	}
}
