package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reminder-service/api"
	"reminder-service/internal/models"
	"reminder-service/internal/notify"
	"reminder-service/pkg/response"
)

const absenceLockTTL = 10 * time.Second

const dateLayout = "2006-01-02"

func (s *Service) SubmitAbsence(ctx context.Context, req *api.AbsenceCreateRequest) (*api.AbsenceResponse, error) {
	const op = "service.SubmitAbsence"

	absenceType := models.AbsenceType(req.Type)
	switch absenceType {
	case models.AbsenceVacation, models.AbsenceEmergency, models.AbsenceSickLeave,
		models.AbsencePersonal, models.AbsenceOther:
	default:
		return nil, fmt.Errorf("%s: invalid type %q: %w", op, req.Type, response.ErrBadRequest)
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_date: %w", op, response.ErrParse)
	}

	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid end_date: %w", op, response.ErrParse)
	}

	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%s: end_date precedes start_date: %w", op, response.ErrBadRequest)
	}

	absence := &models.AbsenceRequest{
		ID:         uuid.NewString(),
		EmployeeID: req.EmployeeID,
		BusinessID: req.BusinessID,
		Type:       absenceType,
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     req.Reason,
		Status:     models.AbsencePending,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.store.CreateAbsence(ctx, absence); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if absenceType == models.AbsenceVacation {
		days := daysInclusive(startDate, endDate)
		if err := s.store.AdjustPendingDays(ctx, req.EmployeeID, req.BusinessID, startDate.Year(), days); err != nil {
			return nil, fmt.Errorf("%s: adjust pending: %w", op, err)
		}
	}

	return absenceResponse(absence), nil
}

func (s *Service) GetAbsence(ctx context.Context, id string) (*api.AbsenceResponse, error) {
	const op = "service.GetAbsence"

	absence, err := s.store.GetAbsence(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return absenceResponse(absence), nil
}

func (s *Service) ListAbsences(ctx context.Context, employeeID, businessID, status *string) ([]*api.AbsenceResponse, error) {
	const op = "service.ListAbsences"

	absences, err := s.store.ListAbsences(ctx, employeeID, businessID, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.AbsenceResponse, 0, len(absences))
	for _, a := range absences {
		result = append(result, absenceResponse(a))
	}

	return result, nil
}

// ApproveAbsence commits the approval first and then runs the cascade:
// every affected appointment is cancelled and its client notified, failures
// accumulated rather than raised. An approved absence never reverts because
// a downstream notification failed.
func (s *Service) ApproveAbsence(ctx context.Context, absenceID, adminID, notes string) (*api.AbsenceDecisionResponse, error) {
	const op = "service.ApproveAbsence"

	locked, err := s.locker.Lock(ctx, "absence:"+absenceID, absenceLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, "absence:"+absenceID)
	}()

	absence, err := s.store.GetAbsence(ctx, absenceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if absence.Status != models.AbsencePending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	now := s.now().UTC()
	if err := s.store.UpdateAbsenceStatus(ctx, absenceID, models.AbsenceApproved, &adminID, notes, &now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.AbsenceDecisionResponse{Success: true}

	appts, err := s.store.ListEmployeeAppointmentsInRange(ctx, absence.EmployeeID, startOfDay(absence.StartDate), endOfDay(absence.EndDate))
	if err != nil {
		// the approval is committed; skip only the cascade and report the
		// enumeration failure, the accrual below must still run
		resp.Message = fmt.Sprintf("approved; failed to enumerate appointments: %s", err)
		appts = nil
	}

	if len(appts) > 0 {
		s.cancelAppointments(ctx, resp, absence, appts, now)
	}

	if absence.Type == models.AbsenceVacation {
		days := daysInclusive(absence.StartDate, absence.EndDate)
		if err := s.store.ApplyVacationAccrual(ctx, absence.ID, absence.EmployeeID, absence.BusinessID, absence.StartDate.Year(), days); err != nil {
			resp.Message = joinMessages(resp.Message, fmt.Sprintf("accrual update failed: %s", err))
		}
	}

	s.notifyEmployee(ctx, absence, models.NotifyAbsenceApproved, "Your absence request was approved.")

	if resp.Message == "" {
		resp.Message = fmt.Sprintf("%d cancelled, %d failed", resp.CancelledAppointments, len(resp.Failed))
	}

	return resp, nil
}

// cancelAppointments runs the approval cascade: each appointment inside the
// absence window is cancelled and its client notified. Client notifications
// go through the same dedup guard and dispatch log as sweep reminders, so an
// overlapping approval or a later retry cannot notify the same client twice.
func (s *Service) cancelAppointments(ctx context.Context, resp *api.AbsenceDecisionResponse, absence *models.AbsenceRequest, appts []*models.Appointment, now time.Time) {
	settings, settingsErr := s.store.GetNotificationSettings(ctx, absence.BusinessID)

	reason := fmt.Sprintf("employee absence %s", absence.ID)

	for _, appt := range appts {
		if err := s.store.CancelAppointment(ctx, appt.ID, reason, now); err != nil {
			resp.Failed = append(resp.Failed, api.CancelFailure{AppointmentID: appt.ID, Error: err.Error()})
			continue
		}

		resp.CancelledAppointments++

		if settingsErr != nil {
			continue
		}

		recent, err := s.store.HasRecentDispatch(ctx, appt.ID, models.NotifyAppointmentCancelled, now, s.dedupWindow)
		if err != nil || recent {
			continue
		}

		msg := notify.Message{
			Type: models.NotifyAppointmentCancelled,
			Recipient: notify.Recipient{
				UserID: appt.ClientID,
				Name:   appt.ClientName,
				Email:  appt.ClientEmail,
				Phone:  appt.ClientPhone,
			},
			Subject: "Appointment cancelled",
			Body:    fmt.Sprintf("Your appointment on %s was cancelled.", appt.StartTime.Format(time.RFC1123)),
		}

		// best-effort: a failed client notification does not fail the cascade
		outcome := s.notifier.Dispatch(ctx, msg, s.reminderChannels, *settings)
		if outcome.Status == notify.StatusCancelled || outcome.Status == notify.StatusFailed {
			continue
		}

		_ = s.store.RecordDispatch(ctx, &models.DispatchLogEntry{
			ID:               uuid.NewString(),
			AppointmentID:    appt.ID,
			NotificationType: string(models.NotifyAppointmentCancelled),
			CreatedAt:        now,
		})
	}
}

func joinMessages(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

func (s *Service) RejectAbsence(ctx context.Context, absenceID, adminID, notes string) (*api.AbsenceDecisionResponse, error) {
	const op = "service.RejectAbsence"

	locked, err := s.locker.Lock(ctx, "absence:"+absenceID, absenceLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, "absence:"+absenceID)
	}()

	absence, err := s.store.GetAbsence(ctx, absenceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if absence.Status != models.AbsencePending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	now := s.now().UTC()
	if err := s.store.UpdateAbsenceStatus(ctx, absenceID, models.AbsenceRejected, &adminID, notes, &now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if absence.Type == models.AbsenceVacation {
		days := daysInclusive(absence.StartDate, absence.EndDate)
		if err := s.store.AdjustPendingDays(ctx, absence.EmployeeID, absence.BusinessID, absence.StartDate.Year(), -days); err != nil {
			return &api.AbsenceDecisionResponse{Success: true, Message: fmt.Sprintf("rejected; pending adjustment failed: %s", err)}, nil
		}
	}

	s.notifyEmployee(ctx, absence, models.NotifyAbsenceRejected, "Your absence request was rejected.")

	return &api.AbsenceDecisionResponse{Success: true, Message: "rejected"}, nil
}

// WithdrawAbsence lets the requesting employee cancel a still-pending
// request. No cascade, no admin notification.
func (s *Service) WithdrawAbsence(ctx context.Context, absenceID, employeeID string) (*api.AbsenceResponse, error) {
	const op = "service.WithdrawAbsence"

	absence, err := s.store.GetAbsence(ctx, absenceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if absence.EmployeeID != employeeID {
		return nil, fmt.Errorf("%s: absence belongs to another employee: %w", op, response.ErrBadRequest)
	}

	if absence.Status != models.AbsencePending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	if err := s.store.UpdateAbsenceStatus(ctx, absenceID, models.AbsenceCancelled, nil, absence.Notes, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if absence.Type == models.AbsenceVacation {
		days := daysInclusive(absence.StartDate, absence.EndDate)
		if err := s.store.AdjustPendingDays(ctx, absence.EmployeeID, absence.BusinessID, absence.StartDate.Year(), -days); err != nil {
			return nil, fmt.Errorf("%s: adjust pending: %w", op, err)
		}
	}

	return s.GetAbsence(ctx, absenceID)
}

func (s *Service) GetVacationBalance(ctx context.Context, employeeID, businessID string, year int) (*api.VacationBalanceResponse, error) {
	const op = "service.GetVacationBalance"

	balance, err := s.store.GetVacationBalance(ctx, employeeID, businessID, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.VacationBalanceResponse{
		EmployeeID:     balance.EmployeeID,
		BusinessID:     balance.BusinessID,
		Year:           balance.Year,
		TotalAvailable: balance.TotalAvailable,
		Used:           balance.Used,
		Pending:        balance.Pending,
		Remaining:      balance.Remaining,
	}, nil
}

func (s *Service) notifyEmployee(ctx context.Context, absence *models.AbsenceRequest, typ models.NotificationType, body string) {
	employee, err := s.store.GetEmployee(ctx, absence.EmployeeID)
	if err != nil {
		return
	}

	settings, err := s.store.GetNotificationSettings(ctx, absence.BusinessID)
	if err != nil {
		return
	}

	msg := notify.Message{
		Type: typ,
		Recipient: notify.Recipient{
			UserID: employee.ID,
			Name:   employee.Name,
			Email:  employee.Email,
			Phone:  employee.Phone,
		},
		Subject: "Absence request update",
		Body:    body,
	}

	s.notifier.Dispatch(ctx, msg, s.reminderChannels, *settings)
}

// daysInclusive counts whole days between two dates, both ends included.
func daysInclusive(start, end time.Time) int {
	return int(end.Sub(start)/(24*time.Hour)) + 1
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func absenceResponse(a *models.AbsenceRequest) *api.AbsenceResponse {
	return &api.AbsenceResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		BusinessID: a.BusinessID,
		Type:       string(a.Type),
		StartDate:  a.StartDate.Format(dateLayout),
		EndDate:    a.EndDate.Format(dateLayout),
		Reason:     a.Reason,
		Status:     string(a.Status),
		Notes:      a.Notes,
		ApprovedBy: a.ApprovedBy,
		ApprovedAt: a.ApprovedAt,
		CreatedAt:  a.CreatedAt,
	}
}
