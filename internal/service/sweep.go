package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reminder-service/api"
	"reminder-service/internal/models"
	"reminder-service/internal/notify"
	"reminder-service/internal/reminder"
	"reminder-service/pkg/response"
)

const (
	sweepResultSent    = "sent"
	sweepResultSkipped = "skipped"
	sweepResultFailed  = "failed"
)

// RunSweep performs one reminder sweep over the look-ahead window. It is
// stateless and safe to call from overlapping scheduler invocations: the
// dedup guard bounds duplicate sends; a per-appointment failure is recorded
// in the result list and retried naturally on the next sweep.
func (s *Service) RunSweep(ctx context.Context) (*api.SweepResponse, error) {
	const op = "service.RunSweep"

	now := s.now().UTC()

	appts, err := s.store.ListUpcomingAppointments(ctx, now, now.Add(s.lookahead))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrFetch, err)
	}

	businessIDs := distinctBusinessIDs(appts)

	offsets := map[string][]int{}
	if len(businessIDs) > 0 {
		offsets, err = s.store.ListReminderOffsets(ctx, businessIDs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, response.ErrFetch, err)
		}
	}

	deref := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		deref = append(deref, *a)
	}

	due := reminder.FindDue(now, deref, offsets, reminder.MatchOptions{
		Lookahead:        s.lookahead,
		ToleranceMinutes: s.toleranceMinutes,
	})

	resp := &api.SweepResponse{
		AppointmentsChecked: len(appts),
		RemindersProcessed:  len(due),
		Results:             make([]api.SweepResult, 0, len(due)),
	}

	settingsCache := make(map[string]*models.NotificationSettings)

	for _, d := range due {
		result := s.processReminder(ctx, now, d, settingsCache)
		if result.Status == sweepResultSent {
			resp.RemindersSent++
		}
		resp.Results = append(resp.Results, result)
	}

	return resp, nil
}

func (s *Service) processReminder(ctx context.Context, now time.Time, d reminder.DueReminder, settingsCache map[string]*models.NotificationSettings) api.SweepResult {
	appt := d.Appointment
	reminderType := fmt.Sprintf("%dm", d.OffsetMinutes)

	recent, err := s.store.HasRecentDispatch(ctx, appt.ID, models.NotifyAppointmentReminder, now, s.dedupWindow)
	if err != nil {
		return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultFailed, ReminderType: reminderType, Error: err.Error()}
	}
	if recent {
		return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultSkipped, ReminderType: reminderType, Error: "recent dispatch within dedup window"}
	}

	settings, ok := settingsCache[appt.BusinessID]
	if !ok {
		settings, err = s.store.GetNotificationSettings(ctx, appt.BusinessID)
		if err != nil {
			return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultFailed, ReminderType: reminderType, Error: err.Error()}
		}
		settingsCache[appt.BusinessID] = settings
	}

	msg := notify.Message{
		Type: models.NotifyAppointmentReminder,
		Recipient: notify.Recipient{
			UserID: appt.ClientID,
			Name:   appt.ClientName,
			Email:  appt.ClientEmail,
			Phone:  appt.ClientPhone,
		},
		Subject: "Appointment reminder",
		Body:    fmt.Sprintf("Your appointment starts at %s.", appt.StartTime.Format(time.RFC1123)),
	}

	outcome := s.notifier.Dispatch(ctx, msg, s.reminderChannels, *settings)

	switch outcome.Status {
	case notify.StatusCancelled:
		// every channel gated off: nothing was attempted, nothing to log
		return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultSkipped, ReminderType: reminderType, Error: "all channels disabled for business"}
	case notify.StatusFailed:
		return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultFailed, ReminderType: reminderType, Error: outcomeError(outcome)}
	}

	err = s.store.RecordDispatch(ctx, &models.DispatchLogEntry{
		ID:               uuid.NewString(),
		AppointmentID:    appt.ID,
		NotificationType: string(models.NotifyAppointmentReminder),
		CreatedAt:        now,
	})
	if err != nil {
		// the reminder went out; report sent and accept a possible
		// duplicate on the next sweep
		return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultSent, ReminderType: reminderType, Error: err.Error()}
	}

	if d.Final {
		if err := s.store.MarkReminderSent(ctx, appt.ID); err != nil {
			return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultSent, ReminderType: reminderType, Error: err.Error()}
		}
	}

	return api.SweepResult{AppointmentID: appt.ID, Status: sweepResultSent, ReminderType: reminderType}
}

func distinctBusinessIDs(appts []*models.Appointment) []string {
	seen := make(map[string]struct{}, len(appts))
	var ids []string

	for _, a := range appts {
		if _, ok := seen[a.BusinessID]; ok {
			continue
		}
		seen[a.BusinessID] = struct{}{}
		ids = append(ids, a.BusinessID)
	}

	return ids
}

func outcomeError(o notify.Outcome) string {
	for ch, err := range o.Errors {
		return fmt.Sprintf("%s: %s", ch, err)
	}
	return "dispatch failed"
}
