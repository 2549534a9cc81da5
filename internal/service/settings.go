package service

import (
	"context"
	"fmt"

	"reminder-service/api"
	"reminder-service/internal/models"
	"reminder-service/internal/reminder"
	"reminder-service/pkg/response"
)

func (s *Service) GetNotificationSettings(ctx context.Context, businessID string) (*api.NotificationSettingsPayload, error) {
	const op = "service.GetNotificationSettings"

	settings, err := s.store.GetNotificationSettings(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payload := &api.NotificationSettingsPayload{
		Types: make(map[string]api.TypeSettingPayload, len(settings.Types)),
	}

	for _, ch := range settings.EnabledChannels {
		payload.EnabledChannels = append(payload.EnabledChannels, string(ch))
	}

	for typ, ts := range settings.Types {
		out := api.TypeSettingPayload{Enabled: ts.Enabled}
		for _, ch := range ts.AllowedChannels {
			out.AllowedChannels = append(out.AllowedChannels, string(ch))
		}
		payload.Types[string(typ)] = out
	}

	return payload, nil
}

func (s *Service) UpdateNotificationSettings(ctx context.Context, businessID string, payload *api.NotificationSettingsPayload) error {
	const op = "service.UpdateNotificationSettings"

	settings := &models.NotificationSettings{
		BusinessID: businessID,
		Types:      make(map[models.NotificationType]models.TypeSetting, len(payload.Types)),
	}

	for _, ch := range payload.EnabledChannels {
		channel, ok := parseChannel(ch)
		if !ok {
			return fmt.Errorf("%s: unknown channel %q: %w", op, ch, response.ErrBadRequest)
		}
		settings.EnabledChannels = append(settings.EnabledChannels, channel)
	}

	for typ, in := range payload.Types {
		ts := models.TypeSetting{Enabled: in.Enabled}
		for _, ch := range in.AllowedChannels {
			channel, ok := parseChannel(ch)
			if !ok {
				return fmt.Errorf("%s: unknown channel %q: %w", op, ch, response.ErrBadRequest)
			}
			ts.AllowedChannels = append(ts.AllowedChannels, channel)
		}
		settings.Types[models.NotificationType(typ)] = ts
	}

	if err := s.store.UpdateNotificationSettings(ctx, settings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateReminderOffsets rejects configurations where two offsets sit inside
// one tolerance band of each other, so sweep matching never depends on
// iteration order.
func (s *Service) UpdateReminderOffsets(ctx context.Context, businessID string, offsets []int) error {
	const op = "service.UpdateReminderOffsets"

	if !reminder.ValidateOffsets(offsets, s.toleranceMinutes) {
		return fmt.Errorf("%s: %w", op, response.ErrOffsetsTooClose)
	}

	if err := s.store.UpdateReminderOffsets(ctx, businessID, offsets); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) ListAppointments(ctx context.Context, filters models.AppointmentFilters) ([]*api.AppointmentResponse, error) {
	const op = "service.ListAppointments"

	appts, err := s.store.ListAppointments(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		result = append(result, &api.AppointmentResponse{
			ID:           a.ID,
			BusinessID:   a.BusinessID,
			EmployeeID:   a.EmployeeID,
			ClientID:     a.ClientID,
			ClientName:   a.ClientName,
			StartTime:    a.StartTime,
			EndTime:      a.EndTime,
			Status:       string(a.Status),
			ReminderSent: a.ReminderSent,
			CancelledAt:  a.CancelledAt,
			CancelReason: a.CancelReason,
		})
	}

	return result, nil
}

func parseChannel(s string) (models.Channel, bool) {
	switch models.Channel(s) {
	case models.ChannelEmail, models.ChannelSMS, models.ChannelWhatsApp, models.ChannelInApp:
		return models.Channel(s), true
	default:
		return "", false
	}
}
