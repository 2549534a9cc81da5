package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"reminder-service/internal/models"
	"reminder-service/pkg/response"
)

// #### notification settings ####

func (s *Storage) GetNotificationSettings(ctx context.Context, businessID string) (*models.NotificationSettings, error) {
	const op = "storage.postgres.GetNotificationSettings"

	settings := &models.NotificationSettings{
		BusinessID: businessID,
		Types:      make(map[models.NotificationType]models.TypeSetting),
	}

	var enabled []string
	err := s.db.QueryRowContext(ctx, `SELECT enabled_channels
		FROM business_notification_settings WHERE business_id = $1`, businessID).
		Scan(pq.Array(&enabled))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, ch := range enabled {
		settings.EnabledChannels = append(settings.EnabledChannels, models.Channel(ch))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT type, enabled, allowed_channels
		FROM notification_type_settings WHERE business_id = $1`, businessID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var typeEnabled bool
		var allowed []string

		if err := rows.Scan(&typ, &typeEnabled, pq.Array(&allowed)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		ts := models.TypeSetting{Enabled: typeEnabled}
		for _, ch := range allowed {
			ts.AllowedChannels = append(ts.AllowedChannels, models.Channel(ch))
		}

		settings.Types[models.NotificationType(typ)] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return settings, nil
}

func (s *Storage) UpdateNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error {
	const op = "storage.postgres.UpdateNotificationSettings"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	enabled := make([]string, 0, len(settings.EnabledChannels))
	for _, ch := range settings.EnabledChannels {
		enabled = append(enabled, string(ch))
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO business_notification_settings
		(business_id, enabled_channels)
		VALUES ($1, $2)
		ON CONFLICT (business_id)
		DO UPDATE SET enabled_channels = EXCLUDED.enabled_channels`,
		settings.BusinessID, pq.Array(enabled),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM notification_type_settings WHERE business_id = $1`, settings.BusinessID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for typ, ts := range settings.Types {
		allowed := make([]string, 0, len(ts.AllowedChannels))
		for _, ch := range ts.AllowedChannels {
			allowed = append(allowed, string(ch))
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO notification_type_settings
			(business_id, type, enabled, allowed_channels)
			VALUES ($1, $2, $3, $4)`,
			settings.BusinessID, string(typ), ts.Enabled, pq.Array(allowed),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// #### reminder offsets ####

// ListReminderOffsets returns configured offsets for the given businesses,
// in configuration order.
func (s *Storage) ListReminderOffsets(ctx context.Context, businessIDs []string) (map[string][]int, error) {
	const op = "storage.postgres.ListReminderOffsets"

	rows, err := s.db.QueryContext(ctx, `SELECT business_id, offsets
		FROM business_reminder_offsets WHERE business_id = ANY($1)`,
		pq.Array(businessIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make(map[string][]int)
	for rows.Next() {
		var businessID string
		var offsets []int64

		if err := rows.Scan(&businessID, pq.Array(&offsets)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		converted := make([]int, 0, len(offsets))
		for _, o := range offsets {
			converted = append(converted, int(o))
		}

		result[businessID] = converted
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Storage) UpdateReminderOffsets(ctx context.Context, businessID string, offsets []int) error {
	const op = "storage.postgres.UpdateReminderOffsets"

	converted := make([]int64, 0, len(offsets))
	for _, o := range offsets {
		converted = append(converted, int64(o))
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO business_reminder_offsets
		(business_id, offsets)
		VALUES ($1, $2)
		ON CONFLICT (business_id)
		DO UPDATE SET offsets = EXCLUDED.offsets`,
		businessID, pq.Array(converted),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
