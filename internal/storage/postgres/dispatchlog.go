package postgres

import (
	"context"
	"fmt"
	"time"

	"reminder-service/internal/models"
)

// #### dispatch log ####

// HasRecentDispatch reports whether a notification of the given type was
// recorded for the appointment inside the trailing window.
func (s *Storage) HasRecentDispatch(ctx context.Context, appointmentID string, notificationType models.NotificationType, now time.Time, window time.Duration) (bool, error) {
	const op = "storage.postgres.HasRecentDispatch"

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM dispatch_log
			WHERE appointment_id = $1
			AND notification_type = $2
			AND created_at > $3
		)`,
		appointmentID, notificationType, now.Add(-window),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// RecordDispatch appends to the log. Entries are never updated.
func (s *Storage) RecordDispatch(ctx context.Context, entry *models.DispatchLogEntry) error {
	const op = "storage.postgres.RecordDispatch"

	_, err := s.db.ExecContext(ctx, `INSERT INTO dispatch_log
		(id, appointment_id, notification_type, created_at)
		VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.AppointmentID, entry.NotificationType, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### in-app notifications ####

func (s *Storage) CreateInAppNotification(ctx context.Context, n *models.InAppNotification) error {
	const op = "storage.postgres.CreateInAppNotification"

	_, err := s.db.ExecContext(ctx, `INSERT INTO notifications
		(id, user_id, type, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
