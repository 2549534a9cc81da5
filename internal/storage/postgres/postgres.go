package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"reminder-service/internal/models"
	"reminder-service/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath, migrationsPath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if migrationsPath != "" {
		m, err := migrate.New(migrationsPath, storagePath)
		if err != nil {
			return nil, fmt.Errorf("%s: init migrations: %w", op, err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("%s: apply migrations: %w", op, err)
		}
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### appointments ####

const appointmentColumns = `id, business_id, employee_id, client_id, client_name,
	client_email, client_phone, start_time, end_time, status, reminder_sent,
	cancelled_at, cancel_reason`

func scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	var a models.Appointment
	var cancelReason sql.NullString

	err := row.Scan(
		&a.ID, &a.BusinessID, &a.EmployeeID, &a.ClientID, &a.ClientName,
		&a.ClientEmail, &a.ClientPhone, &a.StartTime, &a.EndTime, &a.Status,
		&a.ReminderSent, &a.CancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	a.CancelReason = cancelReason.String

	return &a, nil
}

// ListUpcomingAppointments returns reminder-eligible appointments whose
// start time falls in [from, to).
func (s *Storage) ListUpcomingAppointments(ctx context.Context, from, to time.Time) ([]*models.Appointment, error) {
	const op = "storage.postgres.ListUpcomingAppointments"

	rows, err := s.db.QueryContext(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed')
		AND start_time >= $1 AND start_time < $2
		ORDER BY start_time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return appts, nil
}

// ListEmployeeAppointmentsInRange returns an employee's not-yet-cancelled
// appointments overlapping [from, to].
func (s *Storage) ListEmployeeAppointmentsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]*models.Appointment, error) {
	const op = "storage.postgres.ListEmployeeAppointmentsInRange"

	rows, err := s.db.QueryContext(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE employee_id = $1
		AND status <> 'cancelled'
		AND start_time >= $2 AND start_time <= $3
		ORDER BY start_time`,
		employeeID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return appts, nil
}

func (s *Storage) ListAppointments(ctx context.Context, filters models.AppointmentFilters) ([]*models.Appointment, error) {
	const op = "storage.postgres.ListAppointments"

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if filters.BusinessID != nil {
		add(" AND business_id = $%d", *filters.BusinessID)
	}
	if filters.EmployeeID != nil {
		add(" AND employee_id = $%d", *filters.EmployeeID)
	}
	if filters.From != nil {
		add(" AND start_time >= $%d", *filters.From)
	}
	if filters.To != nil {
		add(" AND start_time <= $%d", *filters.To)
	}
	if filters.Status != nil {
		add(" AND status = $%d", *filters.Status)
	}

	query += ` ORDER BY start_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return appts, nil
}

// CancelAppointment is a no-op if the appointment is already cancelled.
func (s *Storage) CancelAppointment(ctx context.Context, id, reason string, at time.Time) error {
	const op = "storage.postgres.CancelAppointment"

	res, err := s.db.ExecContext(ctx, `UPDATE appointments
		SET status = 'cancelled', cancelled_at = $1, cancel_reason = $2
		WHERE id = $3 AND status <> 'cancelled'`,
		at, reason, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) MarkReminderSent(ctx context.Context, id string) error {
	const op = "storage.postgres.MarkReminderSent"

	res, err := s.db.ExecContext(ctx, `UPDATE appointments SET reminder_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### employees ####

func (s *Storage) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	const op = "storage.postgres.GetEmployee"

	var e models.Employee
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Email, &e.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &e, nil
}
