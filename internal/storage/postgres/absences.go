package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"reminder-service/internal/models"
	"reminder-service/pkg/response"
)

// #### absence requests ####

func (s *Storage) CreateAbsence(ctx context.Context, a *models.AbsenceRequest) error {
	const op = "storage.postgres.CreateAbsence"

	_, err := s.db.ExecContext(ctx, `INSERT INTO absence_requests
		(id, employee_id, business_id, type, start_date, end_date, reason, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.EmployeeID, a.BusinessID, a.Type, a.StartDate, a.EndDate,
		a.Reason, a.Status, a.Notes, a.CreatedAt,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetAbsence(ctx context.Context, id string) (*models.AbsenceRequest, error) {
	const op = "storage.postgres.GetAbsence"

	var a models.AbsenceRequest
	var notes sql.NullString

	err := s.db.QueryRowContext(ctx, `SELECT id, employee_id, business_id, type,
		start_date, end_date, reason, status, notes, approved_by, approved_at, created_at
		FROM absence_requests WHERE id = $1`, id).
		Scan(&a.ID, &a.EmployeeID, &a.BusinessID, &a.Type, &a.StartDate, &a.EndDate,
			&a.Reason, &a.Status, &notes, &a.ApprovedBy, &a.ApprovedAt, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.Notes = notes.String

	return &a, nil
}

func (s *Storage) ListAbsences(ctx context.Context, employeeID, businessID, status *string) ([]*models.AbsenceRequest, error) {
	const op = "storage.postgres.ListAbsences"

	query := `SELECT id, employee_id, business_id, type, start_date, end_date,
		reason, status, notes, approved_by, approved_at, created_at
		FROM absence_requests WHERE 1=1`
	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if employeeID != nil {
		add(" AND employee_id = $%d", *employeeID)
	}
	if businessID != nil {
		add(" AND business_id = $%d", *businessID)
	}
	if status != nil {
		add(" AND status = $%d", *status)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var absences []*models.AbsenceRequest
	for rows.Next() {
		var a models.AbsenceRequest
		var notes sql.NullString

		err := rows.Scan(&a.ID, &a.EmployeeID, &a.BusinessID, &a.Type, &a.StartDate,
			&a.EndDate, &a.Reason, &a.Status, &notes, &a.ApprovedBy, &a.ApprovedAt, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.Notes = notes.String
		absences = append(absences, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return absences, nil
}

// UpdateAbsenceStatus moves a pending request to a terminal state. The
// status guard in the WHERE clause backstops the service-level check
// against concurrent admins.
func (s *Storage) UpdateAbsenceStatus(ctx context.Context, id string, status models.AbsenceStatus, approvedBy *string, notes string, approvedAt *time.Time) error {
	const op = "storage.postgres.UpdateAbsenceStatus"

	res, err := s.db.ExecContext(ctx, `UPDATE absence_requests
		SET status = $1, approved_by = $2, notes = $3, approved_at = $4
		WHERE id = $5 AND status = 'pending'`,
		status, approvedBy, notes, approvedAt, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	return nil
}

// #### vacation balances ####

func (s *Storage) GetVacationBalance(ctx context.Context, employeeID, businessID string, year int) (*models.VacationBalance, error) {
	const op = "storage.postgres.GetVacationBalance"

	var b models.VacationBalance
	err := s.db.QueryRowContext(ctx, `SELECT employee_id, business_id, year,
		total_available, used, pending, remaining
		FROM vacation_balances
		WHERE employee_id = $1 AND business_id = $2 AND year = $3`,
		employeeID, businessID, year).
		Scan(&b.EmployeeID, &b.BusinessID, &b.Year, &b.TotalAvailable, &b.Used, &b.Pending, &b.Remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func ensureBalanceRow(ctx context.Context, tx *sql.Tx, employeeID, businessID string, year int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO vacation_balances
		(employee_id, business_id, year, total_available, used, pending, remaining)
		VALUES ($1, $2, $3, 0, 0, 0, 0)
		ON CONFLICT (employee_id, business_id, year) DO NOTHING`,
		employeeID, businessID, year,
	)
	return err
}

// AdjustPendingDays moves the pending counter on submission (+days) and
// terminal resolution (-days) of vacation requests. Remaining is kept
// consistent in the same statement.
func (s *Storage) AdjustPendingDays(ctx context.Context, employeeID, businessID string, year, delta int) error {
	const op = "storage.postgres.AdjustPendingDays"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := ensureBalanceRow(ctx, tx, employeeID, businessID, year); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE vacation_balances
		SET pending = GREATEST(pending + $1, 0),
			remaining = total_available - used - GREATEST(pending + $1, 0)
		WHERE employee_id = $2 AND business_id = $3 AND year = $4`,
		delta, employeeID, businessID, year,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// ApplyVacationAccrual applies used days for an approved vacation exactly
// once per absence id. A retry with the same id is a no-op.
func (s *Storage) ApplyVacationAccrual(ctx context.Context, absenceID, employeeID, businessID string, year, days int) error {
	const op = "storage.postgres.ApplyVacationAccrual"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO accrual_log (absence_id, applied_at)
		VALUES ($1, NOW())
		ON CONFLICT (absence_id) DO NOTHING`,
		absenceID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		// already applied for this absence
		return nil
	}

	if err := ensureBalanceRow(ctx, tx, employeeID, businessID, year); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE vacation_balances
		SET used = used + $1,
			pending = GREATEST(pending - $1, 0),
			remaining = total_available - (used + $1) - GREATEST(pending - $1, 0)
		WHERE employee_id = $2 AND business_id = $3 AND year = $4`,
		days, employeeID, businessID, year,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}
