package api

import "time"

// Schedule conflict check

type WorkIntervalRequest struct {
	Day     string `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

type ConflictCheckRequest struct {
	EmployeeID string                `json:"employee_id"`
	Schedule   []WorkIntervalRequest `json:"schedule"`
}

type DayOverlapResponse struct {
	Day            string `json:"day"`
	ExistingRange  string `json:"existing_range"`
	CandidateRange string `json:"candidate_range"`
	OverlapRange   string `json:"overlap_range"`
}

type ConflictReportResponse struct {
	EmployerID      string               `json:"employer_id"`
	EmployerName    string               `json:"employer_name"`
	ConflictingDays []string             `json:"conflicting_days"`
	Overlaps        []DayOverlapResponse `json:"overlaps"`
}

type ConflictCheckResponse struct {
	HasConflict bool                     `json:"has_conflict"`
	Conflicts   []ConflictReportResponse `json:"conflicts"`
}

// Reminder sweep

type SweepResult struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	ReminderType  string `json:"reminder_type,omitempty"`
	Error         string `json:"error,omitempty"`
}

type SweepResponse struct {
	AppointmentsChecked int           `json:"appointments_checked"`
	RemindersProcessed  int           `json:"reminders_processed"`
	RemindersSent       int           `json:"reminders_sent"`
	Results             []SweepResult `json:"results"`
}

// Absences

type AbsenceCreateRequest struct {
	EmployeeID string `json:"employee_id"`
	BusinessID string `json:"business_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

type AbsenceResponse struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	BusinessID string     `json:"business_id"`
	Type       string     `json:"type"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AbsenceDecisionRequest struct {
	AdminID string `json:"admin_id"`
	Notes   string `json:"notes,omitempty"`
}

type AbsenceWithdrawRequest struct {
	EmployeeID string `json:"employee_id"`
}

type CancelFailure struct {
	AppointmentID string `json:"appointment_id"`
	Error         string `json:"error"`
}

type AbsenceDecisionResponse struct {
	Success               bool            `json:"success"`
	CancelledAppointments int             `json:"cancelled_appointments"`
	Failed                []CancelFailure `json:"failed,omitempty"`
	Message               string          `json:"message"`
}

// Vacation balance

type VacationBalanceResponse struct {
	EmployeeID     string `json:"employee_id"`
	BusinessID     string `json:"business_id"`
	Year           int    `json:"year"`
	TotalAvailable int    `json:"total_available"`
	Used           int    `json:"used"`
	Pending        int    `json:"pending"`
	Remaining      int    `json:"remaining"`
}

// Appointments (read-only dashboard view)

type AppointmentResponse struct {
	ID           string     `json:"id"`
	BusinessID   string     `json:"business_id"`
	EmployeeID   string     `json:"employee_id"`
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	Status       string     `json:"status"`
	ReminderSent bool       `json:"reminder_sent"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// Notification settings

type TypeSettingPayload struct {
	Enabled         bool     `json:"enabled"`
	AllowedChannels []string `json:"allowed_channels"`
}

type NotificationSettingsPayload struct {
	EnabledChannels []string                      `json:"enabled_channels"`
	Types           map[string]TypeSettingPayload `json:"types"`
}

type ReminderOffsetsRequest struct {
	Offsets []int `json:"offsets"`
}
