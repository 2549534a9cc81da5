package models

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
	AppointmentNoShow     AppointmentStatus = "no_show"
)

// Appointment is the read model owned by the booking subsystem. This
// service only writes status/cancelled_at/cancel_reason (cascade) and
// reminder_sent (final reminder).
type Appointment struct {
	ID           string            `db:"id"`
	BusinessID   string            `db:"business_id"`
	EmployeeID   string            `db:"employee_id"`
	ClientID     string            `db:"client_id"`
	ClientName   string            `db:"client_name"`
	ClientEmail  string            `db:"client_email"`
	ClientPhone  string            `db:"client_phone"`
	StartTime    time.Time         `db:"start_time"`
	EndTime      time.Time         `db:"end_time"`
	Status       AppointmentStatus `db:"status"`
	ReminderSent bool              `db:"reminder_sent"`
	CancelledAt  *time.Time        `db:"cancelled_at"`
	CancelReason string            `db:"cancel_reason"`
}

type AppointmentFilters struct {
	BusinessID *string
	EmployeeID *string
	From       *time.Time
	To         *time.Time
	Status     *string
}

type AbsenceType string

const (
	AbsenceVacation  AbsenceType = "vacation"
	AbsenceEmergency AbsenceType = "emergency"
	AbsenceSickLeave AbsenceType = "sick_leave"
	AbsencePersonal  AbsenceType = "personal"
	AbsenceOther     AbsenceType = "other"
)

type AbsenceStatus string

const (
	AbsencePending   AbsenceStatus = "pending"
	AbsenceApproved  AbsenceStatus = "approved"
	AbsenceRejected  AbsenceStatus = "rejected"
	AbsenceCancelled AbsenceStatus = "cancelled"
)

type AbsenceRequest struct {
	ID         string        `db:"id"`
	EmployeeID string        `db:"employee_id"`
	BusinessID string        `db:"business_id"`
	Type       AbsenceType   `db:"type"`
	StartDate  time.Time     `db:"start_date"`
	EndDate    time.Time     `db:"end_date"`
	Reason     string        `db:"reason"`
	Status     AbsenceStatus `db:"status"`
	Notes      string        `db:"notes"`
	ApprovedBy *string       `db:"approved_by"`
	ApprovedAt *time.Time    `db:"approved_at"`
	CreatedAt  time.Time     `db:"created_at"`
}

// VacationBalance keeps remaining = total_available - used - pending.
type VacationBalance struct {
	EmployeeID     string `db:"employee_id"`
	BusinessID     string `db:"business_id"`
	Year           int    `db:"year"`
	TotalAvailable int    `db:"total_available"`
	Used           int    `db:"used"`
	Pending        int    `db:"pending"`
	Remaining      int    `db:"remaining"`
}

type DispatchLogEntry struct {
	ID               string    `db:"id"`
	AppointmentID    string    `db:"appointment_id"`
	NotificationType string    `db:"notification_type"`
	CreatedAt        time.Time `db:"created_at"`
}

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelInApp    Channel = "inapp"
)

type NotificationType string

const (
	NotifyAppointmentReminder  NotificationType = "appointment_reminder"
	NotifyAppointmentCancelled NotificationType = "appointment_cancelled"
	NotifyAbsenceApproved      NotificationType = "absence_approved"
	NotifyAbsenceRejected      NotificationType = "absence_rejected"
)

type TypeSetting struct {
	Enabled         bool
	AllowedChannels []Channel
}

type NotificationSettings struct {
	BusinessID      string
	EnabledChannels []Channel
	Types           map[NotificationType]TypeSetting
}

// Employee carries the contact fields notification fan-out needs.
type Employee struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
	Phone string `db:"phone"`
}

type InAppNotification struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Type      string    `db:"type"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}
