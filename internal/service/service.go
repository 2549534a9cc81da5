package service

import (
	"context"
	"time"

	"reminder-service/internal/lock"
	"reminder-service/internal/models"
	"reminder-service/internal/notify"
	"reminder-service/internal/reminder"
	"reminder-service/internal/schedule"
)

type Service struct {
	store    Store
	locker   lock.Locker
	notifier Notifier
	now      func() time.Time

	lookahead        time.Duration
	toleranceMinutes int
	dedupWindow      time.Duration
	reminderChannels []models.Channel
}

type Options struct {
	Lookahead        time.Duration
	ToleranceMinutes int
	DedupWindow      time.Duration
	Now              func() time.Time
}

func NewService(store Store, locker lock.Locker, notifier Notifier, opts Options) *Service {
	if opts.Lookahead <= 0 {
		opts.Lookahead = reminder.DefaultLookahead
	}
	if opts.ToleranceMinutes <= 0 {
		opts.ToleranceMinutes = reminder.DefaultTolerance
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		store:            store,
		locker:           locker,
		notifier:         notifier,
		now:              opts.Now,
		lookahead:        opts.Lookahead,
		toleranceMinutes: opts.ToleranceMinutes,
		dedupWindow:      opts.DedupWindow,
		reminderChannels: []models.Channel{
			models.ChannelEmail,
			models.ChannelSMS,
			models.ChannelWhatsApp,
			models.ChannelInApp,
		},
	}
}

type Store interface {
	// Appointments (read model; writes limited to cancellation and the
	// reminder_sent flag)
	ListUpcomingAppointments(ctx context.Context, from, to time.Time) ([]*models.Appointment, error)
	ListEmployeeAppointmentsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]*models.Appointment, error)
	ListAppointments(ctx context.Context, filters models.AppointmentFilters) ([]*models.Appointment, error)
	CancelAppointment(ctx context.Context, id, reason string, at time.Time) error
	MarkReminderSent(ctx context.Context, id string) error

	// Employees / employments
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	ListEmployments(ctx context.Context, employeeID string) ([]schedule.Employment, error)

	// Absence requests
	CreateAbsence(ctx context.Context, a *models.AbsenceRequest) error
	GetAbsence(ctx context.Context, id string) (*models.AbsenceRequest, error)
	ListAbsences(ctx context.Context, employeeID, businessID, status *string) ([]*models.AbsenceRequest, error)
	UpdateAbsenceStatus(ctx context.Context, id string, status models.AbsenceStatus, approvedBy *string, notes string, approvedAt *time.Time) error

	// Vacation balances
	GetVacationBalance(ctx context.Context, employeeID, businessID string, year int) (*models.VacationBalance, error)
	AdjustPendingDays(ctx context.Context, employeeID, businessID string, year, delta int) error
	ApplyVacationAccrual(ctx context.Context, absenceID, employeeID, businessID string, year, days int) error

	// Dispatch log
	HasRecentDispatch(ctx context.Context, appointmentID string, notificationType models.NotificationType, now time.Time, window time.Duration) (bool, error)
	RecordDispatch(ctx context.Context, entry *models.DispatchLogEntry) error

	// Business configuration
	GetNotificationSettings(ctx context.Context, businessID string) (*models.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error
	ListReminderOffsets(ctx context.Context, businessIDs []string) (map[string][]int, error)
	UpdateReminderOffsets(ctx context.Context, businessID string, offsets []int) error
}

type Notifier interface {
	Dispatch(ctx context.Context, msg notify.Message, requested []models.Channel, settings models.NotificationSettings) notify.Outcome
}
