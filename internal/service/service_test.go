package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"reminder-service/api"
	"reminder-service/internal/models"
	"reminder-service/internal/notify"
	"reminder-service/internal/schedule"
	"reminder-service/pkg/response"
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

// #### fakes ####

type fakeStore struct {
	appointments map[string]*models.Appointment
	absences     map[string]*models.AbsenceRequest
	balances     map[string]*models.VacationBalance
	accruals     map[string]bool
	dispatches   []models.DispatchLogEntry
	offsets      map[string][]int
	settings     map[string]*models.NotificationSettings
	employees    map[string]*models.Employee
	employments  []schedule.Employment

	employmentsErr error
	upcomingErr    error
	rangeErr       error
	cancelErrs     map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appointments: make(map[string]*models.Appointment),
		absences:     make(map[string]*models.AbsenceRequest),
		balances:     make(map[string]*models.VacationBalance),
		accruals:     make(map[string]bool),
		offsets:      make(map[string][]int),
		settings:     make(map[string]*models.NotificationSettings),
		employees:    make(map[string]*models.Employee),
		cancelErrs:   make(map[string]error),
	}
}

func balanceKey(employeeID, businessID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", employeeID, businessID, year)
}

func (f *fakeStore) ListUpcomingAppointments(_ context.Context, from, to time.Time) ([]*models.Appointment, error) {
	if f.upcomingErr != nil {
		return nil, f.upcomingErr
	}
	var out []*models.Appointment
	for _, a := range f.appointments {
		if (a.Status == models.AppointmentScheduled || a.Status == models.AppointmentConfirmed) &&
			!a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListEmployeeAppointmentsInRange(_ context.Context, employeeID string, from, to time.Time) ([]*models.Appointment, error) {
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	var out []*models.Appointment
	for _, a := range f.appointments {
		if a.EmployeeID == employeeID && a.Status != models.AppointmentCancelled &&
			!a.StartTime.Before(from) && !a.StartTime.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAppointments(_ context.Context, _ models.AppointmentFilters) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, a := range f.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) CancelAppointment(_ context.Context, id, reason string, at time.Time) error {
	if err := f.cancelErrs[id]; err != nil {
		return err
	}
	a, ok := f.appointments[id]
	if !ok {
		return response.ErrNotFound
	}
	a.Status = models.AppointmentCancelled
	a.CancelledAt = &at
	a.CancelReason = reason
	return nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, id string) error {
	a, ok := f.appointments[id]
	if !ok {
		return response.ErrNotFound
	}
	a.ReminderSent = true
	return nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id string) (*models.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) ListEmployments(_ context.Context, _ string) ([]schedule.Employment, error) {
	if f.employmentsErr != nil {
		return nil, f.employmentsErr
	}
	return f.employments, nil
}

func (f *fakeStore) CreateAbsence(_ context.Context, a *models.AbsenceRequest) error {
	cp := *a
	f.absences[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetAbsence(_ context.Context, id string) (*models.AbsenceRequest, error) {
	a, ok := f.absences[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) ListAbsences(_ context.Context, _, _, _ *string) ([]*models.AbsenceRequest, error) {
	var out []*models.AbsenceRequest
	for _, a := range f.absences {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) UpdateAbsenceStatus(_ context.Context, id string, status models.AbsenceStatus, approvedBy *string, notes string, approvedAt *time.Time) error {
	a, ok := f.absences[id]
	if !ok {
		return response.ErrNotFound
	}
	if a.Status != models.AbsencePending {
		return response.ErrInvalidState
	}
	a.Status = status
	a.ApprovedBy = approvedBy
	a.Notes = notes
	a.ApprovedAt = approvedAt
	return nil
}

func (f *fakeStore) GetVacationBalance(_ context.Context, employeeID, businessID string, year int) (*models.VacationBalance, error) {
	b, ok := f.balances[balanceKey(employeeID, businessID, year)]
	if !ok {
		return nil, response.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ensureBalance(employeeID, businessID string, year int) *models.VacationBalance {
	key := balanceKey(employeeID, businessID, year)
	b, ok := f.balances[key]
	if !ok {
		b = &models.VacationBalance{EmployeeID: employeeID, BusinessID: businessID, Year: year}
		f.balances[key] = b
	}
	return b
}

func (f *fakeStore) AdjustPendingDays(_ context.Context, employeeID, businessID string, year, delta int) error {
	b := f.ensureBalance(employeeID, businessID, year)
	b.Pending += delta
	if b.Pending < 0 {
		b.Pending = 0
	}
	b.Remaining = b.TotalAvailable - b.Used - b.Pending
	return nil
}

func (f *fakeStore) ApplyVacationAccrual(_ context.Context, absenceID, employeeID, businessID string, year, days int) error {
	if f.accruals[absenceID] {
		return nil
	}
	f.accruals[absenceID] = true

	b := f.ensureBalance(employeeID, businessID, year)
	b.Used += days
	b.Pending -= days
	if b.Pending < 0 {
		b.Pending = 0
	}
	b.Remaining = b.TotalAvailable - b.Used - b.Pending
	return nil
}

func (f *fakeStore) HasRecentDispatch(_ context.Context, appointmentID string, notificationType models.NotificationType, now time.Time, window time.Duration) (bool, error) {
	for _, e := range f.dispatches {
		if e.AppointmentID == appointmentID && e.NotificationType == string(notificationType) &&
			e.CreatedAt.After(now.Add(-window)) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) RecordDispatch(_ context.Context, entry *models.DispatchLogEntry) error {
	f.dispatches = append(f.dispatches, *entry)
	return nil
}

func (f *fakeStore) GetNotificationSettings(_ context.Context, businessID string) (*models.NotificationSettings, error) {
	s, ok := f.settings[businessID]
	if !ok {
		return nil, response.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) UpdateNotificationSettings(_ context.Context, settings *models.NotificationSettings) error {
	f.settings[settings.BusinessID] = settings
	return nil
}

func (f *fakeStore) ListReminderOffsets(_ context.Context, _ []string) (map[string][]int, error) {
	return f.offsets, nil
}

func (f *fakeStore) UpdateReminderOffsets(_ context.Context, businessID string, offsets []int) error {
	f.offsets[businessID] = offsets
	return nil
}

type fakeLocker struct {
	denied bool
}

func (f *fakeLocker) Lock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return !f.denied, nil
}

func (f *fakeLocker) Unlock(_ context.Context, _ string) error { return nil }

type dispatched struct {
	msg       notify.Message
	requested []models.Channel
}

type fakeNotifier struct {
	outcome notify.Outcome
	calls   []dispatched
}

func (f *fakeNotifier) Dispatch(_ context.Context, msg notify.Message, requested []models.Channel, _ models.NotificationSettings) notify.Outcome {
	f.calls = append(f.calls, dispatched{msg: msg, requested: requested})
	if f.outcome.Status == "" {
		return notify.Outcome{Status: notify.StatusSent, Sent: requested}
	}
	return f.outcome
}

func allChannelSettings() *models.NotificationSettings {
	all := []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelWhatsApp, models.ChannelInApp}
	types := make(map[models.NotificationType]models.TypeSetting)
	for _, typ := range []models.NotificationType{
		models.NotifyAppointmentReminder,
		models.NotifyAppointmentCancelled,
		models.NotifyAbsenceApproved,
		models.NotifyAbsenceRejected,
	} {
		types[typ] = models.TypeSetting{Enabled: true, AllowedChannels: all}
	}
	return &models.NotificationSettings{BusinessID: "biz1", EnabledChannels: all, Types: types}
}

func newTestService(store *fakeStore, notifier *fakeNotifier, now time.Time) *Service {
	return NewService(store, &fakeLocker{}, notifier, Options{Now: func() time.Time { return now }})
}

// #### sweep ####

func TestRunSweepFiresOnceThenDedups(t *testing.T) {
	store := newFakeStore()
	store.settings["biz1"] = allChannelSettings()
	store.offsets["biz1"] = []int{1440}
	store.appointments["a1"] = &models.Appointment{
		ID: "a1", BusinessID: "biz1", ClientID: "c1", ClientEmail: "c@x.io",
		StartTime: testNow.Add(24 * time.Hour), Status: models.AppointmentScheduled,
	}

	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, testNow)

	resp, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if resp.RemindersSent != 1 || resp.RemindersProcessed != 1 {
		t.Fatalf("first sweep: sent=%d processed=%d", resp.RemindersSent, resp.RemindersProcessed)
	}
	if store.appointments["a1"].ReminderSent {
		t.Fatal("24h tier must not set reminder_sent")
	}

	// one minute later, still within tolerance; the dedup window blocks it
	svc2 := newTestService(store, notifier, testNow.Add(time.Minute))
	resp, err = svc2.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if resp.RemindersSent != 0 {
		t.Fatalf("second sweep must not re-fire, sent=%d", resp.RemindersSent)
	}
	if len(resp.Results) != 1 || resp.Results[0].Status != sweepResultSkipped {
		t.Fatalf("second sweep results: %+v", resp.Results)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.calls))
	}
}

func TestRunSweepFinalTierMarksReminderSent(t *testing.T) {
	store := newFakeStore()
	store.settings["biz1"] = allChannelSettings()
	store.offsets["biz1"] = []int{60}

	// at the offset point: fires and marks terminal
	store.appointments["a1"] = &models.Appointment{
		ID: "a1", BusinessID: "biz1", ClientID: "c1",
		StartTime: testNow.Add(60 * time.Minute), Status: models.AppointmentConfirmed,
	}
	// 61 minutes out: not due yet
	store.appointments["a2"] = &models.Appointment{
		ID: "a2", BusinessID: "biz1", ClientID: "c2",
		StartTime: testNow.Add(61 * time.Minute), Status: models.AppointmentScheduled,
	}

	svc := newTestService(store, &fakeNotifier{}, testNow)

	resp, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if resp.RemindersSent != 1 {
		t.Fatalf("sent=%d, want 1", resp.RemindersSent)
	}
	if !store.appointments["a1"].ReminderSent {
		t.Fatal("final tier must set reminder_sent")
	}
	if store.appointments["a2"].ReminderSent {
		t.Fatal("a2 is not due yet")
	}
}

func TestRunSweepFetchFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.upcomingErr = errors.New("db down")

	svc := newTestService(store, &fakeNotifier{}, testNow)

	_, err := svc.RunSweep(context.Background())
	if !errors.Is(err, response.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestRunSweepSendFailureDoesNotAbort(t *testing.T) {
	store := newFakeStore()
	store.settings["biz1"] = allChannelSettings()
	store.offsets["biz1"] = []int{60}
	store.appointments["a1"] = &models.Appointment{
		ID: "a1", BusinessID: "biz1", StartTime: testNow.Add(60 * time.Minute), Status: models.AppointmentScheduled,
	}
	store.appointments["a2"] = &models.Appointment{
		ID: "a2", BusinessID: "biz1", StartTime: testNow.Add(57 * time.Minute), Status: models.AppointmentScheduled,
	}

	notifier := &fakeNotifier{outcome: notify.Outcome{
		Status: notify.StatusFailed,
		Errors: map[models.Channel]error{models.ChannelEmail: errors.New("provider down")},
	}}
	svc := newTestService(store, notifier, testNow)

	resp, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("both appointments must be processed, got %d results", len(resp.Results))
	}
	for _, r := range resp.Results {
		if r.Status != sweepResultFailed {
			t.Fatalf("result = %+v, want failed", r)
		}
	}
	if len(store.dispatches) != 0 {
		t.Fatal("failed sends must not be logged, so the next sweep retries")
	}
	if store.appointments["a1"].ReminderSent {
		t.Fatal("failed send must not mark reminder_sent")
	}
}

// #### absence cascade ####

func seedAbsence(store *fakeStore, typ models.AbsenceType) *models.AbsenceRequest {
	a := &models.AbsenceRequest{
		ID:         "abs1",
		EmployeeID: "emp1",
		BusinessID: "biz1",
		Type:       typ,
		StartDate:  time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		Status:     models.AbsencePending,
	}
	store.absences[a.ID] = a
	store.employees["emp1"] = &models.Employee{ID: "emp1", Name: "Pat", Email: "pat@x.io"}
	store.settings["biz1"] = allChannelSettings()
	return a
}

func TestApproveAbsenceCascadesCancellations(t *testing.T) {
	store := newFakeStore()
	seedAbsence(store, models.AbsenceVacation)

	inRange := func(id string, day int) *models.Appointment {
		return &models.Appointment{
			ID: id, BusinessID: "biz1", EmployeeID: "emp1", ClientID: "c-" + id,
			StartTime: time.Date(2025, 6, day, 10, 0, 0, 0, time.UTC),
			Status:    models.AppointmentScheduled,
		}
	}
	store.appointments["in1"] = inRange("in1", 3)
	store.appointments["in2"] = inRange("in2", 5)
	store.appointments["outside"] = inRange("outside", 9)
	already := inRange("done", 4)
	already.Status = models.AppointmentCancelled
	store.appointments["done"] = already

	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, testNow)

	resp, err := svc.ApproveAbsence(context.Background(), "abs1", "admin1", "ok")
	if err != nil {
		t.Fatalf("ApproveAbsence: %v", err)
	}
	if !resp.Success || resp.CancelledAppointments != 2 {
		t.Fatalf("resp = %+v, want 2 cancellations", resp)
	}

	if store.appointments["in1"].Status != models.AppointmentCancelled ||
		store.appointments["in2"].Status != models.AppointmentCancelled {
		t.Fatal("in-range appointments must be cancelled")
	}
	if store.appointments["outside"].Status == models.AppointmentCancelled {
		t.Fatal("appointment outside the range must be untouched")
	}

	if store.absences["abs1"].Status != models.AbsenceApproved {
		t.Fatalf("absence status = %s", store.absences["abs1"].Status)
	}

	// 3 inclusive days accrued for the vacation
	b := store.balances[balanceKey("emp1", "biz1", 2025)]
	if b == nil || b.Used != 3 {
		t.Fatalf("balance = %+v, want used=3", b)
	}

	// 2 client cancellations + 1 employee outcome notification
	if len(notifier.calls) != 3 {
		t.Fatalf("notifier calls = %d, want 3", len(notifier.calls))
	}
}

func TestApproveAbsenceAccrualIsIdempotent(t *testing.T) {
	store := newFakeStore()
	a := seedAbsence(store, models.AbsenceVacation)

	svc := newTestService(store, &fakeNotifier{}, testNow)

	if _, err := svc.ApproveAbsence(context.Background(), a.ID, "admin1", ""); err != nil {
		t.Fatalf("ApproveAbsence: %v", err)
	}

	used := store.balances[balanceKey("emp1", "biz1", 2025)].Used

	// a caller retry of the accrual with the same absence id is a no-op
	if err := store.ApplyVacationAccrual(context.Background(), a.ID, "emp1", "biz1", 2025, 3); err != nil {
		t.Fatalf("retry accrual: %v", err)
	}
	if got := store.balances[balanceKey("emp1", "biz1", 2025)].Used; got != used {
		t.Fatalf("used changed on retry: %d -> %d", used, got)
	}
}

func TestApproveAbsenceEnumerationFailureStillAccrues(t *testing.T) {
	store := newFakeStore()
	a := seedAbsence(store, models.AbsenceVacation)
	store.ensureBalance("emp1", "biz1", 2025).TotalAvailable = 20
	if err := store.AdjustPendingDays(context.Background(), "emp1", "biz1", 2025, 3); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	store.rangeErr = errors.New("db down")

	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, testNow)

	resp, err := svc.ApproveAbsence(context.Background(), a.ID, "admin1", "")
	if err != nil {
		t.Fatalf("ApproveAbsence: %v", err)
	}
	if !resp.Success || resp.CancelledAppointments != 0 {
		t.Fatalf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Message, "enumerate") {
		t.Fatalf("message = %q, want enumeration failure reported", resp.Message)
	}

	// the balance still resolves: 3 days move from pending to used
	b := store.balances[balanceKey("emp1", "biz1", 2025)]
	if b.Used != 3 || b.Pending != 0 || b.Remaining != 17 {
		t.Fatalf("balance = %+v, want used=3 pending=0 remaining=17", b)
	}

	// employee outcome notification still goes out
	if len(notifier.calls) != 1 || notifier.calls[0].msg.Type != models.NotifyAbsenceApproved {
		t.Fatalf("notifier calls = %+v", notifier.calls)
	}
}

func TestApproveAbsenceCascadeDedupsClientNotifications(t *testing.T) {
	store := newFakeStore()
	seedAbsence(store, models.AbsencePersonal)

	inRange := func(id string, day int) *models.Appointment {
		return &models.Appointment{
			ID: id, BusinessID: "biz1", EmployeeID: "emp1", ClientID: "c-" + id,
			StartTime: time.Date(2025, 6, day, 10, 0, 0, 0, time.UTC),
			Status:    models.AppointmentScheduled,
		}
	}
	store.appointments["in1"] = inRange("in1", 3)
	store.appointments["in2"] = inRange("in2", 4)

	// in1's client was already told about a cancellation moments ago
	store.dispatches = append(store.dispatches, models.DispatchLogEntry{
		ID:               "d0",
		AppointmentID:    "in1",
		NotificationType: string(models.NotifyAppointmentCancelled),
		CreatedAt:        testNow.Add(-time.Minute),
	})

	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, testNow)

	resp, err := svc.ApproveAbsence(context.Background(), "abs1", "admin1", "")
	if err != nil {
		t.Fatalf("ApproveAbsence: %v", err)
	}
	if resp.CancelledAppointments != 2 {
		t.Fatalf("resp = %+v, want 2 cancellations", resp)
	}

	// 1 client notification (in2 only) + 1 employee outcome notification
	if len(notifier.calls) != 2 {
		t.Fatalf("notifier calls = %d, want 2", len(notifier.calls))
	}
	for _, c := range notifier.calls {
		if c.msg.Type == models.NotifyAppointmentCancelled && c.msg.Recipient.UserID != "c-in2" {
			t.Fatalf("cancellation dispatched to %q, want c-in2 only", c.msg.Recipient.UserID)
		}
	}

	// in2's dispatch is logged for future dedup, in1 gains no new entry
	var in1, in2 int
	for _, e := range store.dispatches {
		if e.NotificationType != string(models.NotifyAppointmentCancelled) {
			continue
		}
		switch e.AppointmentID {
		case "in1":
			in1++
		case "in2":
			in2++
		}
	}
	if in1 != 1 || in2 != 1 {
		t.Fatalf("dispatch log entries: in1=%d in2=%d, want 1 each", in1, in2)
	}
}

func TestApproveAbsenceInvalidState(t *testing.T) {
	store := newFakeStore()
	a := seedAbsence(store, models.AbsencePersonal)
	a.Status = models.AbsenceApproved

	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, testNow)

	_, err := svc.ApproveAbsence(context.Background(), a.ID, "admin1", "")
	if !errors.Is(err, response.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatal("no notifications on aborted approval")
	}
}

func TestApproveAbsencePartialFailure(t *testing.T) {
	store := newFakeStore()
	seedAbsence(store, models.AbsenceSickLeave)

	store.appointments["ok"] = &models.Appointment{
		ID: "ok", BusinessID: "biz1", EmployeeID: "emp1",
		StartTime: time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
		Status:    models.AppointmentScheduled,
	}
	store.appointments["bad"] = &models.Appointment{
		ID: "bad", BusinessID: "biz1", EmployeeID: "emp1",
		StartTime: time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC),
		Status:    models.AppointmentScheduled,
	}
	store.cancelErrs["bad"] = errors.New("write conflict")

	svc := newTestService(store, &fakeNotifier{}, testNow)

	resp, err := svc.ApproveAbsence(context.Background(), "abs1", "admin1", "")
	if err != nil {
		t.Fatalf("partial failure must not raise: %v", err)
	}
	if !resp.Success {
		t.Fatal("operation reports success once the transition committed")
	}
	if resp.CancelledAppointments != 1 || len(resp.Failed) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Failed[0].AppointmentID != "bad" {
		t.Fatalf("failed entry = %+v", resp.Failed[0])
	}
	if store.absences["abs1"].Status != models.AbsenceApproved {
		t.Fatal("approval must not roll back on cancellation failure")
	}
}

func TestRejectAbsenceNoCascade(t *testing.T) {
	store := newFakeStore()
	seedAbsence(store, models.AbsenceVacation)
	store.appointments["a1"] = &models.Appointment{
		ID: "a1", BusinessID: "biz1", EmployeeID: "emp1",
		StartTime: time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
		Status:    models.AppointmentScheduled,
	}
	store.balances[balanceKey("emp1", "biz1", 2025)] = &models.VacationBalance{
		EmployeeID: "emp1", BusinessID: "biz1", Year: 2025,
		TotalAvailable: 20, Pending: 3, Remaining: 17,
	}

	svc := newTestService(store, &fakeNotifier{}, testNow)

	resp, err := svc.RejectAbsence(context.Background(), "abs1", "admin1", "busy week")
	if err != nil {
		t.Fatalf("RejectAbsence: %v", err)
	}
	if !resp.Success {
		t.Fatalf("resp = %+v", resp)
	}
	if store.appointments["a1"].Status != models.AppointmentScheduled {
		t.Fatal("reject must not cancel appointments")
	}
	if store.absences["abs1"].Status != models.AbsenceRejected {
		t.Fatalf("status = %s", store.absences["abs1"].Status)
	}

	b := store.balances[balanceKey("emp1", "biz1", 2025)]
	if b.Pending != 0 || b.Used != 0 || b.Remaining != 20 {
		t.Fatalf("balance after reject = %+v", b)
	}
}

func TestApproveAbsenceLocked(t *testing.T) {
	store := newFakeStore()
	seedAbsence(store, models.AbsenceVacation)

	svc := NewService(store, &fakeLocker{denied: true}, &fakeNotifier{}, Options{Now: func() time.Time { return testNow }})

	_, err := svc.ApproveAbsence(context.Background(), "abs1", "admin1", "")
	if !errors.Is(err, response.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestSubmitAndWithdrawVacation(t *testing.T) {
	store := newFakeStore()
	store.employees["emp1"] = &models.Employee{ID: "emp1"}

	svc := newTestService(store, &fakeNotifier{}, testNow)

	created, err := svc.SubmitAbsence(context.Background(), &api.AbsenceCreateRequest{
		EmployeeID: "emp1",
		BusinessID: "biz1",
		Type:       "vacation",
		StartDate:  "2025-07-01",
		EndDate:    "2025-07-05",
		Reason:     "summer",
	})
	if err != nil {
		t.Fatalf("SubmitAbsence: %v", err)
	}
	if created.Status != string(models.AbsencePending) {
		t.Fatalf("status = %s", created.Status)
	}

	b := store.balances[balanceKey("emp1", "biz1", 2025)]
	if b == nil || b.Pending != 5 {
		t.Fatalf("pending after submit = %+v, want 5", b)
	}

	if _, err := svc.WithdrawAbsence(context.Background(), created.ID, "other"); !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("foreign withdraw: %v", err)
	}

	withdrawn, err := svc.WithdrawAbsence(context.Background(), created.ID, "emp1")
	if err != nil {
		t.Fatalf("WithdrawAbsence: %v", err)
	}
	if withdrawn.Status != string(models.AbsenceCancelled) {
		t.Fatalf("status = %s", withdrawn.Status)
	}
	if b.Pending != 0 {
		t.Fatalf("pending after withdraw = %d", b.Pending)
	}

	if _, err := svc.WithdrawAbsence(context.Background(), created.ID, "emp1"); !errors.Is(err, response.ErrInvalidState) {
		t.Fatalf("second withdraw: %v", err)
	}
}

func TestSubmitAbsenceValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, testNow)

	_, err := svc.SubmitAbsence(context.Background(), &api.AbsenceCreateRequest{
		Type: "holiday", StartDate: "2025-07-01", EndDate: "2025-07-02",
	})
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("bad type: %v", err)
	}

	_, err = svc.SubmitAbsence(context.Background(), &api.AbsenceCreateRequest{
		Type: "vacation", StartDate: "2025-07-05", EndDate: "2025-07-01",
	})
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("reversed dates: %v", err)
	}

	_, err = svc.SubmitAbsence(context.Background(), &api.AbsenceCreateRequest{
		Type: "vacation", StartDate: "07/01/2025", EndDate: "2025-07-02",
	})
	if !errors.Is(err, response.ErrParse) {
		t.Fatalf("malformed date: %v", err)
	}
}

// #### conflict check ####

func TestCheckConflictFetchFailure(t *testing.T) {
	store := newFakeStore()
	store.employmentsErr = errors.New("upstream 500")

	svc := newTestService(store, &fakeNotifier{}, testNow)

	_, err := svc.CheckConflict(context.Background(), &api.ConflictCheckRequest{
		EmployeeID: "emp1",
		Schedule: []api.WorkIntervalRequest{
			{Day: "monday", Start: "09:00", End: "17:00", Enabled: true},
		},
	})
	if !errors.Is(err, response.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestCheckConflictEndToEnd(t *testing.T) {
	store := newFakeStore()

	existing := schedule.Employment{EmployerID: "biz2", EmployerName: "Second Shop"}
	for i, d := range schedule.WeekOrder {
		existing.Schedule[i] = schedule.WorkInterval{Day: d}
	}
	existing.Schedule[0] = schedule.WorkInterval{Day: time.Monday, StartMinute: 600, EndMinute: 900, Enabled: true}
	store.employments = []schedule.Employment{existing}

	svc := newTestService(store, &fakeNotifier{}, testNow)

	resp, err := svc.CheckConflict(context.Background(), &api.ConflictCheckRequest{
		EmployeeID: "emp1",
		Schedule: []api.WorkIntervalRequest{
			{Day: "monday", Start: "09:00", End: "12:00", Enabled: true},
			{Day: "tuesday", Start: "09:00", End: "12:00", Enabled: true},
		},
	})
	if err != nil {
		t.Fatalf("CheckConflict: %v", err)
	}
	if !resp.HasConflict || len(resp.Conflicts) != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	ov := resp.Conflicts[0].Overlaps[0]
	if ov.Day != "monday" || ov.OverlapRange != "10:00-12:00" {
		t.Fatalf("overlap = %+v", ov)
	}
}

func TestCheckConflictRejectsMalformedTimes(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, testNow)

	_, err := svc.CheckConflict(context.Background(), &api.ConflictCheckRequest{
		EmployeeID: "emp1",
		Schedule: []api.WorkIntervalRequest{
			{Day: "monday", Start: "9am", End: "17:00", Enabled: true},
		},
	})
	if !errors.Is(err, response.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	_, err = svc.CheckConflict(context.Background(), &api.ConflictCheckRequest{
		EmployeeID: "emp1",
		Schedule: []api.WorkIntervalRequest{
			{Day: "monday", Start: "17:00", End: "09:00", Enabled: true},
		},
	})
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for reversed range, got %v", err)
	}
}

func TestCheckConflictSkipsDisabledDayTimes(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, testNow)

	// a disabled day never conflicts, its times are not even parsed
	resp, err := svc.CheckConflict(context.Background(), &api.ConflictCheckRequest{
		EmployeeID: "emp1",
		Schedule: []api.WorkIntervalRequest{
			{Day: "monday", Start: "09:00", End: "17:00", Enabled: true},
			{Day: "sunday", Start: "", End: "", Enabled: false},
		},
	})
	if err != nil {
		t.Fatalf("CheckConflict: %v", err)
	}
	if resp.HasConflict {
		t.Fatalf("resp = %+v, want no conflict", resp)
	}
}

// #### offsets ####

func TestUpdateReminderOffsetsValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, testNow)

	if err := svc.UpdateReminderOffsets(context.Background(), "biz1", []int{1440, 60, 15}); err != nil {
		t.Fatalf("valid offsets rejected: %v", err)
	}

	err := svc.UpdateReminderOffsets(context.Background(), "biz1", []int{60, 65})
	if !errors.Is(err, response.ErrOffsetsTooClose) {
		t.Fatalf("expected ErrOffsetsTooClose, got %v", err)
	}
}
