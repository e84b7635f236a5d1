package appointment

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/domain/appointment/appointmenttest"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/notify"
	"github.com/agendahq/backoffice/internal/usecase/schedule"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Dispatch(ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	repo    *appointmenttest.Repository
	owner   identity.Principal
	pro     identity.Principal
	notify  *recordingNotifier
	metrics *metrics.Metrics
	create  *CreateAppointment
	update  *UpdateStatus
}

// newFixture configures the professional for Mondays 09:00-17:00 in 20 minute slots.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := appointmenttest.New()

	acc := repo.AddAccount(models.Account{Name: "Clinic", Timezone: "UTC"})
	owner := repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleOwner})
	pro := repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleProfessional})

	f := &fixture{
		repo:    repo,
		owner:   identity.Principal{UserID: owner.ID, AccountID: acc.ID, Role: identity.RoleOwner},
		pro:     identity.Principal{UserID: pro.ID, AccountID: acc.ID, Role: identity.RoleProfessional},
		notify:  &recordingNotifier{},
		metrics: metrics.New(),
	}
	f.create = NewCreateAppointment(repo, nil, f.notify, nil, f.metrics, nil)
	f.update = NewUpdateStatus(repo, f.notify, nil, f.metrics)

	f.configure(t, func(*schedule.SaveConfigInput) {})
	return f
}

func (f *fixture) configure(t *testing.T, mutate func(*schedule.SaveConfigInput)) {
	t.Helper()
	in := schedule.SaveConfigInput{
		StartTime:    "09:00",
		EndTime:      "17:00",
		SlotDuration: 20,
		WorkingDays:  sched.NewWorkingDays(sched.Monday),
	}
	mutate(&in)
	_, err := schedule.NewSaveConfig(f.repo, nil).Execute(context.Background(), f.pro, in)
	require.NoError(t, err)
}

func (f *fixture) book(date string) (*models.Appointment, error) {
	return f.create.Execute(context.Background(), f.pro, CreateAppointmentInput{
		Title: "Consultation",
		Date:  date,
	})
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, httperr.CodeOf(err), err.Error())
}

// ======================================================
// Booking validator
// ======================================================

func TestCreate_WindowAndWorkingDay(t *testing.T) {
	f := newFixture(t)

	ap, err := f.book("2025-12-22T09:00:00")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), ap.Status)
	assert.Equal(t, "2025-12-22T09:20:00Z", ap.EndTime.Format("2006-01-02T15:04:05Z07:00"))

	_, err = f.book("2025-12-22T08:59:00")
	requireCode(t, err, domain.ErrOutOfWindow)

	_, err = f.book("2025-12-22T17:00:00")
	requireCode(t, err, domain.ErrOutOfWindow)

	_, err = f.book("2025-12-22T16:40:00")
	require.NoError(t, err)

	_, err = f.book("2025-12-23T10:00:00")
	requireCode(t, err, domain.ErrNonWorkingDay)

	assert.Len(t, f.repo.Appointments(), 2)
}

func TestCreate_NonWorkingDayAnyTime(t *testing.T) {
	f := newFixture(t)

	for _, at := range []string{"00:00", "09:00", "12:30", "16:59", "23:59"} {
		_, err := f.book("2025-12-24T" + at)
		requireCode(t, err, domain.ErrNonWorkingDay)
	}
	assert.Empty(t, f.repo.Appointments())
}

func TestCreate_SlotConflictAndOverbooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.book("2025-12-22T10:00:00")
	require.NoError(t, err)

	_, err = f.book("2025-12-22T10:00:00")
	requireCode(t, err, domain.ErrSlotConflict)

	// interval overlap: 10:10 falls inside [10:00, 10:20)
	_, err = f.book("2025-12-22T10:10:00")
	requireCode(t, err, domain.ErrSlotConflict)

	_, err = f.book("2025-12-22T10:20:00")
	require.NoError(t, err)

	f.configure(t, func(in *schedule.SaveConfigInput) { in.OverbookingAllowed = true })

	_, err = f.book("2025-12-22T10:00:00")
	require.NoError(t, err)

	assert.Len(t, f.repo.Appointments(), 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Bookings.WithLabelValues(domain.ErrSlotConflict)))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Bookings.WithLabelValues("created")))
}

func TestCreate_CancelledReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book("2025-12-22T11:00:00")
	require.NoError(t, err)

	_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: ap.ID, Status: "cancelled"})
	require.NoError(t, err)

	_, err = f.book("2025-12-22T11:00:00")
	assert.NoError(t, err)
}

func TestCreate_Holiday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 2025-12-29 is a Monday.
	_, err := schedule.NewCreateHoliday(f.repo, nil).Execute(ctx, f.pro, schedule.CreateHolidayInput{Date: "2025-12-29"})
	require.NoError(t, err)

	for _, at := range []string{"09:00", "13:00", "16:40"} {
		_, err := f.book("2025-12-29T" + at)
		requireCode(t, err, domain.ErrHoliday)
	}

	f.configure(t, func(in *schedule.SaveConfigInput) { in.AllowBookingOnBlockedDays = true })
	_, err = f.book("2025-12-29T09:00")
	assert.NoError(t, err)
}

func TestCreate_DayOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	save := schedule.NewSaveOverride(f.repo, nil)

	_, err := save.Execute(ctx, f.pro, schedule.SaveOverrideInput{Date: "2025-12-22", Blocked: true})
	require.NoError(t, err)

	_, err = f.book("2025-12-22T09:00")
	requireCode(t, err, domain.ErrDayBlocked)

	end, slot := "12:00", 45
	_, err = save.Execute(ctx, f.pro, schedule.SaveOverrideInput{Date: "2025-12-22", EndTime: &end, SlotDuration: &slot})
	require.NoError(t, err)

	_, err = f.book("2025-12-22T12:00")
	requireCode(t, err, domain.ErrOutOfWindow)

	ap, err := f.book("2025-12-22T11:00")
	require.NoError(t, err)
	assert.Equal(t, 45.0, ap.EndTime.Sub(ap.StartTime).Minutes())
}

func TestCreate_ConfigurationMissing(t *testing.T) {
	f := newFixture(t)
	acc, _ := f.repo.GetAccountByID(context.Background(), f.pro.AccountID)
	other := f.repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleProfessional})

	_, err := f.create.Execute(context.Background(), identity.Principal{
		UserID: other.ID, AccountID: acc.ID, Role: identity.RoleProfessional,
	}, CreateAppointmentInput{Title: "x", Date: "2025-12-22T09:00"})
	requireCode(t, err, domain.ErrConfigurationMissing)
}

func TestCreate_Client(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.repo.AddClient(models.Client{AccountID: f.pro.AccountID, Name: "Ana"})
	foreignAcc := f.repo.AddAccount(models.Account{Name: "Other"})
	theirs := f.repo.AddClient(models.Client{AccountID: foreignAcc.ID, Name: "Bruno"})

	_, err := f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "x", Date: "2025-12-22T09:00", ClientID: &theirs.ID})
	requireCode(t, err, domain.ErrClientNotFound)

	missing := uint(9999)
	_, err = f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "x", Date: "2025-12-22T09:00", ClientID: &missing})
	requireCode(t, err, domain.ErrClientNotFound)

	ap, err := f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "x", Date: "2025-12-22T09:00", ClientID: &mine.ID})
	require.NoError(t, err)
	assert.Equal(t, mine.ID, *ap.ClientID)
}

func TestCreate_RequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "  ", Date: "2025-12-22T09:00"})
	requireCode(t, err, domain.ErrInvalidRequest)

	_, err = f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "x", Date: "tomorrow"})
	requireCode(t, err, domain.ErrInvalidDate)

	_, err = f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "x", Date: "2025-12-22T09:00", Status: "completed"})
	requireCode(t, err, domain.ErrInvalidStatus)

	ap, err := f.create.Execute(ctx, f.pro, CreateAppointmentInput{Title: "x", Date: "2025-12-22T09:00", Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
}

func TestCreate_OnBehalf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.create.Execute(ctx, f.owner, CreateAppointmentInput{
		ProfessionalID: f.pro.UserID,
		Title:          "Walk-in",
		Date:           "2025-12-22T14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, f.pro.UserID, ap.ProfessionalID)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)

	_, err = f.create.Execute(ctx, f.pro, CreateAppointmentInput{
		ProfessionalID: f.owner.UserID,
		Title:          "x",
		Date:           "2025-12-22T14:00",
	})
	requireCode(t, err, domain.ErrNotAuthorized)
}

func TestCreate_RFC3339ConvertedToAccountZone(t *testing.T) {
	f := newFixture(t)

	// 08:30 in UTC-3 is 11:30 UTC.
	ap, err := f.book("2025-12-22T08:30:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, 11, ap.StartTime.Hour())
}

func TestCreate_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.book("2025-12-22T15:00")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if httperr.IsBusiness(err, domain.ErrSlotConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Len(t, f.repo.Appointments(), 1)
}

func TestCreate_EmitsCreatedEvent(t *testing.T) {
	f := newFixture(t)

	ap, err := f.book("2025-12-22T09:40")
	require.NoError(t, err)

	_, err = f.book("2025-12-22T09:40")
	require.Error(t, err)

	require.Equal(t, []string{notify.EventAppointmentCreated}, f.notify.Types())
	assert.Equal(t, ap.ID, f.notify.events[0].AppointmentID)
}

// ======================================================
// State machine
// ======================================================

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book("2025-12-22T09:00")
	require.NoError(t, err)

	got, err := f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: ap.ID, Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)

	_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: ap.ID, Status: "completed"})
	requireCode(t, err, domain.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "confirmed")
	assert.Contains(t, err.Error(), "completed")

	for _, s := range []string{"checked_in", "in_progress", "completed"} {
		_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: ap.ID, Status: s})
		require.NoError(t, err, s)
	}

	for _, s := range domain.AllStatuses {
		_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: ap.ID, Status: string(s)})
		requireCode(t, err, domain.ErrInvalidTransition)
	}

	assert.Equal(t, "completed", f.repo.Appointments()[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("in_progress", "completed")))

	changed := 0
	for _, ev := range f.notify.events {
		if ev.Type == notify.EventAppointmentStatusChanged {
			changed++
		}
	}
	assert.Equal(t, 4, changed)
}

func TestUpdateStatus_NotOwnedLooksMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book("2025-12-22T09:00")
	require.NoError(t, err)

	acc, _ := f.repo.GetAccountByID(ctx, f.pro.AccountID)
	colleague := f.repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleProfessional})
	p := identity.Principal{UserID: colleague.ID, AccountID: acc.ID, Role: identity.RoleProfessional}

	_, err = f.update.Execute(ctx, p, UpdateStatusInput{AppointmentID: ap.ID, Status: "confirmed"})
	requireCode(t, err, domain.ErrNotAuthorized)

	_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: 12345, Status: "confirmed"})
	requireCode(t, err, domain.ErrNotAuthorized)

	_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: ap.ID, Status: "done"})
	requireCode(t, err, domain.ErrInvalidStatus)

	// privileged callers act on the owner's agenda
	got, err := f.update.Execute(ctx, f.owner, UpdateStatusInput{
		ProfessionalID: f.pro.UserID,
		AppointmentID:  ap.ID,
		Status:         "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
}

// ======================================================
// Listing / availability
// ======================================================

func TestList_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2025-12-29T10:00", "2025-12-22T15:00", "2025-12-22T09:00"} {
		_, err := f.book(d)
		require.NoError(t, err)
	}

	list := NewListAppointments(f.repo)

	all, err := list.Execute(ctx, f.pro, ListAppointmentsInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 9, all[0].StartTime.Hour())
	assert.Equal(t, 15, all[1].StartTime.Hour())
	assert.Equal(t, 29, all[2].StartTime.Day())

	_, err = f.update.Execute(ctx, f.pro, UpdateStatusInput{AppointmentID: all[0].ID, Status: "confirmed"})
	require.NoError(t, err)

	day, err := list.Execute(ctx, f.pro, ListAppointmentsInput{From: "2025-12-22", To: "2025-12-22"})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	confirmed, err := list.Execute(ctx, f.pro, ListAppointmentsInput{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, all[0].ID, confirmed[0].ID)

	_, err = list.Execute(ctx, f.pro, ListAppointmentsInput{Status: "bogus"})
	requireCode(t, err, domain.ErrInvalidStatus)

	_, err = list.Execute(ctx, f.pro, ListAppointmentsInput{From: "12/22"})
	requireCode(t, err, domain.ErrInvalidDate)
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configure(t, func(in *schedule.SaveConfigInput) { in.EndTime = "10:00" })

	_, err := f.book("2025-12-22T09:20")
	require.NoError(t, err)

	avail := NewGetAvailability(f.repo)
	got, err := avail.Execute(ctx, f.pro, GetAvailabilityInput{Date: "2025-12-22"})
	require.NoError(t, err)
	require.True(t, got.Bookable)
	require.Len(t, got.Slots, 2)
	assert.Equal(t, 9, got.Slots[0].Start.Hour())
	assert.Equal(t, 0, got.Slots[0].Start.Minute())
	assert.Equal(t, 40, got.Slots[1].Start.Minute())

	closed, err := avail.Execute(ctx, f.pro, GetAvailabilityInput{Date: "2025-12-23"})
	require.NoError(t, err)
	assert.False(t, closed.Bookable)
	assert.Equal(t, string(sched.ReasonNonWorkingDay), closed.Reason)
	assert.Empty(t, closed.Slots)

	f.configure(t, func(in *schedule.SaveConfigInput) {
		in.EndTime = "10:00"
		in.OverbookingAllowed = true
	})
	got, err = avail.Execute(ctx, f.pro, GetAvailabilityInput{Date: "2025-12-22"})
	require.NoError(t, err)
	assert.Len(t, got.Slots, 3)
}

// ======================================================
// Product usage
// ======================================================

func TestProductUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book("2025-12-22T09:00")
	require.NoError(t, err)

	gel := f.repo.AddProduct(models.Product{
		AccountID: f.pro.AccountID,
		Name:      "Gel",
		Price:     decimal.RequireFromString("12.50"),
		Stock:     3,
		Active:    true,
	})

	logUsage := NewLogProductUsage(f.repo, nil)

	entry, err := logUsage.Execute(ctx, f.pro, LogProductUsageInput{AppointmentID: ap.ID, ProductID: gel.ID, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25").Equal(entry.Total()))
	assert.Equal(t, 1, f.repo.Product(gel.ID).Stock)

	_, err = logUsage.Execute(ctx, f.pro, LogProductUsageInput{AppointmentID: ap.ID, ProductID: gel.ID, Quantity: 2})
	requireCode(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, f.repo.Product(gel.ID).Stock)

	_, err = logUsage.Execute(ctx, f.pro, LogProductUsageInput{AppointmentID: ap.ID, ProductID: gel.ID, Quantity: 0})
	requireCode(t, err, domain.ErrInvalidQuantity)

	_, err = logUsage.Execute(ctx, f.pro, LogProductUsageInput{AppointmentID: ap.ID, ProductID: 777, Quantity: 1})
	requireCode(t, err, domain.ErrProductNotFound)

	_, err = logUsage.Execute(ctx, f.pro, LogProductUsageInput{AppointmentID: 777, ProductID: gel.ID, Quantity: 1})
	requireCode(t, err, domain.ErrNotAuthorized)

	logs, err := NewListProductUsage(f.repo).Execute(ctx, f.pro, 0, ap.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Gel", logs[0].ProductName)
	assert.True(t, decimal.RequireFromString("12.50").Equal(logs[0].UnitPrice))
}
