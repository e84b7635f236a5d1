package schedule

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/domain/appointment/appointmenttest"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
)

type fixture struct {
	repo  *appointmenttest.Repository
	owner identity.Principal
	pro   identity.Principal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := appointmenttest.New()

	acc := repo.AddAccount(models.Account{Name: "Clinic", Timezone: "UTC"})
	owner := repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleOwner})
	pro := repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleProfessional})

	return fixture{
		repo:  repo,
		owner: identity.Principal{UserID: owner.ID, AccountID: acc.ID, Role: identity.RoleOwner},
		pro:   identity.Principal{UserID: pro.ID, AccountID: acc.ID, Role: identity.RoleProfessional},
	}
}

func validConfig() SaveConfigInput {
	return SaveConfigInput{
		StartTime:    "09:00",
		EndTime:      "17:00",
		SlotDuration: 20,
		WorkingDays:  sched.NewWorkingDays(sched.Monday),
	}
}

func TestSaveConfig_LazyCreateThenUpdateInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := NewSaveConfig(f.repo, nil)

	first, err := uc.Execute(ctx, f.pro, validConfig())
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	in := validConfig()
	in.SlotDuration = 30
	in.WorkingDays = sched.WorkingDays{sched.Friday, sched.Monday, sched.Friday}
	second, err := uc.Execute(ctx, f.pro, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 30, second.SlotDuration)
	assert.Equal(t, sched.WorkingDays{sched.Monday, sched.Friday}, second.WorkingDays)

	got, err := NewGetConfig(f.repo).Execute(ctx, f.pro, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, got.SlotDuration)
}

func TestSaveConfig_Validation(t *testing.T) {
	f := newFixture(t)
	uc := NewSaveConfig(f.repo, nil)

	tests := map[string]func(*SaveConfigInput){
		"bad start":        func(in *SaveConfigInput) { in.StartTime = "9" },
		"bad end":          func(in *SaveConfigInput) { in.EndTime = "25:00" },
		"start after end":  func(in *SaveConfigInput) { in.StartTime = "18:00" },
		"start equals end": func(in *SaveConfigInput) { in.EndTime = "09:00" },
		"slot too short":   func(in *SaveConfigInput) { in.SlotDuration = 4 },
		"slot too long":    func(in *SaveConfigInput) { in.SlotDuration = 481 },
		"negative reminder": func(in *SaveConfigInput) {
			in.ReminderOffset = -1
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := validConfig()
			mutate(&in)
			_, err := uc.Execute(context.Background(), f.pro, in)
			assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidRequest), err)
		})
	}
}

func TestSaveConfig_OnlyPrivilegedMayTargetOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := NewSaveConfig(f.repo, nil)

	in := validConfig()
	in.ProfessionalID = f.owner.UserID
	_, err := uc.Execute(ctx, f.pro, in)
	assert.True(t, httperr.IsBusiness(err, domain.ErrNotAuthorized))

	in.ProfessionalID = f.pro.UserID
	cfg, err := uc.Execute(ctx, f.owner, in)
	require.NoError(t, err)
	assert.Equal(t, f.pro.UserID, cfg.ProfessionalID)
}

func TestSaveConfig_OtherAccountIsNotAuthorized(t *testing.T) {
	f := newFixture(t)
	other := f.repo.AddAccount(models.Account{Name: "Other"})
	stranger := f.repo.AddUser(models.User{AccountID: other.ID})

	in := validConfig()
	in.ProfessionalID = stranger.ID
	_, err := NewSaveConfig(f.repo, nil).Execute(context.Background(), f.owner, in)
	assert.True(t, httperr.IsBusiness(err, domain.ErrNotAuthorized))
}

func TestSaveConfig_Audited(t *testing.T) {
	f := newFixture(t)
	w := &audit.MemoryWriter{}
	d := audit.NewDispatcher(w, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := NewSaveConfig(f.repo, d).Execute(context.Background(), f.pro, validConfig())
	require.NoError(t, err)

	d.Close()
	assert.Equal(t, []string{"schedule_config_saved"}, w.Actions())
}

func TestResolveDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resolve := NewResolveDay(f.repo)

	_, err := resolve.Execute(ctx, f.pro, ResolveDayInput{Date: "2025-12-22"})
	assert.True(t, httperr.IsBusiness(err, domain.ErrConfigurationMissing))

	_, err = NewSaveConfig(f.repo, nil).Execute(ctx, f.pro, validConfig())
	require.NoError(t, err)

	_, err = resolve.Execute(ctx, f.pro, ResolveDayInput{Date: "22/12/2025"})
	assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidDate))

	res, err := resolve.Execute(ctx, f.pro, ResolveDayInput{Date: "2025-12-22"})
	require.NoError(t, err)
	assert.True(t, res.Bookable)
	assert.Equal(t, sched.Clock(9*60), res.Window.Start)

	res, err = resolve.Execute(ctx, f.pro, ResolveDayInput{Date: "2025-12-23"})
	require.NoError(t, err)
	assert.Equal(t, sched.ReasonNonWorkingDay, res.Reason)
}

func TestResolveDay_HolidayAndOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewSaveConfig(f.repo, nil).Execute(ctx, f.pro, validConfig())
	require.NoError(t, err)

	_, err = NewCreateHoliday(f.repo, nil).Execute(ctx, f.pro, CreateHolidayInput{Date: "2025-12-22", Reason: "closed"})
	require.NoError(t, err)

	res, err := NewResolveDay(f.repo).Execute(ctx, f.pro, ResolveDayInput{Date: "2025-12-22"})
	require.NoError(t, err)
	assert.Equal(t, sched.ReasonHoliday, res.Reason)

	start := "12:00"
	_, err = NewSaveOverride(f.repo, nil).Execute(ctx, f.pro, SaveOverrideInput{Date: "2025-12-29", StartTime: &start})
	require.NoError(t, err)

	res, err = NewResolveDay(f.repo).Execute(ctx, f.pro, ResolveDayInput{Date: "2025-12-29"})
	require.NoError(t, err)
	require.True(t, res.Bookable)
	assert.Equal(t, sched.Clock(12*60), res.Window.Start)
}

func TestHolidays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	create := NewCreateHoliday(f.repo, nil)

	_, err := create.Execute(ctx, f.pro, CreateHolidayInput{Date: "2025-02-30"})
	assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidDate))

	h, err := create.Execute(ctx, f.pro, CreateHolidayInput{Date: "2025-12-25", Reason: " Christmas "})
	require.NoError(t, err)
	assert.Equal(t, "Christmas", h.Reason)

	_, err = create.Execute(ctx, f.pro, CreateHolidayInput{Date: "2025-12-25"})
	assert.True(t, httperr.IsBusiness(err, domain.ErrHolidayExists))

	_, err = create.Execute(ctx, f.pro, CreateHolidayInput{Date: "2026-01-01"})
	require.NoError(t, err)

	list, err := NewListHolidays(f.repo).Execute(ctx, f.pro, 0, DateRange{To: "2025-12-31"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-12-25", list[0].Date)

	_, err = NewListHolidays(f.repo).Execute(ctx, f.pro, 0, DateRange{From: "yesterday"})
	assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidDate))

	del := NewDeleteHoliday(f.repo, nil)
	require.NoError(t, del.Execute(ctx, f.pro, 0, h.ID))

	err = del.Execute(ctx, f.pro, 0, h.ID)
	assert.True(t, httperr.IsBusiness(err, domain.ErrNotAuthorized))
}

func TestOverrides_UpsertByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	save := NewSaveOverride(f.repo, nil)

	first, err := save.Execute(ctx, f.pro, SaveOverrideInput{Date: "2025-12-24", Blocked: true})
	require.NoError(t, err)

	end := "13:00"
	second, err := save.Execute(ctx, f.pro, SaveOverrideInput{Date: "2025-12-24", EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Blocked)

	list, err := NewListOverrides(f.repo).Execute(ctx, f.pro, 0, DateRange{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, NewDeleteOverride(f.repo, nil).Execute(ctx, f.pro, 0, first.ID))
	err = NewDeleteOverride(f.repo, nil).Execute(ctx, f.pro, 0, first.ID)
	assert.True(t, httperr.IsBusiness(err, domain.ErrNotAuthorized))
}

func TestOverrides_Validation(t *testing.T) {
	f := newFixture(t)
	save := NewSaveOverride(f.repo, nil)

	start, end := "14:00", "10:00"
	_, err := save.Execute(context.Background(), f.pro, SaveOverrideInput{Date: "2025-12-24", StartTime: &start, EndTime: &end})
	assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidRequest))

	slot := 1
	_, err = save.Execute(context.Background(), f.pro, SaveOverrideInput{Date: "2025-12-24", SlotDuration: &slot})
	assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidRequest))

	_, err = save.Execute(context.Background(), f.pro, SaveOverrideInput{Date: "24-12-2025"})
	assert.True(t, httperr.IsBusiness(err, domain.ErrInvalidDate))
}
