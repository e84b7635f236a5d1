package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/domain/appointment/appointmenttest"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/middleware"
	"github.com/agendahq/backoffice/internal/models"
	ucAppointment "github.com/agendahq/backoffice/internal/usecase/appointment"
	ucSchedule "github.com/agendahq/backoffice/internal/usecase/schedule"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func asPrincipal(p identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, p.UserID)
		c.Set(middleware.ContextAccountID, p.AccountID)
		c.Set(middleware.ContextUserRole, p.Role)
		c.Next()
	}
}

// newAgendaRouter serves the agenda routes for a professional working
// Mondays 09:00-12:00 in 30 minute slots.
func newAgendaRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := appointmenttest.New()
	acc := repo.AddAccount(models.Account{Name: "Studio", Timezone: "UTC"})
	pro := repo.AddUser(models.User{AccountID: acc.ID, Role: identity.RoleProfessional})
	p := identity.Principal{UserID: pro.ID, AccountID: acc.ID, Role: identity.RoleProfessional}

	_, err := ucSchedule.NewSaveConfig(repo, nil).Execute(context.Background(), p, ucSchedule.SaveConfigInput{
		StartTime:    "09:00",
		EndTime:      "12:00",
		SlotDuration: 30,
		WorkingDays:  sched.NewWorkingDays(sched.Monday),
	})
	require.NoError(t, err)

	h := NewAgendaHandler(
		ucAppointment.NewCreateAppointment(repo, nil, nil, nil, nil, quietLogger),
		ucAppointment.NewUpdateStatus(repo, nil, nil, nil),
		ucAppointment.NewListAppointments(repo),
		ucAppointment.NewGetAvailability(repo),
		ucAppointment.NewLogProductUsage(repo, nil),
		ucAppointment.NewListProductUsage(repo),
		quietLogger,
	)

	r := gin.New()
	g := r.Group("/api/agenda", asPrincipal(p))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.PATCH("/:id", h.UpdateStatus)
	g.GET("/availability", h.Availability)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out httperr.HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out.Code
}

func TestAgendaHandler_CreateAndConflict(t *testing.T) {
	r := newAgendaRouter(t)

	w := do(r, http.MethodPost, "/api/agenda", gin.H{"title": "Corte", "date": "2025-12-22T09:30:00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, string(domain.StatusPending), created.Status)
	assert.NotZero(t, created.ID)

	w = do(r, http.MethodPost, "/api/agenda", gin.H{"title": "Outro", "date": "2025-12-22T09:45:00"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrSlotConflict, errorCode(t, w))
}

func TestAgendaHandler_BusinessErrors(t *testing.T) {
	r := newAgendaRouter(t)

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{"non working day", gin.H{"title": "x", "date": "2025-12-23T10:00:00"}, http.StatusBadRequest, domain.ErrNonWorkingDay},
		{"out of window", gin.H{"title": "x", "date": "2025-12-22T12:00:00"}, http.StatusBadRequest, domain.ErrOutOfWindow},
		{"bad date", gin.H{"title": "x", "date": "amanhã"}, http.StatusBadRequest, domain.ErrInvalidDate},
		{"missing title", gin.H{"date": "2025-12-22T10:00:00"}, http.StatusBadRequest, domain.ErrInvalidRequest},
		{"unknown client", gin.H{"title": "x", "date": "2025-12-22T10:00:00", "client_id": 999}, http.StatusBadRequest, domain.ErrClientNotFound},
		{"other professional", gin.H{"title": "x", "date": "2025-12-22T10:00:00", "professional_id": 999}, http.StatusNotFound, domain.ErrNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/agenda", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAgendaHandler_StatusLifecycle(t *testing.T) {
	r := newAgendaRouter(t)

	w := do(r, http.MethodPost, "/api/agenda", gin.H{"title": "Corte", "date": "2025-12-22T10:00:00"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/agenda/" + strconv.FormatUint(uint64(created.ID), 10)

	w = do(r, http.MethodPatch, path, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPatch, path, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrInvalidTransition, errorCode(t, w))

	w = do(r, http.MethodPatch, "/api/agenda/abc", gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/agenda/4242", gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgendaHandler_Availability(t *testing.T) {
	r := newAgendaRouter(t)

	w := do(r, http.MethodPost, "/api/agenda", gin.H{"title": "Corte", "date": "2025-12-22T09:00:00"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/agenda/availability?date=2025-12-22", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Bookable bool `json:"bookable"`
		Slots    []struct {
			Start string `json:"start"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Bookable)
	require.Len(t, out.Slots, 5)
	assert.Equal(t, "2025-12-22T09:30:00Z", out.Slots[0].Start)

	w = do(r, http.MethodGet, "/api/agenda/availability?date=2025-12-23", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.False(t, out.Bookable)
	assert.Empty(t, out.Slots)
}

func TestWriteError_UnknownIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { writeError(c, quietLogger, errors.New("db down")) })
	r.GET("/unmapped", func(c *gin.Context) { writeError(c, quietLogger, httperr.ErrBusiness("made_up")) })

	for _, path := range []string{"/boom", "/unmapped"} {
		w := do(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", errorCode(t, w))
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(domain.ErrSlotConflict))
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.ErrNotAuthorized))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(domain.ErrBookingBusy))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("nope"))
}
