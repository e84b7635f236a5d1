package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/dto"
	"github.com/agendahq/backoffice/internal/middleware"
	ucSchedule "github.com/agendahq/backoffice/internal/usecase/schedule"
)

type ScheduleHandler struct {
	getConfig      *ucSchedule.GetConfig
	saveConfig     *ucSchedule.SaveConfig
	resolveDay     *ucSchedule.ResolveDay
	createHoliday  *ucSchedule.CreateHoliday
	listHolidays   *ucSchedule.ListHolidays
	deleteHoliday  *ucSchedule.DeleteHoliday
	saveOverride   *ucSchedule.SaveOverride
	listOverrides  *ucSchedule.ListOverrides
	deleteOverride *ucSchedule.DeleteOverride
	logger         *slog.Logger
}

// ScheduleUseCases groups the constructor arguments of ScheduleHandler.
type ScheduleUseCases struct {
	GetConfig      *ucSchedule.GetConfig
	SaveConfig     *ucSchedule.SaveConfig
	ResolveDay     *ucSchedule.ResolveDay
	CreateHoliday  *ucSchedule.CreateHoliday
	ListHolidays   *ucSchedule.ListHolidays
	DeleteHoliday  *ucSchedule.DeleteHoliday
	SaveOverride   *ucSchedule.SaveOverride
	ListOverrides  *ucSchedule.ListOverrides
	DeleteOverride *ucSchedule.DeleteOverride
}

func NewScheduleHandler(uc ScheduleUseCases, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		getConfig:      uc.GetConfig,
		saveConfig:     uc.SaveConfig,
		resolveDay:     uc.ResolveDay,
		createHoliday:  uc.CreateHoliday,
		listHolidays:   uc.ListHolidays,
		deleteHoliday:  uc.DeleteHoliday,
		saveOverride:   uc.SaveOverride,
		listOverrides:  uc.ListOverrides,
		deleteOverride: uc.DeleteOverride,
		logger:         logger,
	}
}

// --------- Requests ---------

type SaveConfigRequest struct {
	ProfessionalID uint `json:"professional_id"`

	StartTime    string            `json:"start_time" binding:"required"`
	EndTime      string            `json:"end_time" binding:"required"`
	SlotDuration int               `json:"slot_duration" binding:"required"`
	WorkingDays  sched.WorkingDays `json:"working_days"`

	OverbookingAllowed        bool `json:"overbooking_allowed"`
	AllowBookingOnBlockedDays bool `json:"allow_booking_on_blocked_days"`
	ReminderOffset            int  `json:"reminder_offset"`
}

type CreateHolidayRequest struct {
	ProfessionalID uint   `json:"professional_id"`
	Date           string `json:"date" binding:"required"`
	Reason         string `json:"reason" binding:"max=255"`
}

type SaveOverrideRequest struct {
	ProfessionalID uint    `json:"professional_id"`
	Date           string  `json:"date" binding:"required"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	SlotDuration   *int    `json:"slot_duration"`
	Blocked        bool    `json:"blocked"`
	Note           string  `json:"note" binding:"max=255"`
}

// ======================================================
// CONFIG
// ======================================================

func (h *ScheduleHandler) GetConfig(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	cfg, err := h.getConfig.Execute(c.Request.Context(), middleware.Principal(c), profID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ScheduleHandler) SaveConfig(c *gin.Context) {
	var req SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cfg, err := h.saveConfig.Execute(c.Request.Context(), middleware.Principal(c), ucSchedule.SaveConfigInput{
		ProfessionalID:            req.ProfessionalID,
		StartTime:                 req.StartTime,
		EndTime:                   req.EndTime,
		SlotDuration:              req.SlotDuration,
		WorkingDays:               req.WorkingDays,
		OverbookingAllowed:        req.OverbookingAllowed,
		AllowBookingOnBlockedDays: req.AllowBookingOnBlockedDays,
		ReminderOffset:            req.ReminderOffset,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Resolve answers whether ?date= is bookable and within which window.
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	res, err := h.resolveDay.Execute(c.Request.Context(), middleware.Principal(c), ucSchedule.ResolveDayInput{
		ProfessionalID: profID,
		Date:           c.Query("date"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	out := dto.DayDTO{
		Date:     res.Date.Format("2006-01-02"),
		Weekday:  res.Weekday.String(),
		Bookable: res.Bookable,
		Reason:   string(res.Reason),
	}
	if res.Bookable {
		out.StartTime = res.Window.Start.String()
		out.EndTime = res.Window.End.String()
		out.SlotDuration = int(res.Window.Slot.Minutes())
	}
	c.JSON(http.StatusOK, out)
}

// ======================================================
// HOLIDAYS
// ======================================================

func (h *ScheduleHandler) CreateHoliday(c *gin.Context) {
	var req CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	holiday, err := h.createHoliday.Execute(c.Request.Context(), middleware.Principal(c), ucSchedule.CreateHolidayInput{
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Reason:         req.Reason,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, holiday)
}

func (h *ScheduleHandler) ListHolidays(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	out, err := h.listHolidays.Execute(c.Request.Context(), middleware.Principal(c), profID, ucSchedule.DateRange{
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ScheduleHandler) DeleteHoliday(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	if err := h.deleteHoliday.Execute(c.Request.Context(), middleware.Principal(c), profID, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ======================================================
// DAY OVERRIDES
// ======================================================

func (h *ScheduleHandler) SaveOverride(c *gin.Context) {
	var req SaveOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.saveOverride.Execute(c.Request.Context(), middleware.Principal(c), ucSchedule.SaveOverrideInput{
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		SlotDuration:   req.SlotDuration,
		Blocked:        req.Blocked,
		Note:           req.Note,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ScheduleHandler) ListOverrides(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	out, err := h.listOverrides.Execute(c.Request.Context(), middleware.Principal(c), profID, ucSchedule.DateRange{
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ScheduleHandler) DeleteOverride(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	if err := h.deleteOverride.Execute(c.Request.Context(), middleware.Principal(c), profID, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
