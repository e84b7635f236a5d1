package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendahq/backoffice/internal/middleware"
	ucAppointment "github.com/agendahq/backoffice/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AgendaHandler struct {
	create       *ucAppointment.CreateAppointment
	updateStatus *ucAppointment.UpdateStatus
	list         *ucAppointment.ListAppointments
	availability *ucAppointment.GetAvailability
	logProduct   *ucAppointment.LogProductUsage
	listProducts *ucAppointment.ListProductUsage
	logger       *slog.Logger
}

func NewAgendaHandler(
	create *ucAppointment.CreateAppointment,
	updateStatus *ucAppointment.UpdateStatus,
	list *ucAppointment.ListAppointments,
	availability *ucAppointment.GetAvailability,
	logProduct *ucAppointment.LogProductUsage,
	listProducts *ucAppointment.ListProductUsage,
	logger *slog.Logger,
) *AgendaHandler {
	return &AgendaHandler{
		create:       create,
		updateStatus: updateStatus,
		list:         list,
		availability: availability,
		logProduct:   logProduct,
		listProducts: listProducts,
		logger:       logger,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	Title          string `json:"title" binding:"required,max=150"`
	Date           string `json:"date" binding:"required"`
	Description    string `json:"description" binding:"max=500"`
	ClientID       *uint  `json:"client_id"`
	ProfessionalID uint   `json:"professional_id"`
	Status         string `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type LogProductRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// ======================================================
// APPOINTMENTS
// ======================================================

func (h *AgendaHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), middleware.Principal(c), ucAppointment.CreateAppointmentInput{
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Status:         req.Status,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, ucAppointment.ToListDTO(ap, ap.StartTime.Location()))
}

func (h *AgendaHandler) List(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	out, err := h.list.Execute(c.Request.Context(), middleware.Principal(c), ucAppointment.ListAppointmentsInput{
		ProfessionalID: profID,
		From:           c.Query("from"),
		To:             c.Query("to"),
		Status:         c.Query("status"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *AgendaHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ap, err := h.updateStatus.Execute(c.Request.Context(), middleware.Principal(c), ucAppointment.UpdateStatusInput{
		ProfessionalID: profID,
		AppointmentID:  id,
		Status:         req.Status,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ucAppointment.ToListDTO(ap, ap.StartTime.Location()))
}

func (h *AgendaHandler) Availability(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	out, err := h.availability.Execute(c.Request.Context(), middleware.Principal(c), ucAppointment.GetAvailabilityInput{
		ProfessionalID: profID,
		Date:           c.Query("date"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// ======================================================
// PRODUCTS CONSUMED
// ======================================================

func (h *AgendaHandler) LogProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	var req LogProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.logProduct.Execute(c.Request.Context(), middleware.Principal(c), ucAppointment.LogProductUsageInput{
		ProfessionalID: profID,
		AppointmentID:  id,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, ucAppointment.ToProductUsageDTO(entry))
}

func (h *AgendaHandler) ListProducts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	out, err := h.listProducts.Execute(c.Request.Context(), middleware.Principal(c), profID, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
