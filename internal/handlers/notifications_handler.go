package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/middleware"
	"github.com/agendahq/backoffice/internal/notify"
)

type NotificationsHandler struct {
	hub    *notify.Hub
	repo   domain.Repository
	logger *slog.Logger
}

func NewNotificationsHandler(hub *notify.Hub, repo domain.Repository, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{hub: hub, repo: repo, logger: logger}
}

// Stream upgrades to a websocket that receives the professional's agenda events.
func (h *NotificationsHandler) Stream(c *gin.Context) {
	profID, ok := professionalQuery(c)
	if !ok {
		return
	}

	prof, err := domain.Professional(c.Request.Context(), h.repo, middleware.Principal(c), profID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.hub.Serve(c.Writer, c.Request, prof.ID); err != nil {
		h.logger.Warn("websocket closed with error", "professional_id", prof.ID, "err", err)
	}
}
