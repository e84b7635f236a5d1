package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/httperr"
)

// idParam reads a positive numeric path parameter; it writes the 400 itself.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, domain.ErrInvalidRequest, "Identificador inválido.")
		return 0, false
	}
	return uint(id), true
}

// professionalQuery reads the optional professional_id filter; zero means the caller.
func professionalQuery(c *gin.Context) (uint, bool) {
	raw := c.Query("professional_id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httperr.BadRequest(c, domain.ErrInvalidRequest, "professional_id inválido.")
		return 0, false
	}
	return uint(id), true
}
