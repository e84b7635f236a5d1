package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/httperr"
)

type errorEntry struct {
	status  int
	message string
}

// businessErrors maps every business code to exactly one status and message.
var businessErrors = map[string]errorEntry{
	domain.ErrConfigurationMissing: {http.StatusBadRequest, "Agenda ainda não configurada para este profissional."},
	domain.ErrNonWorkingDay:        {http.StatusBadRequest, "O profissional não atende neste dia da semana."},
	domain.ErrHoliday:              {http.StatusBadRequest, "Data marcada como feriado."},
	domain.ErrDayBlocked:           {http.StatusBadRequest, "Data bloqueada na agenda."},
	domain.ErrOutOfWindow:          {http.StatusBadRequest, "Horário fora do expediente."},
	domain.ErrClientNotFound:       {http.StatusBadRequest, "Cliente não encontrado."},
	domain.ErrInvalidTransition:    {http.StatusBadRequest, "Mudança de status não permitida."},
	domain.ErrInvalidStatus:        {http.StatusBadRequest, "Status inválido."},
	domain.ErrInvalidDate:          {http.StatusBadRequest, "Data inválida."},
	domain.ErrInvalidRequest:       {http.StatusBadRequest, "Dados inválidos na requisição."},
	domain.ErrProductNotFound:      {http.StatusBadRequest, "Produto não encontrado."},
	domain.ErrInsufficientStock:    {http.StatusBadRequest, "Estoque insuficiente."},
	domain.ErrInvalidQuantity:      {http.StatusBadRequest, "Quantidade inválida."},

	domain.ErrSlotConflict:  {http.StatusConflict, "Horário já ocupado."},
	domain.ErrHolidayExists: {http.StatusConflict, "Feriado já cadastrado para esta data."},

	domain.ErrNotAuthorized: {http.StatusNotFound, "Registro não encontrado."},

	domain.ErrBookingBusy: {http.StatusServiceUnavailable, "Agenda ocupada, tente novamente."},
}

// StatusFor reports the HTTP status for a business code, 500 when unknown.
func StatusFor(code string) int {
	if entry, ok := businessErrors[code]; ok {
		return entry.status
	}
	return http.StatusInternalServerError
}

// writeError renders err as the standard error envelope.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var be httperr.BusinessError
	if errors.As(err, &be) {
		if entry, ok := businessErrors[be.Code]; ok {
			httperr.WriteDetail(c, entry.status, be.Code, entry.message, be.Detail)
			return
		}
	}

	logger.Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"err", err,
	)
	httperr.Internal(c, "internal_error", "Erro interno.")
}

func badRequest(c *gin.Context, err error) {
	httperr.WriteDetail(c, http.StatusBadRequest, domain.ErrInvalidRequest, "Dados inválidos na requisição.", err.Error())
}
