package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/models"
)

type AccountLookup interface {
	GetAccountByID(ctx context.Context, id uint) (*models.Account, error)
}

// RequireService lets the request through only when the caller's account has
// an active subscription that grants service.
func RequireService(accounts AccountLookup, service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := accounts.GetAccountByID(c.Request.Context(), c.GetUint(ContextAccountID))
		if err != nil {
			httperr.Unauthorized(c, "account_not_found", "Conta não encontrada.")
			return
		}

		if !account.SubscriptionActiveAt(time.Now()) {
			httperr.Write(c, http.StatusPaymentRequired, "subscription_inactive", "Assinatura inativa.")
			return
		}

		if !account.HasService(service) {
			httperr.Forbidden(c, "service_not_granted", "Serviço não incluído na assinatura.")
			return
		}

		c.Next()
	}
}
