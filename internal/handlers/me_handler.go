package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/middleware"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/timezone"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

type UpdateAccountRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
	Timezone *string `json:"timezone"`
}

func (h *MeHandler) GetMe(c *gin.Context) {
	p := middleware.Principal(c)

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Account").
		Where("id = ? AND account_id = ?", p.UserID, p.AccountID).
		First(&user).Error; err != nil {

		httperr.Unauthorized(c, "user_not_found", "Usuário não encontrado.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    userView(&user),
		"account": accountView(&user.Account),
	})
}

// ======================================================
// ACCOUNT
// ======================================================

func (h *MeHandler) GetAccount(c *gin.Context) {
	p := middleware.Principal(c)

	var account models.Account
	if err := h.db.WithContext(c.Request.Context()).First(&account, p.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "account_not_found", "Conta não encontrada.")
			return
		}
		httperr.Internal(c, "failed_to_get_account", "Erro ao buscar dados da conta.")
		return
	}

	c.JSON(http.StatusOK, accountView(&account))
}

func (h *MeHandler) UpdateAccount(c *gin.Context) {
	p := middleware.Principal(c)
	if !p.Privileged() {
		httperr.Forbidden(c, "not_authorized", "Apenas administradores podem alterar a conta.")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
			return
		}
		updates["timezone"] = *req.Timezone
	}

	var account models.Account
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, p.AccountID).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&account).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&account, p.AccountID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "account_not_found", "Conta não encontrada.")
			return
		}
		httperr.Internal(c, "failed_to_update_account", "Erro ao salvar as configurações da conta.")
		return
	}

	c.JSON(http.StatusOK, accountView(&account))
}
