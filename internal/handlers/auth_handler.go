package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agendahq/backoffice/internal/config"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/middleware"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/timezone"
	"github.com/agendahq/backoffice/internal/validators"
)

const (
	tokenTTL    = 24 * time.Hour
	trialPeriod = 14 * 24 * time.Hour
)

// DefaultServices are granted to every new account during the trial.
var DefaultServices = []string{"agenda"}

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, config: cfg}
}

// --------- Requests ---------

type RegisterRequest struct {
	AccountName    string `json:"account_name" binding:"required"`
	AccountSlug    string `json:"account_slug" binding:"required"`
	AccountPhone   string `json:"account_phone"`
	AccountAddress string `json:"account_address"`
	Timezone       string `json:"timezone"`

	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.AccountSlug))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = timezone.Default()
	}
	if !timezone.IsValid(tz) {
		httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
		return
	}

	if !validators.IsEmailDomainValid(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar a senha.")
		return
	}

	trialEnds := time.Now().Add(trialPeriod)
	account := models.Account{
		Name:               req.AccountName,
		Slug:               slug,
		Phone:              req.AccountPhone,
		Address:            req.AccountAddress,
		Timezone:           tz,
		SubscriptionStatus: models.SubscriptionTrialing,
		SubscriptionEndsAt: &trialEnds,
		Services:           DefaultServices,
	}
	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         identity.RoleOwner,
	}

	errSlugTaken := errors.New("slug taken")
	errEmailTaken := errors.New("email taken")

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errSlugTaken
		}
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errEmailTaken
		}

		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		user.AccountID = account.ID
		return tx.Omit("Account").Create(&user).Error
	})
	switch {
	case errors.Is(err, errSlugTaken):
		httperr.Conflict(c, "slug_already_exists", "Este identificador de conta já está em uso.")
		return
	case errors.Is(err, errEmailTaken):
		httperr.Conflict(c, "email_already_exists", "Este e-mail já está cadastrado.")
		return
	case err != nil:
		httperr.Internal(c, "failed_to_register", "Erro ao criar a conta.")
		return
	}

	token, err := middleware.IssueToken(h.config.JWTSecret, user.ID, account.ID, user.Role, tokenTTL)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar o token.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    userView(&user),
		"account": accountView(&account),
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Account").
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
			return
		}
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
		return
	}

	token, err := middleware.IssueToken(h.config.JWTSecret, user.ID, user.AccountID, user.Role, tokenTTL)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar o token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    userView(&user),
		"account": accountView(&user.Account),
		"token":   token,
	})
}

// --------- Views ---------

func userView(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"phone":      u.Phone,
		"role":       u.Role,
		"account_id": u.AccountID,
	}
}

func accountView(a *models.Account) gin.H {
	return gin.H{
		"id":                   a.ID,
		"name":                 a.Name,
		"slug":                 a.Slug,
		"phone":                a.Phone,
		"address":              a.Address,
		"timezone":             a.Timezone,
		"subscription_status":  a.SubscriptionStatus,
		"subscription_ends_at": a.SubscriptionEndsAt,
		"services":             a.Services,
	}
}
