package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/httpresp"
	"github.com/agendahq/backoffice/internal/middleware"
	"github.com/agendahq/backoffice/internal/models"
)

type ProductHandler struct {
	db *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// --------- Requests ---------

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=255"`
	SKU         string          `json:"sku" binding:"max=50"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
	Category    string          `json:"category" binding:"max=50"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

var errNegativeAmount = errors.New("price and stock must not be negative")

// --------- Handlers ---------

func (h *ProductHandler) List(c *gin.Context) {
	accountID := c.MustGet(middleware.ContextAccountID).(uint)

	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	activeStr := strings.TrimSpace(c.Query("active")) // "true", "false" ou vazio
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).Where("account_id = ?", accountID)

	if category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	switch activeStr {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	var products []models.Product
	if err := q.
		Order("id ASC").
		Find(&products).Error; err != nil {

		httperr.Internal(c, "failed_to_list_products", "Erro ao listar produtos.")
		return
	}

	httpresp.List(c, products)
}

func (h *ProductHandler) Create(c *gin.Context) {
	accountID := c.MustGet(middleware.ContextAccountID).(uint)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Price.IsNegative() {
		badRequest(c, errNegativeAmount)
		return
	}

	product := models.Product{
		AccountID:   accountID,
		Name:        req.Name,
		Description: req.Description,
		SKU:         strings.TrimSpace(req.SKU),
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		Active:      true,
		Category:    strings.ToLower(req.Category),
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		httperr.Internal(c, "failed_to_create_product", "Erro ao cadastrar produto.")
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	accountID := c.MustGet(middleware.ContextAccountID).(uint)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if (req.Price != nil && req.Price.IsNegative()) || (req.Stock != nil && *req.Stock < 0) {
		badRequest(c, errNegativeAmount)
		return
	}

	var product models.Product
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ? AND account_id = ?", id, accountID).
			First(&product).Error; err != nil {
			return err
		}

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.SKU != nil {
			product.SKU = strings.TrimSpace(*req.SKU)
		}
		if req.Price != nil {
			product.Price = req.Price.Round(2)
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if req.Active != nil {
			product.Active = *req.Active
		}

		return tx.Save(&product).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "product_not_found", "Produto não encontrado.")
			return
		}
		httperr.Internal(c, "failed_to_update_product", "Erro ao atualizar produto.")
		return
	}

	c.JSON(http.StatusOK, product)
}
