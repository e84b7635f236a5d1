package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/dto"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
)

// ======================================================
// LOG PRODUCT USAGE
// ======================================================

type LogProductUsageInput struct {
	ProfessionalID uint
	AppointmentID  uint
	ProductID      uint
	Quantity       int
}

type LogProductUsage struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewLogProductUsage(repo domain.Repository, audit *audit.Dispatcher) *LogProductUsage {
	return &LogProductUsage{repo: repo, audit: audit}
}

// Execute snapshots the current price and decrements stock in one transaction.
func (uc *LogProductUsage) Execute(
	ctx context.Context,
	p identity.Principal,
	in LogProductUsageInput,
) (*models.AppointmentProductLog, error) {
	if in.Quantity <= 0 {
		return nil, httperr.ErrBusinessf(domain.ErrInvalidQuantity, "quantity must be positive")
	}

	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	var entry *models.AppointmentProductLog
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		if _, err := tx.GetAppointmentForProfessional(ctx, in.AppointmentID, prof.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return httperr.ErrBusiness(domain.ErrNotAuthorized)
			}
			return fmt.Errorf("load appointment: %w", err)
		}

		product, err := tx.GetProduct(ctx, p.AccountID, in.ProductID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !product.Active) {
			return httperr.ErrBusiness(domain.ErrProductNotFound)
		}
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}

		ok, err := tx.DecrementStock(ctx, product.ID, in.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return httperr.ErrBusinessf(
				domain.ErrInsufficientStock,
				"%s has %d in stock",
				product.Name, product.Stock,
			)
		}

		entry = &models.AppointmentProductLog{
			AppointmentID: in.AppointmentID,
			ProductID:     product.ID,
			Product:       *product,
			Quantity:      in.Quantity,
			UnitPrice:     product.Price,
		}
		return tx.CreateProductLog(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "appointment_product_used",
		Entity:    "appointment",
		EntityID:  &entry.AppointmentID,
		Metadata: map[string]any{
			"product_id": entry.ProductID,
			"quantity":   entry.Quantity,
			"total":      entry.Total().StringFixed(2),
		},
	})

	return entry, nil
}

// ======================================================
// LIST PRODUCT USAGE
// ======================================================

type ListProductUsage struct {
	repo domain.Repository
}

func NewListProductUsage(repo domain.Repository) *ListProductUsage {
	return &ListProductUsage{repo: repo}
}

func (uc *ListProductUsage) Execute(
	ctx context.Context,
	p identity.Principal,
	professionalID uint,
	appointmentID uint,
) ([]dto.ProductUsageDTO, error) {
	prof, err := domain.Professional(ctx, uc.repo, p, professionalID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.repo.GetAppointmentForProfessional(ctx, appointmentID, prof.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(domain.ErrNotAuthorized)
		}
		return nil, err
	}

	logs, err := uc.repo.ListProductLogs(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ProductUsageDTO, 0, len(logs))
	for i := range logs {
		out = append(out, ToProductUsageDTO(&logs[i]))
	}
	return out, nil
}

func ToProductUsageDTO(l *models.AppointmentProductLog) dto.ProductUsageDTO {
	return dto.ProductUsageDTO{
		ID:          l.ID,
		ProductID:   l.ProductID,
		ProductName: l.Product.Name,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		Total:       l.Total(),
		CreatedAt:   l.CreatedAt,
	}
}
