package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agendahq/backoffice/internal/models"
)

func (r *AppointmentGormRepository) GetProduct(
	ctx context.Context,
	accountID uint,
	productID uint,
) (*models.Product, error) {

	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", productID, accountID).
		First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// DecrementStock is a conditional update so concurrent usage never drives stock negative.
func (r *AppointmentGormRepository) DecrementStock(
	ctx context.Context,
	productID uint,
	qty int,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentGormRepository) CreateProductLog(
	ctx context.Context,
	l *models.AppointmentProductLog,
) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *AppointmentGormRepository) ListProductLogs(
	ctx context.Context,
	appointmentID uint,
) ([]models.AppointmentProductLog, error) {

	var out []models.AppointmentProductLog
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("appointment_id = ?", appointmentID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
