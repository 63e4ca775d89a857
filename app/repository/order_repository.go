package repository

import (
	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository backed by GORM
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUUID(uuid string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("uuid = ?", uuid).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByPaymentRef(paymentRef string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("payment_ref = ?", paymentRef).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid runs the conditional update in a single statement, not a read
// followed by a write, so two concurrent triggers observing "pending"
// cannot both win the transition.
func (r *orderRepository) MarkPaid(id uint, paymentRef string, amountMinor int64, currency string) (bool, error) {
	updates := map[string]interface{}{
		"status":      models.OrderStatusPaid,
		"payment_ref": paymentRef,
	}
	if amountMinor > 0 {
		updates["price_minor"] = amountMinor
	}
	if currency != "" {
		updates["currency"] = currency
	}

	tx := r.db.Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, models.OrderStatusPaid).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *orderRepository) List(offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Count(&count).Error
	return count, err
}
