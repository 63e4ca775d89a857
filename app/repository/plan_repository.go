package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository backed by GORM
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) CreateIfAbsent(plan *models.Plan) (bool, *models.Plan, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(plan)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Plan
	if err := r.db.Where("order_id = ?", plan.OrderID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *planRepository) GetByOrderID(orderID uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("order_id = ?", orderID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) RecordUsage(usage *models.GenerationUsage) error {
	return r.db.Create(usage).Error
}
