package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

type userPlanRepository struct {
	db *gorm.DB
}

// NewUserPlanRepository creates a new entitlement repository backed by GORM
func NewUserPlanRepository(db *gorm.DB) UserPlanRepository {
	return &userPlanRepository{db: db}
}

func (r *userPlanRepository) CreateIfAbsent(userPlan *models.UserPlan) (bool, *models.UserPlan, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(userPlan)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.UserPlan
	if err := r.db.Where("order_id = ?", userPlan.OrderID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *userPlanRepository) GetByOrderID(orderID uint) (*models.UserPlan, error) {
	var userPlan models.UserPlan
	err := r.db.Where("order_id = ?", orderID).First(&userPlan).Error
	if err != nil {
		return nil, err
	}
	return &userPlan, nil
}

func (r *userPlanRepository) GetActiveByProfile(profileID uint, now time.Time) (*models.UserPlan, error) {
	var userPlan models.UserPlan
	err := r.db.
		Where("profile_id = ? AND status = ? AND end_date >= ?", profileID, models.UserPlanStatusActive, now).
		Order("created_at DESC").
		First(&userPlan).Error
	if err != nil {
		return nil, err
	}
	return &userPlan, nil
}

func (r *userPlanRepository) ListByProfile(profileID uint) ([]models.UserPlan, error) {
	var userPlans []models.UserPlan
	err := r.db.Where("profile_id = ?", profileID).Order("created_at DESC").Find(&userPlans).Error
	return userPlans, err
}
