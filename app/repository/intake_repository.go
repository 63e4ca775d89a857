package repository

import (
	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

type intakeRepository struct {
	db *gorm.DB
}

// NewIntakeRepository creates a new intake repository backed by GORM
func NewIntakeRepository(db *gorm.DB) IntakeRepository {
	return &intakeRepository{db: db}
}

func (r *intakeRepository) Create(intake *models.Intake) error {
	return r.db.Create(intake).Error
}

func (r *intakeRepository) GetByID(id uint) (*models.Intake, error) {
	var intake models.Intake
	err := r.db.First(&intake, id).Error
	if err != nil {
		return nil, err
	}
	return &intake, nil
}
