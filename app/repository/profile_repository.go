package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository backed by GORM
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) CreateIfAbsent(profile *models.Profile) (bool, *models.Profile, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(profile)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Profile
	if err := r.db.Where("email = ?", profile.Email).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *profileRepository) GetByEmail(email string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateCredential(id uint, passwordHash string) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *profileRepository) MarkProvisioned(id uint, at time.Time) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", id).
		Update("provisioned_at", &at).Error
}
