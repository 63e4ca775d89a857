package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Profile is the application identity for a billing email. One profile
// per distinct email, shared across all of that email's orders.
// ProvisionedAt marks that the external auth account was ensured; a nil
// value means provisioning is still owed, even when the row itself
// survived an earlier failed run.
type Profile struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"type:varchar(200);not null;uniqueIndex" json:"email" validate:"required,email,max=200"`
	Name          string     `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	PasswordHash  string     `gorm:"type:text" json:"-"`
	ProvisionedAt *time.Time `gorm:"type:timestamp;default:null" json:"provisioned_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsProvisioned reports whether the external auth account was ensured.
func (p *Profile) IsProvisioned() bool {
	return p.ProvisionedAt != nil
}

func (p *Profile) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateInitialPassword mints the temporary credential mailed to a
// freshly provisioned account.
func GenerateInitialPassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
