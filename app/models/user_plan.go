package models

import "time"

const (
	UserPlanStatusActive  = "active"
	UserPlanStatusExpired = "expired"
)

// UserPlan is the entitlement granting a profile access to one generated
// plan for a bounded date range. Exactly one row per fulfilled order,
// enforced by the unique order_id index. Multiple rows per profile are
// valid (stacked purchases); which one is "current" is a read-time
// derivation, see UserPlanRepository.GetActiveByProfile.
type UserPlan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProfileID    uint      `gorm:"not null;index" json:"profile_id"`
	OrderID      uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	DocumentJSON string    `gorm:"type:longtext;not null" json:"document_json"`
	StartDate    time.Time `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate      time.Time `gorm:"type:timestamp;not null;index" json:"end_date"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	PaymentRef   string    `gorm:"type:varchar(191)" json:"payment_ref"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CoversDate reports whether the entitlement grants access on the given
// day. Expiry flips Status out-of-band; both checks must hold.
func (up *UserPlan) CoversDate(t time.Time) bool {
	if up.Status != UserPlanStatusActive {
		return false
	}
	return !t.Before(up.StartDate) && !t.After(up.EndDate)
}

// EntitlementWindow computes the validity window for a purchase of
// dayCount days starting at now.
func EntitlementWindow(now time.Time, dayCount int) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, dayCount)
}
