package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order tracks a single plan purchase from checkout to fulfillment. The
// orchestrator is the only writer of the pending->paid transition; the
// payment_ref set by that transition is the idempotency anchor supplied
// by the trigger.
type Order struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	CustomerEmail string    `gorm:"type:varchar(200);not null;index" json:"customer_email" validate:"required,email,max=200"`
	CustomerName  string    `gorm:"type:varchar(150)" json:"customer_name" validate:"max=150"`
	DayCount      int       `gorm:"not null" json:"day_count" validate:"required,min=1,max=90"`
	PriceMinor    int64     `gorm:"not null" json:"price_minor" validate:"min=0"`
	Currency      string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency" validate:"required,len=3"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending paid cancelled"`
	PaymentRef    string    `gorm:"type:varchar(191);default:null;uniqueIndex" json:"payment_ref"`
	IntakeID      uint      `gorm:"not null;index" json:"intake_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// NewOrderUUID returns the public identifier handed to the payment
// provider and the front end.
func NewOrderUUID() string {
	return uuid.New().String()
}

// IsPaid reports whether fulfillment already flipped the order.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}
