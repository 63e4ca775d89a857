package repository

import (
	"time"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByUUID(uuid string) (*models.Order, error)
	GetByPaymentRef(paymentRef string) (*models.Order, error)
	// MarkPaid performs the atomic pending->paid conditional update and
	// reports whether this call won the transition. A false return with a
	// nil error means another invocation already flipped the order.
	MarkPaid(id uint, paymentRef string, amountMinor int64, currency string) (bool, error)
	List(offset, limit int) ([]models.Order, error)
	Count() (int64, error)
}

// IntakeRepository defines the interface for intake snapshot operations
type IntakeRepository interface {
	Create(intake *models.Intake) error
	GetByID(id uint) (*models.Intake, error)
}

// PlanRepository defines the interface for generated plan documents
type PlanRepository interface {
	// CreateIfAbsent inserts the plan guarded by the unique order_id
	// index. On conflict it re-reads and returns the surviving row, so a
	// racing duplicate generation collapses onto the winner's document.
	CreateIfAbsent(plan *models.Plan) (bool, *models.Plan, error)
	GetByOrderID(orderID uint) (*models.Plan, error)
	RecordUsage(usage *models.GenerationUsage) error
}

// ProfileRepository defines the interface for application identities
type ProfileRepository interface {
	// CreateIfAbsent inserts the profile guarded by the unique email
	// index; on conflict it re-reads and returns the existing row.
	CreateIfAbsent(profile *models.Profile) (bool, *models.Profile, error)
	GetByEmail(email string) (*models.Profile, error)
	GetByID(id uint) (*models.Profile, error)
	// UpdateCredential replaces the stored password hash. Used when a
	// fresh credential is minted for a profile whose auth account is
	// still unprovisioned.
	UpdateCredential(id uint, passwordHash string) error
	MarkProvisioned(id uint, at time.Time) error
}

// UserPlanRepository defines the interface for entitlement rows
type UserPlanRepository interface {
	// CreateIfAbsent inserts the entitlement guarded by the unique
	// order_id index and reports whether this call created it.
	CreateIfAbsent(userPlan *models.UserPlan) (bool, *models.UserPlan, error)
	GetByOrderID(orderID uint) (*models.UserPlan, error)
	// GetActiveByProfile derives the currently entitling row: active
	// status, end_date covering now, most recent first.
	GetActiveByProfile(profileID uint, now time.Time) (*models.UserPlan, error)
	ListByProfile(profileID uint) ([]models.UserPlan, error)
}

// WebhookEventRepository defines the interface for webhook dedup rows
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}
