package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/models"
	"github.com/PlanForgeHQ/PlanForge/app/repository"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/notify"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/plangen"
)

// Generator produces a plan document from an intake snapshot. The call
// is expensive and not idempotent; the service guards every invocation.
type Generator interface {
	GeneratePlan(ctx context.Context, intakeJSON string, dayCount int) (string, plangen.Usage, error)
}

// IdentityResolver maps billing emails to profiles and external auth
// accounts. The bool from ResolveOrCreateProfile reports whether auth
// provisioning is still owed, derived from the profile's stored state
// rather than from which run created the row.
type IdentityResolver interface {
	ResolveOrCreateProfile(ctx context.Context, email, name string) (*models.Profile, bool, string, error)
	EnsureAuthAccount(ctx context.Context, profile *models.Profile, initialPassword string) error
}

// Service is the fulfillment orchestrator: the saga that turns a payment
// trigger into exactly one plan, profile, entitlement and notification
// per order, no matter how often the trigger is delivered. It is the
// only caller of every collaborator; no collaborator calls another.
type Service struct {
	orders    repository.OrderRepository
	intakes   repository.IntakeRepository
	plans     repository.PlanRepository
	userPlans repository.UserPlanRepository
	resolver  IdentityResolver
	generator Generator
	notifier  notify.Dispatcher

	genTimeout time.Duration
	now        func() time.Time
}

// NewService wires the orchestrator from its collaborators.
func NewService(
	repos *repository.Repositories,
	resolver IdentityResolver,
	generator Generator,
	notifier notify.Dispatcher,
	genTimeout time.Duration,
) *Service {
	if genTimeout <= 0 {
		genTimeout = 2 * time.Minute
	}
	return &Service{
		orders:     repos.Order,
		intakes:    repos.Intake,
		plans:      repos.Plan,
		userPlans:  repos.UserPlan,
		resolver:   resolver,
		generator:  generator,
		notifier:   notifier,
		genTimeout: genTimeout,
		now:        time.Now,
	}
}

// Fulfill runs the pipeline for one payment trigger. Safe to invoke
// concurrently and repeatedly for the same order: all mutual exclusion
// lives in the datastore (conditional update on the order status, unique
// inserts on plans and user_plans), not in process state.
func (s *Service) Fulfill(ctx context.Context, orderUUID, paymentRef string, amountMinor int64, currency string) error {
	order, err := s.orders.GetByUUID(orderUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fatal("load_order", err)
		}
		return retryable("load_order", err)
	}

	if order.IsPaid() {
		// The order was flipped by an earlier run. If that run also wrote
		// the entitlement the order is fully fulfilled and this delivery
		// is a pure duplicate. Otherwise the earlier run died mid-flight
		// and this one resumes from the generation guard.
		_, err := s.userPlans.GetByOrderID(order.ID)
		if err == nil {
			log.Infof("[Fulfillment] order %s already fulfilled, skipping", orderUUID)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return retryable("check_entitlement", err)
		}
		log.Infof("[Fulfillment] order %s paid but unfulfilled, resuming", orderUUID)
	} else {
		won, err := s.orders.MarkPaid(order.ID, paymentRef, amountMinor, currency)
		if err != nil {
			return retryable("mark_paid", err)
		}
		if !won {
			// A concurrent invocation flipped the order between our read
			// and the update; the remaining steps are its responsibility.
			log.Infof("[Fulfillment] order %s claimed by concurrent run", orderUUID)
			return nil
		}
		order.Status = models.OrderStatusPaid
		order.PaymentRef = paymentRef
	}

	intake, err := s.intakes.GetByID(order.IntakeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fatal("load_intake", err)
		}
		return retryable("load_intake", err)
	}

	documentJSON, err := s.obtainDocument(ctx, order, intake)
	if err != nil {
		return err
	}

	profile, needsProvisioning, initialPassword, err := s.resolver.ResolveOrCreateProfile(ctx, order.CustomerEmail, order.CustomerName)
	if err != nil {
		return retryable("resolve_profile", err)
	}

	// Gated on the profile's provisioning state, not on which run created
	// the row: a replay after a provider outage still owes the account.
	if needsProvisioning {
		if err := s.resolver.EnsureAuthAccount(ctx, profile, initialPassword); err != nil {
			return retryable("ensure_auth_account", err)
		}
	}

	startDate, endDate := models.EntitlementWindow(s.now(), order.DayCount)
	created, _, err := s.userPlans.CreateIfAbsent(&models.UserPlan{
		ProfileID:    profile.ID,
		OrderID:      order.ID,
		DocumentJSON: documentJSON,
		StartDate:    startDate,
		EndDate:      endDate,
		Status:       models.UserPlanStatusActive,
		PaymentRef:   order.PaymentRef,
	})
	if err != nil {
		return retryable("activate_entitlement", err)
	}
	if !created {
		log.Warnf("[Fulfillment] entitlement for order %s already written by another run", orderUUID)
	}

	// Point of no return passed: the order is durably fulfilled. The
	// notification is best-effort and must never fail the pipeline.
	kind := notify.KindPlanReady
	if needsProvisioning {
		kind = notify.KindAccountCreated
	}
	if err := s.notifier.Send(ctx, notify.Message{
		Kind:            kind,
		Email:           profile.Email,
		Name:            profile.Name,
		InitialPassword: initialPassword,
	}); err != nil {
		log.Errorf("[Fulfillment] notification for order %s failed: %v", orderUUID, err)
	}

	log.Infof("[Fulfillment] order %s fulfilled (profile %d, %d days)", orderUUID, profile.ID, order.DayCount)
	return nil
}

// obtainDocument implements the generation guard: reuse a committed
// document when one exists, otherwise call the generator outside any
// database transaction and persist the result under the unique order_id
// constraint. The loser of a generation race discards its document and
// adopts the winner's.
func (s *Service) obtainDocument(ctx context.Context, order *models.Order, intake *models.Intake) (string, error) {
	plan, err := s.plans.GetByOrderID(order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", retryable("load_plan", err)
	}
	if plan.HasDocument() {
		log.Infof("[Fulfillment] reusing generated plan for order %s", order.UUID)
		return plan.DocumentJSON, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	documentJSON, usage, err := s.generator.GeneratePlan(genCtx, intake.PayloadJSON, order.DayCount)
	if err != nil {
		if errors.Is(err, plangen.ErrInvalidDocument) {
			return "", fatal("generate_plan", err)
		}
		return "", retryable("generate_plan", err)
	}

	created, stored, err := s.plans.CreateIfAbsent(&models.Plan{
		OrderID:      order.ID,
		DocumentJSON: documentJSON,
	})
	if err != nil {
		return "", retryable("persist_plan", err)
	}
	if !created {
		log.Warnf("[Fulfillment] discarding redundant generation for order %s, concurrent run won", order.UUID)
	}

	// The call happened and cost money either way; the usage row is
	// observability, not a correctness gate.
	if err := s.plans.RecordUsage(&models.GenerationUsage{
		OrderID:      order.ID,
		Model:        usage.Model,
		TokensIn:     usage.TokensIn,
		TokensOut:    usage.TokensOut,
		CostEstimate: usage.CostEstimate,
		DurationMs:   usage.Duration.Milliseconds(),
	}); err != nil {
		log.Errorf("[Fulfillment] usage recording for order %s failed: %v", order.UUID, err)
	}

	return stored.DocumentJSON, nil
}
