package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/models"
	"github.com/PlanForgeHQ/PlanForge/app/repository"
)

// AuthProvider ensures an external login identity exists for an email.
type AuthProvider interface {
	EnsureAccount(ctx context.Context, email, displayName, initialPassword string) error
}

// Resolver maps billing emails to application profiles and provisions
// the external auth account for first-time customers.
type Resolver struct {
	profiles repository.ProfileRepository
	provider AuthProvider
}

// NewResolver creates a resolver from its collaborators.
func NewResolver(profiles repository.ProfileRepository, provider AuthProvider) *Resolver {
	return &Resolver{profiles: profiles, provider: provider}
}

// ResolveOrCreateProfile returns the profile for an email, creating it
// if absent. The returned flag reports whether auth provisioning is
// still owed: true for fresh profiles AND for profiles an earlier run
// created but never finished provisioning, so a replay picks the work
// back up instead of skipping it. A credential is minted (replacing the
// stored hash) only when provisioning is owed; provisioned profiles get
// back an empty password.
func (r *Resolver) ResolveOrCreateProfile(ctx context.Context, email, name string) (*models.Profile, bool, string, error) {
	_ = ctx
	addr := strings.ToLower(strings.TrimSpace(email))

	existing, err := r.profiles.GetByEmail(addr)
	if err == nil {
		return r.resumeProfile(existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, "", err
	}

	initialPassword, err := models.GenerateInitialPassword()
	if err != nil {
		return nil, false, "", err
	}
	hash, err := models.HashPassword(initialPassword)
	if err != nil {
		return nil, false, "", err
	}

	profile := &models.Profile{
		Email:        addr,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	if err := profile.Validate(); err != nil {
		return nil, false, "", err
	}

	created, stored, err := r.profiles.CreateIfAbsent(profile)
	if err != nil {
		return nil, false, "", err
	}
	if !created {
		// Lost the insert race; the winner's row decides what is owed.
		return r.resumeProfile(stored)
	}
	return stored, true, initialPassword, nil
}

// resumeProfile decides what an existing row still owes. An
// unprovisioned profile gets a fresh credential: the plaintext from the
// run that created the row is gone.
func (r *Resolver) resumeProfile(profile *models.Profile) (*models.Profile, bool, string, error) {
	if profile.IsProvisioned() {
		return profile, false, "", nil
	}

	initialPassword, err := models.GenerateInitialPassword()
	if err != nil {
		return nil, false, "", err
	}
	hash, err := models.HashPassword(initialPassword)
	if err != nil {
		return nil, false, "", err
	}
	if err := r.profiles.UpdateCredential(profile.ID, hash); err != nil {
		return nil, false, "", err
	}
	profile.PasswordHash = hash
	return profile, true, initialPassword, nil
}

// EnsureAuthAccount provisions the external login for a profile and
// records the completed provisioning on the row, so later runs stop
// re-minting credentials for it.
func (r *Resolver) EnsureAuthAccount(ctx context.Context, profile *models.Profile, initialPassword string) error {
	if err := r.provider.EnsureAccount(ctx, profile.Email, profile.Name, initialPassword); err != nil {
		return err
	}
	now := time.Now()
	if err := r.profiles.MarkProvisioned(profile.ID, now); err != nil {
		return err
	}
	profile.ProvisionedAt = &now
	log.Debugf("[Identity] auth account ensured for %s", profile.Email)
	return nil
}
