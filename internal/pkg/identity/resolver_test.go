package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/models"
)

type fakeProfileRepo struct {
	byEmail map[string]*models.Profile
	nextID  uint
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byEmail: make(map[string]*models.Profile)}
}

func (r *fakeProfileRepo) CreateIfAbsent(p *models.Profile) (bool, *models.Profile, error) {
	if existing, ok := r.byEmail[p.Email]; ok {
		return false, existing, nil
	}
	r.nextID++
	p.ID = r.nextID
	r.byEmail[p.Email] = p
	return true, p, nil
}

func (r *fakeProfileRepo) GetByEmail(email string) (*models.Profile, error) {
	if p, ok := r.byEmail[email]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) GetByID(id uint) (*models.Profile, error) {
	for _, p := range r.byEmail {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) UpdateCredential(id uint, passwordHash string) error {
	for _, p := range r.byEmail {
		if p.ID == id {
			p.PasswordHash = passwordHash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeProfileRepo) MarkProvisioned(id uint, at time.Time) error {
	for _, p := range r.byEmail {
		if p.ID == id {
			p.ProvisionedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeProvider struct {
	calls []string
	err   error
}

func (p *fakeProvider) EnsureAccount(ctx context.Context, email, displayName, initialPassword string) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, email)
	return nil
}

func TestResolveOrCreateProfile_New(t *testing.T) {
	repo := newFakeProfileRepo()
	r := NewResolver(repo, &fakeProvider{})

	profile, needsProvisioning, password, err := r.ResolveOrCreateProfile(context.Background(), " Jamie@Example.COM ", " Jamie ")
	if err != nil {
		t.Fatalf("ResolveOrCreateProfile() error = %v", err)
	}
	if !needsProvisioning {
		t.Fatalf("expected a new profile to owe provisioning")
	}
	if profile.Email != "jamie@example.com" {
		t.Fatalf("email = %q, want normalized jamie@example.com", profile.Email)
	}
	if profile.Name != "Jamie" {
		t.Fatalf("name = %q, want trimmed Jamie", profile.Name)
	}
	if password == "" {
		t.Fatalf("expected a minted initial password")
	}
	if !models.CheckPasswordHash(password, profile.PasswordHash) {
		t.Fatalf("stored hash must match the minted password")
	}
}

func TestResolveOrCreateProfile_Provisioned(t *testing.T) {
	repo := newFakeProfileRepo()
	provisionedAt := time.Now().AddDate(0, -1, 0)
	repo.byEmail["jamie@example.com"] = &models.Profile{
		ID: 7, Email: "jamie@example.com", Name: "Jamie",
		PasswordHash: "existing-hash", ProvisionedAt: &provisionedAt,
	}
	r := NewResolver(repo, &fakeProvider{})

	profile, needsProvisioning, password, err := r.ResolveOrCreateProfile(context.Background(), "jamie@example.com", "Someone Else")
	if err != nil {
		t.Fatalf("ResolveOrCreateProfile() error = %v", err)
	}
	if needsProvisioning {
		t.Fatalf("provisioned profile must not owe provisioning")
	}
	if profile.ID != 7 || profile.Name != "Jamie" {
		t.Fatalf("got %+v, want the stored row untouched", profile)
	}
	if profile.PasswordHash != "existing-hash" {
		t.Fatalf("returning customer's credential must not be replaced")
	}
	if password != "" {
		t.Fatalf("provisioned profiles must not get a credential, got %q", password)
	}
}

func TestResolveOrCreateProfile_ResumesUnprovisioned(t *testing.T) {
	// The row from a run that died before provisioning: the plaintext is
	// gone, so the resolve mints a fresh credential and reports the
	// provisioning as still owed.
	repo := newFakeProfileRepo()
	repo.byEmail["jamie@example.com"] = &models.Profile{
		ID: 7, Email: "jamie@example.com", Name: "Jamie",
		PasswordHash: "orphaned-hash",
	}
	r := NewResolver(repo, &fakeProvider{})

	profile, needsProvisioning, password, err := r.ResolveOrCreateProfile(context.Background(), "jamie@example.com", "Jamie")
	if err != nil {
		t.Fatalf("ResolveOrCreateProfile() error = %v", err)
	}
	if !needsProvisioning {
		t.Fatalf("unprovisioned profile must still owe provisioning")
	}
	if password == "" {
		t.Fatalf("expected a fresh credential for the resumed profile")
	}
	if !models.CheckPasswordHash(password, profile.PasswordHash) {
		t.Fatalf("stored hash must match the freshly minted password")
	}
	if repo.byEmail["jamie@example.com"].PasswordHash == "orphaned-hash" {
		t.Fatalf("orphaned hash must be replaced in the store")
	}
}

func TestResolveOrCreateProfile_InvalidEmail(t *testing.T) {
	r := NewResolver(newFakeProfileRepo(), &fakeProvider{})

	if _, _, _, err := r.ResolveOrCreateProfile(context.Background(), "not-an-email", ""); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestEnsureAuthAccount(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.byEmail["jamie@example.com"] = &models.Profile{ID: 7, Email: "jamie@example.com", Name: "Jamie"}
	provider := &fakeProvider{}
	r := NewResolver(repo, provider)

	profile := repo.byEmail["jamie@example.com"]
	if err := r.EnsureAuthAccount(context.Background(), profile, "pw"); err != nil {
		t.Fatalf("EnsureAuthAccount() error = %v", err)
	}
	if len(provider.calls) != 1 || provider.calls[0] != "jamie@example.com" {
		t.Fatalf("provider calls = %v", provider.calls)
	}
	if !profile.IsProvisioned() {
		t.Fatalf("successful provisioning must be recorded on the profile")
	}

	// A provider failure leaves the profile unprovisioned so a replay
	// retries the account creation.
	other := &models.Profile{ID: 8, Email: "sam@example.com"}
	repo.byEmail["sam@example.com"] = other
	provider.err = errors.New("provider down")
	if err := r.EnsureAuthAccount(context.Background(), other, "pw"); err == nil {
		t.Fatalf("expected provider error to surface")
	}
	if other.IsProvisioned() {
		t.Fatalf("failed provisioning must not be recorded")
	}
}
