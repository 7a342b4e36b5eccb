package directory

import (
	"context"
	"errors"
	"testing"

	entitlementerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	authzentities "fanvault/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/adapters/memory"
	onboardingentities "fanvault/contexts/identity-access/onboarding-service/domain/entities"
	onboardingports "fanvault/contexts/identity-access/onboarding-service/ports"
)

func seed(t *testing.T, store *memory.Store, account onboardingentities.CreatorAccount) {
	t.Helper()
	if err := store.CreateAccount(context.Background(), onboardingports.CreateAccountInput{Account: account}); err != nil {
		t.Fatalf("seed %s: %v", account.UserID, err)
	}
}

func TestPrincipalsReflectAccountState(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, onboardingentities.CreatorAccount{
		UserID:          "u-1",
		Email:           "carol@example.com",
		Handle:          "carol",
		Role:            onboardingentities.RoleCreator,
		OnboardingState: onboardingentities.StateSuspended,
	})
	seed(t, store, onboardingentities.CreatorAccount{
		UserID:          "u-2",
		Email:           "gone@example.com",
		Handle:          "gone",
		Role:            onboardingentities.RoleDeleted,
		OnboardingState: onboardingentities.StateCreated,
	})
	principals := Principals{Accounts: store}

	record, err := principals.LookupPrincipal(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if record.Role != authzentities.RoleCreator || !record.Suspended || record.OnboardingState != "SUSPENDED" {
		t.Fatalf("unexpected principal record %+v", record)
	}

	record, err = principals.LookupPrincipal(context.Background(), "u-2")
	if err != nil || record.Role != authzentities.RoleDeleted {
		t.Fatalf("expected deleted role, got %+v err=%v", record, err)
	}

	if _, err := principals.LookupPrincipal(context.Background(), "missing"); !errors.Is(err, authzerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreatorsHideDeletedAccounts(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, onboardingentities.CreatorAccount{
		UserID:          "u-1",
		Email:           "alice@example.com",
		Handle:          "alice",
		Role:            onboardingentities.RoleCreator,
		OnboardingState: onboardingentities.StateKYCApproved,
		Discoverable:    true,
	})
	seed(t, store, onboardingentities.CreatorAccount{
		UserID:          "u-2",
		Email:           "gone@example.com",
		Handle:          "gone",
		Role:            onboardingentities.RoleDeleted,
		OnboardingState: onboardingentities.StateKYCApproved,
	})
	creators := Creators{Accounts: store}

	profile, err := creators.GetCreatorByHandle(context.Background(), "alice")
	if err != nil {
		t.Fatalf("by handle: %v", err)
	}
	if profile.UserID != "u-1" || !profile.Discoverable || !profile.CanPublish() {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if _, err := creators.GetCreator(context.Background(), "u-2"); !errors.Is(err, entitlementerrors.ErrCreatorNotFound) {
		t.Fatalf("expected deleted creator to be absent, got %v", err)
	}
	if _, err := creators.GetCreatorByHandle(context.Background(), "nobody"); !errors.Is(err, entitlementerrors.ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}
}
