// Package directory adapts the onboarding account store onto the read ports
// other contexts declare. Contexts never import each other; this package is
// the only place where their types meet.
package directory

import (
	"context"
	"errors"

	entitlemententities "fanvault/contexts/content-access/entitlement-service/domain/entities"
	entitlementerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	entitlementports "fanvault/contexts/content-access/entitlement-service/ports"
	authzentities "fanvault/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
	authzports "fanvault/contexts/identity-access/authorization-service/ports"
	onboardingentities "fanvault/contexts/identity-access/onboarding-service/domain/entities"
	onboardingerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	onboardingports "fanvault/contexts/identity-access/onboarding-service/ports"
)

var (
	_ authzports.PrincipalDirectory     = Principals{}
	_ entitlementports.CreatorDirectory = Creators{}
)

// Principals serves the authorization guard. Every request re-reads the
// account, so role and suspension changes apply immediately.
type Principals struct {
	Accounts onboardingports.AccountRepository
}

func (p Principals) LookupPrincipal(ctx context.Context, userID string) (authzports.PrincipalRecord, error) {
	account, err := p.Accounts.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, onboardingerrors.ErrAccountNotFound) {
			return authzports.PrincipalRecord{}, authzerrors.ErrUserNotFound
		}
		return authzports.PrincipalRecord{}, err
	}
	role, ok := authzentities.ParseRole(string(account.Role))
	if !ok {
		role = authzentities.RoleDeleted
	}
	return authzports.PrincipalRecord{
		UserID:          account.UserID,
		Role:            role,
		OnboardingState: string(account.OnboardingState),
		Suspended:       account.IsSuspended(),
	}, nil
}

// Creators serves the entitlement catalogue. Deleted accounts read as absent.
type Creators struct {
	Accounts onboardingports.AccountRepository
}

func (c Creators) GetCreator(ctx context.Context, userID string) (entitlemententities.CreatorProfile, error) {
	account, err := c.Accounts.GetAccount(ctx, userID)
	return creatorProfile(account, err)
}

func (c Creators) GetCreatorByHandle(ctx context.Context, handle string) (entitlemententities.CreatorProfile, error) {
	account, err := c.Accounts.GetAccountByHandle(ctx, handle)
	return creatorProfile(account, err)
}

func creatorProfile(account onboardingentities.CreatorAccount, err error) (entitlemententities.CreatorProfile, error) {
	if err != nil {
		if errors.Is(err, onboardingerrors.ErrAccountNotFound) {
			return entitlemententities.CreatorProfile{}, entitlementerrors.ErrCreatorNotFound
		}
		return entitlemententities.CreatorProfile{}, err
	}
	if account.IsDeleted() {
		return entitlemententities.CreatorProfile{}, entitlementerrors.ErrCreatorNotFound
	}
	return entitlemententities.CreatorProfile{
		UserID:          account.UserID,
		Handle:          account.Handle,
		Role:            string(account.Role),
		OnboardingState: string(account.OnboardingState),
		Discoverable:    account.Discoverable,
	}, nil
}
