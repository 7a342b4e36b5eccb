package queries

import (
	"context"
	"strings"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

type GetAccountUseCase struct {
	Accounts ports.AccountRepository
}

// ByID returns a live account. Deleted accounts read as not found.
func (u GetAccountUseCase) ByID(ctx context.Context, userID string) (entities.CreatorAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	account, err := u.Accounts.GetAccount(ctx, userID)
	if err != nil {
		return entities.CreatorAccount{}, err
	}
	if account.IsDeleted() {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (u GetAccountUseCase) ByHandle(ctx context.Context, handle string) (entities.CreatorAccount, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	account, err := u.Accounts.GetAccountByHandle(ctx, handle)
	if err != nil {
		return entities.CreatorAccount{}, err
	}
	if account.IsDeleted() {
		return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}
