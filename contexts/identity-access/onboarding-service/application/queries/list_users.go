package queries

import (
	"context"
	"strings"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type ListUsersQuery struct {
	Role   string
	State  string
	Cursor string
	Limit  int
}

type ListUsersResult struct {
	Items      []entities.CreatorAccount
	NextCursor string
}

type ListUsersUseCase struct {
	Accounts ports.AccountRepository
}

func (u ListUsersUseCase) Execute(ctx context.Context, query ListUsersQuery) (ListUsersResult, error) {
	filter := ports.AccountFilter{Cursor: strings.TrimSpace(query.Cursor), Limit: clampLimit(query.Limit)}
	if strings.TrimSpace(query.Role) != "" {
		role, ok := entities.ParseRole(query.Role)
		if !ok {
			return ListUsersResult{}, domainerrors.ErrInvalidRole
		}
		filter.Role = role
	}
	if strings.TrimSpace(query.State) != "" {
		state, ok := entities.ParseOnboardingState(query.State)
		if !ok {
			return ListUsersResult{}, domainerrors.ErrInvalidTargetState
		}
		filter.State = state
	}
	items, next, err := u.Accounts.ListAccounts(ctx, filter)
	if err != nil {
		return ListUsersResult{}, err
	}
	return ListUsersResult{Items: items, NextCursor: next}, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageLimit
	case limit > maxPageLimit:
		return maxPageLimit
	default:
		return limit
	}
}
