package commands

import (
	"context"
	"errors"
	"log/slog"

	application "fanvault/contexts/identity-access/onboarding-service/application"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

type LoginCommand struct {
	Email    string
	Password string
}

type LoginResult struct {
	UserID string
	Role   string
	State  string
}

// LoginUseCase checks credentials. Session issuance belongs to authorization.
type LoginUseCase struct {
	Accounts ports.AccountRepository
	Hasher   ports.PasswordHasher
	Logger   *slog.Logger
}

func (u LoginUseCase) Execute(ctx context.Context, cmd LoginCommand) (LoginResult, error) {
	logger := application.ResolveLogger(u.Logger)
	email, err := normalizeEmail(cmd.Email)
	if err != nil || cmd.Password == "" {
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}

	account, err := u.Accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return LoginResult{}, domainerrors.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if account.IsDeleted() {
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}
	if err := u.Hasher.Compare(account.PasswordHash, cmd.Password); err != nil {
		logger.Info("login rejected",
			"event", "onboarding_login_rejected",
			"module", "identity-access/onboarding-service",
			"layer", "application",
			"user_id", account.UserID,
		)
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}
	if account.IsSuspended() {
		return LoginResult{}, domainerrors.ErrAccountSuspended
	}

	logger.Info("login succeeded",
		"event", "onboarding_login_succeeded",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"user_id", account.UserID,
	)
	return LoginResult{
		UserID: account.UserID,
		Role:   string(account.Role),
		State:  string(account.OnboardingState),
	}, nil
}
