package queries

import (
	"context"
	"strings"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

type StatusResult struct {
	SessionStatus string `json:"session_status"`
	CreatorState  string `json:"creator_state"`
	SessionID     string `json:"session_id,omitempty"`
	Verdict       string `json:"verdict,omitempty"`
}

// GetStatusUseCase reports the latest verification session and account state.
type GetStatusUseCase struct {
	Accounts ports.AccountRepository
	Sessions ports.SessionRepository
}

func (u GetStatusUseCase) Execute(ctx context.Context, creatorID string) (StatusResult, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return StatusResult{}, domainerrors.ErrInvalidRequest
	}
	account, err := u.Accounts.GetAccount(ctx, creatorID)
	if err != nil {
		return StatusResult{}, err
	}
	session, found, err := u.Sessions.LatestSession(ctx, creatorID)
	if err != nil {
		return StatusResult{}, err
	}
	if !found {
		return StatusResult{
			SessionStatus: string(entities.SessionStatusNone),
			CreatorState:  string(account.OnboardingState),
		}, nil
	}
	return StatusResult{
		SessionStatus: string(session.Status),
		CreatorState:  string(account.OnboardingState),
		SessionID:     session.SessionID,
		Verdict:       string(session.Verdict),
	}, nil
}
