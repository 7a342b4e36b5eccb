//go:build testbypass

package commands

import (
	"context"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
)

// ForceStateBypass is ForceState recorded under the test bypass audit action.
func (u AdminOverrideUseCase) ForceStateBypass(ctx context.Context, cmd ForceStateCommand) (OverrideResult, error) {
	return u.forceState(ctx, cmd, entities.AuditActionTestBypass)
}
