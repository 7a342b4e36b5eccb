//go:build testbypass

package httpadapter

import (
	"context"
	"strings"

	"fanvault/contexts/identity-access/onboarding-service/application/commands"
	httptransport "fanvault/contexts/identity-access/onboarding-service/transport/http"
)

const testBypassActor = "test-bypass"

// TestForceStateHandler backs the unauthenticated bypass route.
func (h Handler) TestForceStateHandler(
	ctx context.Context,
	req httptransport.ForceStateRequest,
) (httptransport.OverrideResponse, error) {
	result, err := h.Overrides.ForceStateBypass(ctx, commands.ForceStateCommand{
		ActorID: testBypassActor,
		Email:   req.Email,
		State:   req.State,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return httptransport.OverrideResponse{}, err
	}
	return overrideResponse(result), nil
}
