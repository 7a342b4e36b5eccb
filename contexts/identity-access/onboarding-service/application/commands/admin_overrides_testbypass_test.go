//go:build testbypass

package commands

import (
	"context"
	"testing"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	"fanvault/contexts/identity-access/onboarding-service/ports"
)

func TestForceStateBypassUsesItsOwnAuditAction(t *testing.T) {
	f := newFixture()
	creatorID := f.verifiedCreator(t, "bypass@example.com")

	result, err := f.admin.ForceStateBypass(context.Background(), ForceStateCommand{
		ActorID: "test-bypass",
		Email:   "bypass@example.com",
		State:   "KYC_APPROVED",
	})
	if err != nil || result.State != string(entities.StateKYCApproved) {
		t.Fatalf("bypass: %+v err=%v", result, err)
	}

	entries, _, err := f.store.ListAudit(context.Background(), ports.AuditFilter{TargetUserID: creatorID})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) == 0 || entries[0].Action != entities.AuditActionTestBypass || entries[0].ActorID != "test-bypass" {
		t.Fatalf("unexpected audit trail %+v", entries)
	}
}
