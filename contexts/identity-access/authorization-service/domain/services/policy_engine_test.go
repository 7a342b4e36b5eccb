package services

import (
	"errors"
	"testing"

	"fanvault/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
)

func TestAllowsMatrix(t *testing.T) {
	creatorOnly := []entities.Capability{
		entities.CapPostPublish, entities.CapVaultAccess, entities.CapMediaUpload, entities.CapKYCManage,
	}
	adminOnly := []entities.Capability{
		entities.CapAdminUsers, entities.CapAdminOverride, entities.CapAdminModerate, entities.CapAdminAudit,
	}

	for _, capability := range creatorOnly {
		if !Allows(entities.RoleCreator, capability) {
			t.Fatalf("creator should hold %s", capability)
		}
		if Allows(entities.RoleFan, capability) {
			t.Fatalf("fan must not hold %s", capability)
		}
		if Allows(entities.RoleAdmin, capability) {
			t.Fatalf("admin must not hold %s", capability)
		}
	}
	for _, capability := range adminOnly {
		if !Allows(entities.RoleAdmin, capability) {
			t.Fatalf("admin should hold %s", capability)
		}
		if Allows(entities.RoleCreator, capability) || Allows(entities.RoleFan, capability) {
			t.Fatalf("non-admin must not hold %s", capability)
		}
	}
	for _, capability := range entities.Capabilities() {
		if Allows(entities.RoleDeleted, capability) {
			t.Fatalf("deleted role must hold nothing, got %s", capability)
		}
		if Allows(entities.Role("root"), capability) {
			t.Fatalf("unknown role must hold nothing, got %s", capability)
		}
	}
	if !Allows(entities.RoleFan, entities.CapFollowManage) || !Allows(entities.RoleFan, entities.CapPurchase) {
		t.Fatal("fan should follow and purchase")
	}
}

func TestEvaluateSuspendedReadOnly(t *testing.T) {
	principal := entities.Principal{UserID: "c1", Role: entities.RoleCreator, Suspended: true}

	if _, err := Evaluate(principal, entities.CapKYCManage, false); err != nil {
		t.Fatalf("suspended read should pass, got %v", err)
	}
	reason, err := Evaluate(principal, entities.CapPostPublish, true)
	if !errors.Is(err, domainerrors.ErrAccountSuspended) || reason != ReasonSuspended {
		t.Fatalf("expected account_suspended, got %s %v", reason, err)
	}
}

func TestEvaluateChecksRoleBeforeSuspension(t *testing.T) {
	principal := entities.Principal{UserID: "f1", Role: entities.RoleFan, Suspended: true}
	if _, err := Evaluate(principal, entities.CapPostPublish, true); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := Evaluate(principal, entities.Capability("bogus"), false); !errors.Is(err, domainerrors.ErrInvalidCapability) {
		t.Fatalf("expected invalid capability, got %v", err)
	}
}

func TestCSRFMatches(t *testing.T) {
	if CSRFMatches("", "") {
		t.Fatal("empty values must not match")
	}
	if CSRFMatches("abc", "abd") {
		t.Fatal("different values must not match")
	}
	if !CSRFMatches("abc", "abc") {
		t.Fatal("equal values must match")
	}
}
