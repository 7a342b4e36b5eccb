package services

import (
	"crypto/subtle"

	"fanvault/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
)

const (
	ReasonGranted     = "capability_granted"
	ReasonRoleMissing = "role_missing_capability"
	ReasonSuspended   = "account_suspended"
	ReasonUnknown     = "unknown_capability"
)

// Allows reports whether role grants capability. Deleted accounts hold
// nothing; unknown capabilities are denied.
func Allows(role entities.Role, capability entities.Capability) bool {
	switch role {
	case entities.RoleDeleted:
		return false
	case entities.RoleFan, entities.RoleCreator, entities.RoleAdmin:
	default:
		return false
	}

	switch capability {
	case entities.CapSessionRead:
		return true
	case entities.CapFollowManage, entities.CapPurchase:
		return role == entities.RoleFan || role == entities.RoleCreator
	case entities.CapPostPublish, entities.CapVaultAccess, entities.CapMediaUpload, entities.CapKYCManage:
		return role == entities.RoleCreator
	case entities.CapAdminUsers, entities.CapAdminOverride, entities.CapAdminModerate, entities.CapAdminAudit:
		return role == entities.RoleAdmin
	default:
		return false
	}
}

// Evaluate applies the role check and then the suspension rule. Suspended
// principals keep read access only.
func Evaluate(principal entities.Principal, capability entities.Capability, mutating bool) (string, error) {
	if !isKnown(capability) {
		return ReasonUnknown, domainerrors.ErrInvalidCapability
	}
	if !Allows(principal.Role, capability) {
		return ReasonRoleMissing, domainerrors.ErrForbidden
	}
	if principal.Suspended && mutating {
		return ReasonSuspended, domainerrors.ErrAccountSuspended
	}
	return ReasonGranted, nil
}

// CSRFMatches compares the double-submit cookie and header in constant time.
func CSRFMatches(cookieValue string, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(headerValue)) == 1
}

func isKnown(capability entities.Capability) bool {
	for _, item := range entities.Capabilities() {
		if item == capability {
			return true
		}
	}
	return false
}
