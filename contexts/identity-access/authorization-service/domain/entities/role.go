package entities

import "strings"

// Role is the closed set of account roles the guard understands.
type Role string

const (
	RoleFan     Role = "fan"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
	RoleDeleted Role = "deleted"
)

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleFan, RoleCreator, RoleAdmin, RoleDeleted:
		return role, true
	default:
		return "", false
	}
}

// Capability names one guarded operation family.
type Capability string

const (
	// CapSessionRead is held by every live account.
	CapSessionRead Capability = "session.read"

	CapFollowManage Capability = "follow.manage"
	CapPurchase     Capability = "ppv.purchase"

	CapPostPublish Capability = "post.publish"
	CapVaultAccess Capability = "vault.access"
	CapMediaUpload Capability = "media.upload"
	CapKYCManage   Capability = "kyc.manage"

	CapAdminUsers    Capability = "admin.users"
	CapAdminOverride Capability = "admin.override"
	CapAdminModerate Capability = "admin.moderate"
	CapAdminAudit    Capability = "admin.audit"
)

// Capabilities lists every capability in a stable order.
func Capabilities() []Capability {
	return []Capability{
		CapSessionRead,
		CapFollowManage,
		CapPurchase,
		CapPostPublish,
		CapVaultAccess,
		CapMediaUpload,
		CapKYCManage,
		CapAdminUsers,
		CapAdminOverride,
		CapAdminModerate,
		CapAdminAudit,
	}
}
