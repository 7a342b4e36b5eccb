package valueobjects

import (
	"strings"

	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
)

// UserID enforces basic identity constraints at the domain boundary.
type UserID string

func NewUserID(v string) (UserID, error) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 64 {
		return "", domainerrors.ErrInvalidUserID
	}
	return UserID(v), nil
}

func (id UserID) String() string {
	return string(id)
}
