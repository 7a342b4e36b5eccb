package commands

import (
	"context"
	"log/slog"
	"time"

	application "fanvault/contexts/identity-access/authorization-service/application"
	"fanvault/contexts/identity-access/authorization-service/domain/valueobjects"
	"fanvault/contexts/identity-access/authorization-service/ports"
)

const defaultSessionTTL = 7 * 24 * time.Hour

type IssueSessionCommand struct {
	UserID string
	Role   string
}

// IssuedSession is the token pair written to the session and CSRF cookies.
type IssuedSession struct {
	Token     string
	CSRFToken string
	ExpiresAt time.Time
}

// IssueSessionUseCase signs a session token for an authenticated account.
type IssueSessionUseCase struct {
	Signer  ports.TokenSigner
	Secrets ports.SecretSource
	Clock   ports.Clock
	TTL     time.Duration
	Logger  *slog.Logger
}

func (u IssueSessionUseCase) Execute(ctx context.Context, cmd IssueSessionCommand) (IssuedSession, error) {
	logger := application.ResolveLogger(u.Logger)
	userID, err := valueobjects.NewUserID(cmd.UserID)
	if err != nil {
		return IssuedSession{}, err
	}

	now := u.now()
	expiresAt := now.Add(u.ttl())
	token, err := u.Signer.Sign(ports.SessionClaims{
		UserID:    userID.String(),
		Role:      cmd.Role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		logger.Error("session token signing failed",
			"event", "authz_session_sign_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return IssuedSession{}, err
	}
	csrf, err := u.Secrets.NewSecret()
	if err != nil {
		return IssuedSession{}, err
	}

	logger.Info("session issued",
		"event", "authz_session_issued",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID.String(),
		"expires_at", expiresAt,
	)
	return IssuedSession{Token: token, CSRFToken: csrf, ExpiresAt: expiresAt}, nil
}

func (u IssueSessionUseCase) ttl() time.Duration {
	if u.TTL <= 0 {
		return defaultSessionTTL
	}
	return u.TTL
}

func (u IssueSessionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
