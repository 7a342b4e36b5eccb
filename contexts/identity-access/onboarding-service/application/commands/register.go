package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	application "fanvault/contexts/identity-access/onboarding-service/application"
	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/idempotency"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72

	EmailDeliverySent   = "sent"
	EmailDeliveryFailed = "failed"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

type RegisterCommand struct {
	IdempotencyKey string
	Email          string
	Password       string
	Handle         string
	Role           string
}

type RegisterResult struct {
	CreatorID           string `json:"creator_id"`
	Email               string `json:"email"`
	Handle              string `json:"handle"`
	Role                string `json:"role"`
	OnboardingState     string `json:"onboarding_state"`
	EmailDeliveryStatus string `json:"email_delivery_status"`
	Replayed            bool   `json:"-"`
}

// RegisterUseCase creates an account in CREATED state and sends the
// verification email.
type RegisterUseCase struct {
	Accounts        ports.AccountRepository
	Hasher          ports.PasswordHasher
	Tokens          ports.TokenSource
	Email           ports.EmailSender
	Idempotency     idempotency.Guard
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	AdminEmails     []string
	VerificationTTL time.Duration
	Logger          *slog.Logger
}

func (u RegisterUseCase) Execute(ctx context.Context, cmd RegisterCommand) (RegisterResult, error) {
	logger := application.ResolveLogger(u.Logger)

	email, err := normalizeEmail(cmd.Email)
	if err != nil {
		return RegisterResult{}, err
	}
	if n := utf8.RuneCountInString(cmd.Password); n < minPasswordLength {
		return RegisterResult{}, domainerrors.ErrPasswordTooShort
	} else if len(cmd.Password) > maxPasswordLength {
		return RegisterResult{}, domainerrors.ErrValidation
	}
	requestedHandle := strings.ToLower(strings.TrimSpace(cmd.Handle))
	if requestedHandle != "" && !handlePattern.MatchString(requestedHandle) {
		return RegisterResult{}, domainerrors.ErrInvalidHandle
	}
	role, err := u.resolveRole(email, cmd.Role)
	if err != nil {
		return RegisterResult{}, err
	}

	logger.Info("register started",
		"event", "onboarding_register_started",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"role", string(role),
	)

	requestHash, err := idempotency.HashRequest(struct {
		Email    string `json:"email"`
		Password string `json:"password_sha256"`
		Handle   string `json:"handle"`
		Role     string `json:"role"`
	}{
		Email:    email,
		Password: HashToken(cmd.Password),
		Handle:   requestedHandle,
		Role:     string(role),
	})
	if err != nil {
		return RegisterResult{}, err
	}

	result, replayed, err := idempotency.RunJSON(ctx, u.Idempotency, idempotency.Request{
		Operation:   "auth.register",
		Scope:       email,
		Key:         cmd.IdempotencyKey,
		RequestHash: requestHash,
	}, func(ctx context.Context) (RegisterResult, error) {
		return u.register(ctx, email, cmd.Password, requestedHandle, role)
	})
	if err != nil {
		logger.Warn("register failed",
			"event", "onboarding_register_failed",
			"module", "identity-access/onboarding-service",
			"layer", "application",
			"error", err.Error(),
		)
		return RegisterResult{}, err
	}
	result.Replayed = replayed

	logger.Info("register completed",
		"event", "onboarding_register_completed",
		"module", "identity-access/onboarding-service",
		"layer", "application",
		"creator_id", result.CreatorID,
		"email_delivery_status", result.EmailDeliveryStatus,
		"replayed", replayed,
	)
	return result, nil
}

func (u RegisterUseCase) register(
	ctx context.Context,
	email string,
	password string,
	requestedHandle string,
	role entities.Role,
) (RegisterResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if _, err := u.Accounts.GetAccountByEmail(ctx, email); err == nil {
		return RegisterResult{}, domainerrors.ErrEmailTaken
	} else if !errors.Is(err, domainerrors.ErrAccountNotFound) {
		return RegisterResult{}, err
	}

	handle, err := u.resolveHandle(ctx, email, requestedHandle)
	if err != nil {
		return RegisterResult{}, err
	}
	passwordHash, err := u.Hasher.Hash(password)
	if err != nil {
		return RegisterResult{}, err
	}
	userID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RegisterResult{}, err
	}
	token, err := u.Tokens.NewToken()
	if err != nil {
		return RegisterResult{}, err
	}

	now := resolveNow(u.Clock)
	account := entities.CreatorAccount{
		UserID:          userID,
		Email:           email,
		Handle:          handle,
		PasswordHash:    passwordHash,
		Role:            role,
		OnboardingState: entities.StateCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	audit, err := buildAudit(ctx, u.IDGenerator, userID, entities.AuditActionRegistered, account, entities.StateCreated, "", now)
	if err != nil {
		return RegisterResult{}, err
	}
	event, err := buildOutbox(ctx, u.IDGenerator, EventTypeAccountRegistered, userID, now, struct {
		UserID string `json:"user_id"`
		Handle string `json:"handle"`
		Role   string `json:"role"`
	}{UserID: userID, Handle: handle, Role: string(role)})
	if err != nil {
		return RegisterResult{}, err
	}

	if err := u.Accounts.CreateAccount(ctx, ports.CreateAccountInput{
		Account: account,
		Token: entities.VerificationToken{
			TokenHash: HashToken(token),
			UserID:    userID,
			ExpiresAt: now.Add(u.verificationTTL()),
			CreatedAt: now,
		},
		Audit:  audit,
		Outbox: event,
	}); err != nil {
		return RegisterResult{}, err
	}

	delivery := EmailDeliverySent
	if u.Email == nil {
		delivery = EmailDeliveryFailed
	} else if err := u.Email.SendVerification(ctx, email, token); err != nil {
		delivery = EmailDeliveryFailed
		logger.Warn("verification email delivery failed",
			"event", "onboarding_verification_email_failed",
			"module", "identity-access/onboarding-service",
			"layer", "application",
			"creator_id", userID,
			"error", err.Error(),
		)
	}

	return RegisterResult{
		CreatorID:           userID,
		Email:               email,
		Handle:              handle,
		Role:                string(role),
		OnboardingState:     string(entities.StateCreated),
		EmailDeliveryStatus: delivery,
	}, nil
}

func (u RegisterUseCase) resolveRole(email string, raw string) (entities.Role, error) {
	for _, admin := range u.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return entities.RoleAdmin, nil
		}
	}
	if strings.TrimSpace(raw) == "" {
		return entities.RoleCreator, nil
	}
	role, ok := entities.ParseRole(raw)
	if !ok || (role != entities.RoleCreator && role != entities.RoleFan) {
		return "", domainerrors.ErrInvalidRole
	}
	return role, nil
}

// resolveHandle uses the requested handle when given, otherwise derives one
// from the email local part and appends a numeric suffix on collision.
func (u RegisterUseCase) resolveHandle(ctx context.Context, email string, requested string) (string, error) {
	if requested != "" {
		exists, err := u.Accounts.HandleExists(ctx, requested)
		if err != nil {
			return "", err
		}
		if exists {
			return "", domainerrors.ErrHandleTaken
		}
		return requested, nil
	}

	base := deriveHandle(email)
	for attempt := 0; attempt < 20; attempt++ {
		candidate := base
		if attempt > 0 {
			suffix := strconv.Itoa(attempt + 1)
			if len(base)+len(suffix) > 30 {
				candidate = base[:30-len(suffix)] + suffix
			} else {
				candidate = base + suffix
			}
		}
		exists, err := u.Accounts.HandleExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", domainerrors.ErrHandleTaken
}

func (u RegisterUseCase) verificationTTL() time.Duration {
	if u.VerificationTTL <= 0 {
		return 24 * time.Hour
	}
	return u.VerificationTTL
}

func normalizeEmail(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", domainerrors.ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(value)
	if err != nil || parsed.Address != value || !strings.Contains(value, "@") {
		return "", domainerrors.ErrInvalidEmail
	}
	return value, nil
}

func deriveHandle(email string) string {
	local := email
	if idx := strings.Index(email, "@"); idx > 0 {
		local = email[:idx]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	handle := strings.Trim(b.String(), "_")
	for len(handle) < 3 {
		handle += "0"
	}
	if len(handle) > 30 {
		handle = handle[:30]
	}
	return handle
}
