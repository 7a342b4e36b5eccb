package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintEmail        = "creator_accounts_email_key"
	constraintHandle       = "creator_accounts_handle_key"
	constraintSessionKey   = "identity_sessions_creator_key"
	constraintOneOpen      = "identity_sessions_one_open"
	sessionStatusCreated   = string(entities.SessionStatusCreated)
	sessionStatusCompleted = string(entities.SessionStatusCompleted)
)

// Repository persists onboarding state. Every lifecycle write runs in one
// transaction guarded by a compare-and-swap on the stored state.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the onboarding tables. The partial index keeps at most one
// open verification session per creator.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&accountModel{},
		&verificationTokenModel{},
		&sessionModel{},
		&auditModel{},
		&outboxModel{},
	); err != nil {
		return fmt.Errorf("migrate onboarding tables: %w", err)
	}
	// gorm-postgres-enforcer: allow-raw-sql partial unique index has no gorm tag form
	if err := r.db.WithContext(ctx).Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS " + constraintOneOpen +
			" ON identity_sessions (creator_user_id) WHERE status = '" + sessionStatusCreated + "'",
	).Error; err != nil {
		return fmt.Errorf("create open session index: %w", err)
	}
	return nil
}

func (r *Repository) CreateAccount(ctx context.Context, input ports.CreateAccountInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := accountModelFromEntity(input.Account)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				if constraintName(err) == constraintHandle {
					return domainerrors.ErrHandleTaken
				}
				return domainerrors.ErrEmailTaken
			}
			return err
		}
		if input.Token.TokenHash != "" {
			token := verificationTokenModel{
				TokenHash: input.Token.TokenHash,
				UserID:    input.Token.UserID,
				ExpiresAt: input.Token.ExpiresAt.UTC(),
				CreatedAt: input.Token.CreatedAt.UTC(),
			}
			if err := tx.Create(&token).Error; err != nil {
				return err
			}
		}
		if err := insertAudit(tx, input.Audit); err != nil {
			return err
		}
		return insertOutbox(tx, input.Outbox)
	})
}

func (r *Repository) GetAccount(ctx context.Context, userID string) (entities.CreatorAccount, error) {
	return r.firstAccount(ctx, "user_id = ?", strings.TrimSpace(userID))
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (entities.CreatorAccount, error) {
	return r.firstAccount(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) GetAccountByHandle(ctx context.Context, handle string) (entities.CreatorAccount, error) {
	return r.firstAccount(ctx, "handle = ?", strings.ToLower(strings.TrimSpace(handle)))
}

func (r *Repository) HandleExists(ctx context.Context, handle string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("handle = ?", strings.ToLower(strings.TrimSpace(handle))).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListAccounts(ctx context.Context, filter ports.AccountFilter) ([]entities.CreatorAccount, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	tx := r.db.WithContext(ctx).Model(&accountModel{})
	if filter.Role != "" {
		tx = tx.Where("role = ?", string(filter.Role))
	}
	if filter.State != "" {
		tx = tx.Where("onboarding_state = ?", string(filter.State))
	}
	offset := decodeCursor(filter.Cursor)

	var rows []accountModel
	if err := tx.Order("created_at ASC").Order("user_id ASC").Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}
	items := make([]entities.CreatorAccount, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) GetVerificationToken(ctx context.Context, tokenHash string) (entities.VerificationToken, error) {
	var row verificationTokenModel
	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VerificationToken{}, domainerrors.ErrInvalidToken
		}
		return entities.VerificationToken{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ApplyTransition(ctx context.Context, input ports.TransitionInput) (entities.CreatorAccount, error) {
	var updated entities.CreatorAccount
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := input.Next.UpdatedAt.UTC()

		// The session CAS runs first so a losing concurrent completion reports
		// already_completed rather than a state conflict.
		if input.CompleteSession != nil {
			result := tx.Model(&sessionModel{}).
				Where("session_id = ?", input.CompleteSession.SessionID).
				Where("status = ?", sessionStatusCreated).
				Updates(map[string]any{
					"status":       sessionStatusCompleted,
					"verdict":      string(input.CompleteSession.Verdict),
					"completed_at": input.CompleteSession.CompletedAt.UTC(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&sessionModel{}).Where("session_id = ?", input.CompleteSession.SessionID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return domainerrors.ErrSessionNotFound
				}
				return domainerrors.ErrSessionCompleted
			}
		}

		updates := map[string]any{
			"onboarding_state": string(input.Next.OnboardingState),
			"suspended_from":   string(input.Next.SuspendedFrom),
			"discoverable":     input.Next.Discoverable,
			"updated_at":       now,
		}
		if input.Next.EmailVerifiedAt != nil {
			updates["email_verified_at"] = gorm.Expr("COALESCE(email_verified_at, ?)", input.Next.EmailVerifiedAt.UTC())
		}
		result := tx.Model(&accountModel{}).
			Where("user_id = ?", input.UserID).
			Where("onboarding_state = ?", string(input.ExpectedState)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&accountModel{}).Where("user_id = ?", input.UserID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrAccountNotFound
			}
			return domainerrors.ErrStateConflict
		}

		if input.ConsumeTokenHash != "" {
			result := tx.Model(&verificationTokenModel{}).
				Where("token_hash = ?", input.ConsumeTokenHash).
				Where("consumed_at IS NULL").
				Update("consumed_at", now)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domainerrors.ErrInvalidToken
			}
		}

		if input.CloseOpenSession != "" {
			if err := tx.Model(&sessionModel{}).
				Where("creator_user_id = ?", input.UserID).
				Where("status = ?", sessionStatusCreated).
				Updates(map[string]any{
					"status":       sessionStatusCompleted,
					"verdict":      string(input.CloseOpenSession),
					"completed_at": now,
				}).Error; err != nil {
				return err
			}
		}

		if input.OpenSession != nil {
			row := sessionModelFromEntity(*input.OpenSession)
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					switch constraintName(err) {
					case constraintSessionKey:
						return domainerrors.ErrDuplicateSessionKey
					case constraintOneOpen:
						return domainerrors.ErrOpenSessionExists
					}
					return domainerrors.ErrDuplicateSessionKey
				}
				return err
			}
		}

		if err := insertAudit(tx, input.Audit); err != nil {
			return err
		}
		if err := insertOutbox(tx, input.Outbox); err != nil {
			return err
		}

		var row accountModel
		if err := tx.Where("user_id = ?", input.UserID).First(&row).Error; err != nil {
			return err
		}
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			r.logger.Error("onboarding transition failed",
				"event", "onboarding_postgres_transition_failed",
				"module", "identity-access/onboarding-service",
				"layer", "adapter",
				"user_id", input.UserID,
				"error", err.Error(),
			)
		}
		return entities.CreatorAccount{}, err
	}
	return updated, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, input ports.AccountUpdateInput) (entities.CreatorAccount, error) {
	var updated entities.CreatorAccount
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": input.UpdatedAt.UTC()}
		if input.Role != nil {
			updates["role"] = string(*input.Role)
		}
		if input.VerifiedBadge != nil {
			updates["verified_badge"] = *input.VerifiedBadge
		}
		if input.Featured != nil {
			updates["featured"] = *input.Featured
		}
		result := tx.Model(&accountModel{}).Where("user_id = ?", input.UserID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrAccountNotFound
		}
		if err := insertAudit(tx, input.Audit); err != nil {
			return err
		}
		if err := insertOutbox(tx, input.Outbox); err != nil {
			return err
		}
		var row accountModel
		if err := tx.Where("user_id = ?", input.UserID).First(&row).Error; err != nil {
			return err
		}
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.CreatorAccount{}, err
	}
	return updated, nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (entities.IdentitySession, error) {
	session, found, err := r.firstSession(ctx, r.db.WithContext(ctx).Where("session_id = ?", strings.TrimSpace(sessionID)))
	if err != nil {
		return entities.IdentitySession{}, err
	}
	if !found {
		return entities.IdentitySession{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (r *Repository) FindSessionByKey(ctx context.Context, creatorUserID string, idempotencyKey string) (entities.IdentitySession, bool, error) {
	return r.firstSession(ctx, r.db.WithContext(ctx).
		Where("creator_user_id = ?", creatorUserID).
		Where("idempotency_key = ?", idempotencyKey))
}

func (r *Repository) FindOpenSession(ctx context.Context, creatorUserID string) (entities.IdentitySession, bool, error) {
	return r.firstSession(ctx, r.db.WithContext(ctx).
		Where("creator_user_id = ?", creatorUserID).
		Where("status = ?", sessionStatusCreated))
}

func (r *Repository) LatestSession(ctx context.Context, creatorUserID string) (entities.IdentitySession, bool, error) {
	return r.firstSession(ctx, r.db.WithContext(ctx).
		Where("creator_user_id = ?", creatorUserID).
		Order("created_at DESC").
		Order("session_id DESC"))
}

func (r *Repository) ListAudit(ctx context.Context, filter ports.AuditFilter) ([]entities.AuditEntry, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	tx := r.db.WithContext(ctx).Model(&auditModel{})
	if filter.TargetUserID != "" {
		tx = tx.Where("target_user_id = ?", filter.TargetUserID)
	}
	offset := decodeCursor(filter.Cursor)

	var rows []auditModel
	if err := tx.Order("occurred_at DESC").Order("audit_id DESC").Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}
	items := make([]entities.AuditEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			Status:       row.Status,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("mark outbox %s sent: row not found", outboxID)
	}
	return nil
}

func (r *Repository) firstAccount(ctx context.Context, query string, arg any) (entities.CreatorAccount, error) {
	var row accountModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CreatorAccount{}, domainerrors.ErrAccountNotFound
		}
		return entities.CreatorAccount{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) firstSession(_ context.Context, tx *gorm.DB) (entities.IdentitySession, bool, error) {
	var row sessionModel
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.IdentitySession{}, false, nil
		}
		return entities.IdentitySession{}, false, err
	}
	return row.toEntity(), true, nil
}

func insertAudit(tx *gorm.DB, entry entities.AuditEntry) error {
	if strings.TrimSpace(entry.AuditID) == "" {
		return nil
	}
	row := auditModelFromEntity(entry)
	return tx.Create(&row).Error
}

func insertOutbox(tx *gorm.DB, event *ports.OutboxEvent) error {
	if event == nil {
		return nil
	}
	payload, err := json.Marshal(event.Envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     event.OutboxID,
		EventType:    event.Envelope.EventType,
		PartitionKey: event.Envelope.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    event.Envelope.OccurredAtUTC.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domainerrors.ErrAccountNotFound,
		domainerrors.ErrStateConflict,
		domainerrors.ErrSessionNotFound,
		domainerrors.ErrSessionCompleted,
		domainerrors.ErrInvalidToken,
		domainerrors.ErrDuplicateSessionKey,
		domainerrors.ErrOpenSessionExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0
	}
	return index
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
