package postgresadapter

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists posts and entitlement facts.
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

func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&postModel{},
		&followModel{},
		&subscriptionModel{},
		&purchaseModel{},
	); err != nil {
		return fmt.Errorf("migrate entitlement tables: %w", err)
	}
	return nil
}

func (r *Repository) CreatePost(ctx context.Context, post entities.Post) error {
	row := postModelFromEntity(post)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRequest
		}
		return err
	}
	return nil
}

func (r *Repository) UpdatePost(ctx context.Context, post entities.Post) error {
	row := postModelFromEntity(post)
	result := r.db.WithContext(ctx).
		Model(&postModel{}).
		Where("post_id = ?", row.PostID).
		Select("title", "body", "visibility", "price_cents", "asset_ids", "status", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPostNotFound
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, postID string) (entities.Post, error) {
	var row postModel
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Post{}, domainerrors.ErrPostNotFound
		}
		return entities.Post{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPosts(ctx context.Context, filter ports.PostListFilter) ([]entities.Post, string, error) {
	if len(filter.CreatorUserIDs) == 0 {
		return []entities.Post{}, "", nil
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}

	tx := r.db.WithContext(ctx).
		Model(&postModel{}).
		Where("creator_user_id IN ?", filter.CreatorUserIDs)
	if !filter.IncludeDrafts {
		tx = tx.Where("status = ?", string(entities.PostStatusPublished))
	}

	var rows []postModel
	if err := tx.Order("created_at DESC").Order("post_id DESC").
		Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}
	items := make([]entities.Post, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

// LoadSnapshot reads follows, subscriptions and purchases in one read-only
// REPEATABLE READ transaction.
func (r *Repository) LoadSnapshot(ctx context.Context, request ports.SnapshotRequest) (entities.ViewerSnapshot, error) {
	snapshot := entities.ViewerSnapshot{
		ViewerID:      request.ViewerID,
		Follows:       make(map[string]bool, len(request.CreatorIDs)),
		Subscriptions: make(map[string]bool, len(request.CreatorIDs)),
		Purchases:     make(map[string]bool, len(request.PostIDs)),
	}
	if request.ViewerID == "" {
		return snapshot, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(request.CreatorIDs) > 0 {
			var follows []followModel
			if err := tx.Where("fan_user_id = ? AND creator_user_id IN ?", request.ViewerID, request.CreatorIDs).
				Find(&follows).Error; err != nil {
				return err
			}
			for _, row := range follows {
				snapshot.Follows[row.CreatorUserID] = true
			}

			var subscriptions []subscriptionModel
			if err := tx.Where("fan_user_id = ? AND creator_user_id IN ?", request.ViewerID, request.CreatorIDs).
				Find(&subscriptions).Error; err != nil {
				return err
			}
			for _, row := range subscriptions {
				if entities.SubscriptionStatus(row.Status) == entities.SubscriptionActive {
					snapshot.Subscriptions[row.CreatorUserID] = true
				}
			}
		}
		if len(request.PostIDs) > 0 {
			var purchases []purchaseModel
			if err := tx.Where("fan_user_id = ? AND post_id IN ?", request.ViewerID, request.PostIDs).
				Find(&purchases).Error; err != nil {
				return err
			}
			for _, row := range purchases {
				snapshot.Purchases[row.PostID] = true
			}
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		r.logger.Warn("entitlement snapshot query failed",
			"event", "entitlement_snapshot_query_failed",
			"module", "content-access/entitlement-service",
			"layer", "adapter",
			"viewer_id", request.ViewerID,
			"error", err.Error(),
		)
		return entities.ViewerSnapshot{}, err
	}
	return snapshot, nil
}

func (r *Repository) Follow(ctx context.Context, edge entities.FollowEdge) (bool, error) {
	row := followModel{
		FanUserID:     edge.FanUserID,
		CreatorUserID: edge.CreatorUserID,
		CreatedAt:     edge.CreatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Unfollow(ctx context.Context, fanUserID string, creatorUserID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("fan_user_id = ? AND creator_user_id = ?", fanUserID, creatorUserID).
		Delete(&followModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListFollowing(ctx context.Context, fanUserID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&followModel{}).
		Where("fan_user_id = ?", fanUserID).
		Order("creator_user_id ASC").
		Pluck("creator_user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) UpsertSubscription(ctx context.Context, subscription entities.Subscription) error {
	row := subscriptionModel{
		FanUserID:         subscription.FanUserID,
		CreatorUserID:     subscription.CreatorUserID,
		Status:            string(subscription.Status),
		CancelAtPeriodEnd: subscription.CancelAtPeriodEnd,
		UpdatedAt:         subscription.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fan_user_id"}, {Name: "creator_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "cancel_at_period_end", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *Repository) RecordPurchase(ctx context.Context, purchase entities.Purchase) (bool, error) {
	row := purchaseModel{
		FanUserID:   purchase.FanUserID,
		PostID:      purchase.PostID,
		PurchasedAt: purchase.PurchasedAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func decodeCursor(cursor string) (int, error) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domainerrors.ErrInvalidRequest
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, domainerrors.ErrInvalidRequest
	}
	return offset, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
