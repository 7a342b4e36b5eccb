package postgresadapter

import (
	"time"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
)

type postModel struct {
	PostID        string    `gorm:"column:post_id;primaryKey"`
	CreatorUserID string    `gorm:"column:creator_user_id;index:posts_creator_created_idx,priority:1"`
	Title         string    `gorm:"column:title"`
	Body          string    `gorm:"column:body"`
	Visibility    string    `gorm:"column:visibility"`
	PriceCents    *int64    `gorm:"column:price_cents"`
	AssetIDs      []string  `gorm:"column:asset_ids;type:jsonb;serializer:json"`
	Status        string    `gorm:"column:status;index"`
	CreatedAt     time.Time `gorm:"column:created_at;index:posts_creator_created_idx,priority:2"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (postModel) TableName() string {
	return "posts"
}

func postModelFromEntity(item entities.Post) postModel {
	item = item.Clone()
	return postModel{
		PostID:        item.PostID,
		CreatorUserID: item.CreatorUserID,
		Title:         item.Title,
		Body:          item.Body,
		Visibility:    string(item.Visibility),
		PriceCents:    item.PriceCents,
		AssetIDs:      item.AssetIDs,
		Status:        string(item.Status),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m postModel) toEntity() entities.Post {
	assets := m.AssetIDs
	if assets == nil {
		assets = []string{}
	}
	return entities.Post{
		PostID:        m.PostID,
		CreatorUserID: m.CreatorUserID,
		Title:         m.Title,
		Body:          m.Body,
		Visibility:    entities.Visibility(m.Visibility),
		PriceCents:    m.PriceCents,
		AssetIDs:      assets,
		Status:        entities.PostStatus(m.Status),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}.Clone()
}

type followModel struct {
	FanUserID     string    `gorm:"column:fan_user_id;primaryKey"`
	CreatorUserID string    `gorm:"column:creator_user_id;primaryKey;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (followModel) TableName() string {
	return "follows"
}

type subscriptionModel struct {
	FanUserID         string    `gorm:"column:fan_user_id;primaryKey"`
	CreatorUserID     string    `gorm:"column:creator_user_id;primaryKey"`
	Status            string    `gorm:"column:status"`
	CancelAtPeriodEnd bool      `gorm:"column:cancel_at_period_end"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (subscriptionModel) TableName() string {
	return "subscriptions"
}

type purchaseModel struct {
	FanUserID   string    `gorm:"column:fan_user_id;primaryKey"`
	PostID      string    `gorm:"column:post_id;primaryKey"`
	PurchasedAt time.Time `gorm:"column:purchased_at"`
}

func (purchaseModel) TableName() string {
	return "ppv_purchases"
}
