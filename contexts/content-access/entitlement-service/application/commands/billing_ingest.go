package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "fanvault/contexts/content-access/entitlement-service/application"
	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

type IngestSubscriptionCommand struct {
	FanUserID         string
	CreatorUserID     string
	Status            string
	CancelAtPeriodEnd bool
}

type IngestPurchaseCommand struct {
	FanUserID   string
	PostID      string
	PurchasedAt *time.Time
}

// BillingIngestUseCase records subscription and purchase facts pushed by
// Billing after it has verified the provider webhook.
type BillingIngestUseCase struct {
	Entitlements ports.EntitlementRepository
	Posts        ports.PostRepository
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (u BillingIngestUseCase) Subscription(ctx context.Context, cmd IngestSubscriptionCommand) (entities.Subscription, error) {
	status, ok := entities.ParseSubscriptionStatus(strings.ToLower(strings.TrimSpace(cmd.Status)))
	if !ok || strings.TrimSpace(cmd.FanUserID) == "" || strings.TrimSpace(cmd.CreatorUserID) == "" {
		return entities.Subscription{}, domainerrors.ErrInvalidSubscription
	}
	subscription := entities.Subscription{
		FanUserID:         strings.TrimSpace(cmd.FanUserID),
		CreatorUserID:     strings.TrimSpace(cmd.CreatorUserID),
		Status:            status,
		CancelAtPeriodEnd: cmd.CancelAtPeriodEnd,
		UpdatedAt:         now(u.Clock),
	}
	if err := u.Entitlements.UpsertSubscription(ctx, subscription); err != nil {
		return entities.Subscription{}, err
	}
	application.ResolveLogger(u.Logger).Info("subscription ingested",
		"event", "entitlement_subscription_ingested",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"fan_id", subscription.FanUserID,
		"creator_id", subscription.CreatorUserID,
		"status", string(subscription.Status),
	)
	return subscription, nil
}

func (u BillingIngestUseCase) Purchase(ctx context.Context, cmd IngestPurchaseCommand) (entities.Purchase, bool, error) {
	fanID := strings.TrimSpace(cmd.FanUserID)
	postID := strings.TrimSpace(cmd.PostID)
	if fanID == "" || postID == "" {
		return entities.Purchase{}, false, domainerrors.ErrInvalidPurchase
	}
	if _, err := u.Posts.GetPost(ctx, postID); err != nil {
		return entities.Purchase{}, false, err
	}
	purchasedAt := now(u.Clock)
	if cmd.PurchasedAt != nil {
		purchasedAt = cmd.PurchasedAt.UTC()
	}
	purchase := entities.Purchase{FanUserID: fanID, PostID: postID, PurchasedAt: purchasedAt}
	created, err := u.Entitlements.RecordPurchase(ctx, purchase)
	if err != nil {
		return entities.Purchase{}, false, err
	}
	application.ResolveLogger(u.Logger).Info("purchase ingested",
		"event", "entitlement_purchase_ingested",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"fan_id", fanID,
		"post_id", postID,
		"created", created,
	)
	return purchase, created, nil
}
