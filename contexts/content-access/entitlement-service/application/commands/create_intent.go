package commands

import (
	"context"
	"log/slog"
	"strings"

	application "fanvault/contexts/content-access/entitlement-service/application"
	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
	"fanvault/internal/shared/idempotency"
)

type CreateIntentCommand struct {
	FanUserID      string
	PostID         string
	IdempotencyKey string
}

type CreateIntentResult struct {
	PostID       string `json:"post_id"`
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	Replayed     bool   `json:"-"`
}

// CreateIntentUseCase asks Billing for a payment intent to unlock a PPV post.
type CreateIntentUseCase struct {
	Posts        ports.PostRepository
	Creators     ports.CreatorDirectory
	Entitlements ports.EntitlementRepository
	Billing      ports.Billing
	Idempotency  idempotency.Guard
	Logger       *slog.Logger
}

func (u CreateIntentUseCase) Execute(ctx context.Context, cmd CreateIntentCommand) (CreateIntentResult, error) {
	logger := application.ResolveLogger(u.Logger)
	postID := strings.TrimSpace(cmd.PostID)
	result, replayed, err := idempotency.RunJSON(ctx, u.Idempotency, idempotency.Request{
		Operation:   "ppv.create_intent",
		Scope:       cmd.FanUserID,
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: postID,
	}, func(ctx context.Context) (CreateIntentResult, error) {
		return u.create(ctx, cmd.FanUserID, postID)
	})
	if err != nil {
		logger.Warn("ppv create intent failed",
			"event", "entitlement_ppv_intent_failed",
			"module", "content-access/entitlement-service",
			"layer", "application",
			"post_id", postID,
			"fan_id", cmd.FanUserID,
			"error", err.Error(),
		)
		return CreateIntentResult{}, err
	}
	result.Replayed = replayed
	return result, nil
}

func (u CreateIntentUseCase) create(ctx context.Context, fanID string, postID string) (CreateIntentResult, error) {
	post, err := u.Posts.GetPost(ctx, postID)
	if err != nil {
		return CreateIntentResult{}, err
	}
	if err := application.EnsureVisible(ctx, u.Creators, post, fanID); err != nil {
		return CreateIntentResult{}, err
	}
	if post.Visibility != entities.VisibilityPPV || post.PriceCents == nil {
		return CreateIntentResult{}, domainerrors.ErrNotPPV
	}
	if post.CreatorUserID == fanID {
		return CreateIntentResult{}, domainerrors.ErrOwnPost
	}

	snapshot, err := u.Entitlements.LoadSnapshot(ctx, ports.SnapshotRequest{ViewerID: fanID, PostIDs: []string{post.PostID}})
	if err != nil {
		return CreateIntentResult{}, domainerrors.ErrEntitlementsDegraded
	}
	if snapshot.Purchased(post.PostID) {
		return CreateIntentResult{}, domainerrors.ErrAlreadyPurchased
	}

	intent, err := u.Billing.CreatePaymentIntent(ctx, ports.PaymentIntentRequest{
		FanUserID:     fanID,
		CreatorUserID: post.CreatorUserID,
		PostID:        post.PostID,
		AmountCents:   *post.PriceCents,
	})
	if err != nil {
		return CreateIntentResult{}, err
	}

	application.ResolveLogger(u.Logger).Info("ppv intent created",
		"event", "entitlement_ppv_intent_created",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"post_id", post.PostID,
		"fan_id", fanID,
		"intent_id", intent.IntentID,
	)
	return CreateIntentResult{
		PostID:       post.PostID,
		IntentID:     intent.IntentID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}, nil
}
