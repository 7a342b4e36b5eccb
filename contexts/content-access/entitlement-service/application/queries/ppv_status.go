package queries

import (
	"context"
	"strings"

	application "fanvault/contexts/content-access/entitlement-service/application"
	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

type PPVStatusQuery struct {
	PostID   string
	ViewerID string
}

type PPVStatusResult struct {
	PostID   string
	IsLocked bool
	// ViewerHasUnlocked is true only for a purchase; the owner sees the post
	// unlocked without having bought it.
	ViewerHasUnlocked bool
	PriceCents        *int64
	Degraded          bool
}

// PPVStatusUseCase reports whether a viewer has unlocked a PPV post.
type PPVStatusUseCase struct {
	Posts        ports.PostRepository
	Creators     ports.CreatorDirectory
	Entitlements application.Entitlements
}

func (u PPVStatusUseCase) Execute(ctx context.Context, query PPVStatusQuery) (PPVStatusResult, error) {
	post, err := u.Posts.GetPost(ctx, strings.TrimSpace(query.PostID))
	if err != nil {
		return PPVStatusResult{}, err
	}
	if err := application.EnsureVisible(ctx, u.Creators, post, query.ViewerID); err != nil {
		return PPVStatusResult{}, err
	}
	if post.Visibility != entities.VisibilityPPV {
		return PPVStatusResult{}, domainerrors.ErrNotPPV
	}
	view, degraded := u.Entitlements.Resolve(ctx, query.ViewerID, post)
	return PPVStatusResult{
		PostID:            post.PostID,
		IsLocked:          view.Decision.IsLocked,
		ViewerHasUnlocked: !view.Decision.IsLocked && query.ViewerID != post.CreatorUserID,
		PriceCents:        post.PriceCents,
		Degraded:          degraded,
	}, nil
}
