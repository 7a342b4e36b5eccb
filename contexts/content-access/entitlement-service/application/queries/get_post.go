package queries

import (
	"context"
	"log/slog"
	"strings"

	application "fanvault/contexts/content-access/entitlement-service/application"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

type GetPostQuery struct {
	PostID   string
	ViewerID string
}

type GetPostResult struct {
	View     application.PostView
	Degraded bool
}

type GetPostUseCase struct {
	Posts        ports.PostRepository
	Creators     ports.CreatorDirectory
	Entitlements application.Entitlements
	Logger       *slog.Logger
}

func (u GetPostUseCase) Execute(ctx context.Context, query GetPostQuery) (GetPostResult, error) {
	logger := application.ResolveLogger(u.Logger)
	postID := strings.TrimSpace(query.PostID)
	if postID == "" {
		return GetPostResult{}, domainerrors.ErrPostNotFound
	}
	post, err := u.Posts.GetPost(ctx, postID)
	if err != nil {
		return GetPostResult{}, err
	}
	if err := application.EnsureVisible(ctx, u.Creators, post, query.ViewerID); err != nil {
		return GetPostResult{}, err
	}

	view, degraded := u.Entitlements.Resolve(ctx, query.ViewerID, post)
	logger.Debug("post resolved",
		"event", "entitlement_post_resolved",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"post_id", post.PostID,
		"viewer_id", query.ViewerID,
		"is_locked", view.Decision.IsLocked,
		"locked_reason", string(view.Decision.LockedReason),
	)
	return GetPostResult{View: view, Degraded: degraded}, nil
}
