package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "fanvault/contexts/content-access/entitlement-service/application"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ListPostsResult is shared by every listing path.
type ListPostsResult struct {
	Items      []application.PostView
	NextCursor string
	Degraded   bool
}

type ListCreatorPostsQuery struct {
	Handle        string
	ViewerID      string
	IncludeLocked bool
	Cursor        string
	Limit         int
}

// ListCreatorPostsUseCase renders a creator profile listing.
type ListCreatorPostsUseCase struct {
	Posts        ports.PostRepository
	Creators     ports.CreatorDirectory
	Entitlements application.Entitlements
	Logger       *slog.Logger
}

func (u ListCreatorPostsUseCase) Execute(ctx context.Context, query ListCreatorPostsQuery) (ListPostsResult, error) {
	handle := strings.ToLower(strings.TrimSpace(query.Handle))
	if handle == "" {
		return ListPostsResult{}, domainerrors.ErrCreatorNotFound
	}
	creator, err := u.Creators.GetCreatorByHandle(ctx, handle)
	if err != nil {
		return ListPostsResult{}, err
	}
	isOwner := query.ViewerID != "" && query.ViewerID == creator.UserID
	if !isOwner && !creator.Discoverable {
		return ListPostsResult{}, domainerrors.ErrCreatorNotFound
	}

	posts, next, err := u.Posts.ListPosts(ctx, ports.PostListFilter{
		CreatorUserIDs: []string{creator.UserID},
		IncludeDrafts:  isOwner,
		Cursor:         query.Cursor,
		Limit:          clampLimit(query.Limit),
	})
	if err != nil {
		return ListPostsResult{}, err
	}
	views, degraded := u.Entitlements.ResolveAll(ctx, query.ViewerID, posts)
	if !query.IncludeLocked {
		views = unlockedOnly(views)
	}
	return ListPostsResult{Items: views, NextCursor: next, Degraded: degraded}, nil
}

type FeedQuery struct {
	ViewerID string
	Cursor   string
	Limit    int
}

// FeedUseCase lists published posts from the creators a viewer follows.
type FeedUseCase struct {
	Posts        ports.PostRepository
	Follows      ports.EntitlementRepository
	Creators     ports.CreatorDirectory
	Entitlements application.Entitlements
	Logger       *slog.Logger
}

func (u FeedUseCase) Execute(ctx context.Context, query FeedQuery) (ListPostsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(query.ViewerID) == "" {
		return ListPostsResult{}, domainerrors.ErrForbidden
	}
	following, err := u.Follows.ListFollowing(ctx, query.ViewerID)
	if err != nil {
		logger.Error("feed following lookup failed",
			"event", "entitlement_feed_following_failed",
			"module", "content-access/entitlement-service",
			"layer", "application",
			"viewer_id", query.ViewerID,
			"error", err.Error(),
		)
		return ListPostsResult{}, err
	}

	creators := make([]string, 0, len(following))
	for _, creatorID := range following {
		creator, err := u.Creators.GetCreator(ctx, creatorID)
		if errors.Is(err, domainerrors.ErrCreatorNotFound) {
			continue
		}
		if err != nil {
			return ListPostsResult{}, err
		}
		if creator.Discoverable {
			creators = append(creators, creatorID)
		}
	}
	if len(creators) == 0 {
		return ListPostsResult{Items: []application.PostView{}}, nil
	}

	posts, next, err := u.Posts.ListPosts(ctx, ports.PostListFilter{
		CreatorUserIDs: creators,
		Cursor:         query.Cursor,
		Limit:          clampLimit(query.Limit),
	})
	if err != nil {
		return ListPostsResult{}, err
	}
	views, degraded := u.Entitlements.ResolveAll(ctx, query.ViewerID, posts)
	return ListPostsResult{Items: views, NextCursor: next, Degraded: degraded}, nil
}

type VaultQuery struct {
	CreatorUserID string
	Cursor        string
	Limit         int
}

// VaultUseCase lists a creator's own library, drafts included.
type VaultUseCase struct {
	Posts        ports.PostRepository
	Entitlements application.Entitlements
}

func (u VaultUseCase) Execute(ctx context.Context, query VaultQuery) (ListPostsResult, error) {
	if strings.TrimSpace(query.CreatorUserID) == "" {
		return ListPostsResult{}, domainerrors.ErrForbidden
	}
	posts, next, err := u.Posts.ListPosts(ctx, ports.PostListFilter{
		CreatorUserIDs: []string{query.CreatorUserID},
		IncludeDrafts:  true,
		Cursor:         query.Cursor,
		Limit:          clampLimit(query.Limit),
	})
	if err != nil {
		return ListPostsResult{}, err
	}
	views, degraded := u.Entitlements.ResolveAll(ctx, query.CreatorUserID, posts)
	return ListPostsResult{Items: views, NextCursor: next, Degraded: degraded}, nil
}

func unlockedOnly(views []application.PostView) []application.PostView {
	out := make([]application.PostView, 0, len(views))
	for _, view := range views {
		if !view.Decision.IsLocked {
			out = append(out, view)
		}
	}
	return out
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageLimit
	case limit > maxPageLimit:
		return maxPageLimit
	default:
		return limit
	}
}
