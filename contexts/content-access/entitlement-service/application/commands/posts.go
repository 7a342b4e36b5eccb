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

type CreatePostCommand struct {
	CreatorUserID string
	Title         string
	Body          string
	Visibility    string
	PriceCents    *int64
	AssetIDs      []string
	Status        string
}

// CreatePostUseCase stores a new post. Publishing requires an approved creator.
type CreatePostUseCase struct {
	Posts       ports.PostRepository
	Creators    ports.CreatorDirectory
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreatePostUseCase) Execute(ctx context.Context, cmd CreatePostCommand) (entities.Post, error) {
	logger := application.ResolveLogger(u.Logger)
	visibility, ok := entities.ParseVisibility(cmd.Visibility)
	if !ok {
		return entities.Post{}, domainerrors.ErrInvalidVisibility
	}
	status := entities.PostStatusDraft
	if strings.TrimSpace(cmd.Status) != "" {
		parsed, ok := entities.ParsePostStatus(cmd.Status)
		if !ok {
			return entities.Post{}, domainerrors.ErrInvalidStatus
		}
		status = parsed
	}

	createdAt := now(u.Clock)
	postID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Post{}, err
	}
	post := entities.Post{
		PostID:        postID,
		CreatorUserID: cmd.CreatorUserID,
		Title:         strings.TrimSpace(cmd.Title),
		Body:          cmd.Body,
		Visibility:    visibility,
		PriceCents:    cmd.PriceCents,
		AssetIDs:      normalizeAssets(cmd.AssetIDs),
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if err := post.Validate(); err != nil {
		return entities.Post{}, err
	}
	if post.IsPublished() {
		if err := u.ensureCanPublish(ctx, cmd.CreatorUserID); err != nil {
			return entities.Post{}, err
		}
	}
	if err := u.Posts.CreatePost(ctx, post); err != nil {
		logger.Error("create post failed",
			"event", "entitlement_post_create_failed",
			"module", "content-access/entitlement-service",
			"layer", "application",
			"creator_id", cmd.CreatorUserID,
			"error", err.Error(),
		)
		return entities.Post{}, err
	}

	logger.Info("post created",
		"event", "entitlement_post_created",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"post_id", post.PostID,
		"creator_id", post.CreatorUserID,
		"visibility", string(post.Visibility),
		"status", string(post.Status),
	)
	return post, nil
}

func (u CreatePostUseCase) ensureCanPublish(ctx context.Context, creatorID string) error {
	return ensureCanPublish(ctx, u.Creators, creatorID)
}

type UpdatePostCommand struct {
	CreatorUserID string
	PostID        string
	Title         *string
	Body          *string
	Visibility    *string
	PriceCents    *int64
	AssetIDs      *[]string
	Status        *string
}

// UpdatePostUseCase applies a partial update. Changing visibility away from
// PPV clears the price.
type UpdatePostUseCase struct {
	Posts    ports.PostRepository
	Creators ports.CreatorDirectory
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u UpdatePostUseCase) Execute(ctx context.Context, cmd UpdatePostCommand) (entities.Post, error) {
	logger := application.ResolveLogger(u.Logger)
	current, err := u.Posts.GetPost(ctx, strings.TrimSpace(cmd.PostID))
	if err != nil {
		return entities.Post{}, err
	}
	if current.CreatorUserID != cmd.CreatorUserID {
		return entities.Post{}, domainerrors.ErrForbidden
	}

	next := current.Clone()
	if cmd.Title != nil {
		next.Title = strings.TrimSpace(*cmd.Title)
	}
	if cmd.Body != nil {
		next.Body = *cmd.Body
	}
	if cmd.Visibility != nil {
		visibility, ok := entities.ParseVisibility(*cmd.Visibility)
		if !ok {
			return entities.Post{}, domainerrors.ErrInvalidVisibility
		}
		next.Visibility = visibility
		if visibility != entities.VisibilityPPV && cmd.PriceCents == nil {
			next.PriceCents = nil
		}
	}
	if cmd.PriceCents != nil {
		price := *cmd.PriceCents
		next.PriceCents = &price
	}
	if cmd.AssetIDs != nil {
		next.AssetIDs = normalizeAssets(*cmd.AssetIDs)
	}
	if cmd.Status != nil {
		status, ok := entities.ParsePostStatus(*cmd.Status)
		if !ok {
			return entities.Post{}, domainerrors.ErrInvalidStatus
		}
		next.Status = status
	}
	if err := next.Validate(); err != nil {
		return entities.Post{}, err
	}
	if next.IsPublished() && !current.IsPublished() {
		if err := ensureCanPublish(ctx, u.Creators, cmd.CreatorUserID); err != nil {
			return entities.Post{}, err
		}
	}
	next.UpdatedAt = now(u.Clock)
	if err := u.Posts.UpdatePost(ctx, next); err != nil {
		return entities.Post{}, err
	}

	logger.Info("post updated",
		"event", "entitlement_post_updated",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"post_id", next.PostID,
		"visibility", string(next.Visibility),
		"status", string(next.Status),
	)
	return next, nil
}

func ensureCanPublish(ctx context.Context, creators ports.CreatorDirectory, creatorID string) error {
	creator, err := creators.GetCreator(ctx, creatorID)
	if err != nil {
		return err
	}
	if !creator.CanPublish() {
		return domainerrors.ErrKYCRequired
	}
	return nil
}

func normalizeAssets(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}

func now(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
