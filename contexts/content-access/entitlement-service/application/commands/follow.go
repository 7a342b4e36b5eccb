package commands

import (
	"context"
	"log/slog"
	"strings"

	application "fanvault/contexts/content-access/entitlement-service/application"
	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

type FollowCommand struct {
	FanUserID string
	Handle    string
}

type FollowResult struct {
	CreatorUserID string
	Following     bool
	Changed       bool
}

// FollowUseCase manages follow edges. Both directions are idempotent.
type FollowUseCase struct {
	Follows  ports.EntitlementRepository
	Creators ports.CreatorDirectory
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u FollowUseCase) Follow(ctx context.Context, cmd FollowCommand) (FollowResult, error) {
	creator, err := u.resolveCreator(ctx, cmd)
	if err != nil {
		return FollowResult{}, err
	}
	if creator.UserID == cmd.FanUserID {
		return FollowResult{}, domainerrors.ErrCannotFollowSelf
	}
	created, err := u.Follows.Follow(ctx, entities.FollowEdge{
		FanUserID:     cmd.FanUserID,
		CreatorUserID: creator.UserID,
		CreatedAt:     now(u.Clock),
	})
	if err != nil {
		return FollowResult{}, err
	}
	if created {
		application.ResolveLogger(u.Logger).Info("creator followed",
			"event", "entitlement_follow_created",
			"module", "content-access/entitlement-service",
			"layer", "application",
			"fan_id", cmd.FanUserID,
			"creator_id", creator.UserID,
		)
	}
	return FollowResult{CreatorUserID: creator.UserID, Following: true, Changed: created}, nil
}

func (u FollowUseCase) Unfollow(ctx context.Context, cmd FollowCommand) (FollowResult, error) {
	handle := strings.ToLower(strings.TrimSpace(cmd.Handle))
	creator, err := u.Creators.GetCreatorByHandle(ctx, handle)
	if err != nil {
		return FollowResult{}, err
	}
	removed, err := u.Follows.Unfollow(ctx, cmd.FanUserID, creator.UserID)
	if err != nil {
		return FollowResult{}, err
	}
	return FollowResult{CreatorUserID: creator.UserID, Following: false, Changed: removed}, nil
}

func (u FollowUseCase) resolveCreator(ctx context.Context, cmd FollowCommand) (entities.CreatorProfile, error) {
	handle := strings.ToLower(strings.TrimSpace(cmd.Handle))
	if handle == "" || strings.TrimSpace(cmd.FanUserID) == "" {
		return entities.CreatorProfile{}, domainerrors.ErrInvalidRequest
	}
	creator, err := u.Creators.GetCreatorByHandle(ctx, handle)
	if err != nil {
		return entities.CreatorProfile{}, err
	}
	if !creator.Discoverable {
		return entities.CreatorProfile{}, domainerrors.ErrCreatorNotFound
	}
	return creator, nil
}
