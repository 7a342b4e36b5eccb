package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/domain/services"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

const DefaultLookupTimeout = 2 * time.Second

// PostView is a post together with the decision for one viewer.
type PostView struct {
	Post     entities.Post
	Decision entities.Decision
}

// Entitlements resolves a batch of posts against a single viewer snapshot.
type Entitlements struct {
	Repository    ports.EntitlementRepository
	LookupTimeout time.Duration
	Logger        *slog.Logger
}

// ResolveAll returns one view per post, in order. degraded is true when a
// lookup was needed and could not be completed; the affected posts are
// locked.
func (e Entitlements) ResolveAll(ctx context.Context, viewerID string, posts []entities.Post) ([]PostView, bool) {
	snapshot, degraded := e.load(ctx, viewerID, posts)
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, PostView{
			Post:     post,
			Decision: services.Resolve(viewerID, post, snapshot),
		})
	}
	return views, degraded
}

func (e Entitlements) Resolve(ctx context.Context, viewerID string, post entities.Post) (PostView, bool) {
	views, degraded := e.ResolveAll(ctx, viewerID, []entities.Post{post})
	return views[0], degraded
}

func (e Entitlements) load(ctx context.Context, viewerID string, posts []entities.Post) (entities.ViewerSnapshot, bool) {
	request := ports.SnapshotRequest{ViewerID: viewerID}
	creators := make(map[string]struct{})
	for _, post := range posts {
		if !services.NeedsLookup(viewerID, post) {
			continue
		}
		if _, ok := creators[post.CreatorUserID]; !ok {
			creators[post.CreatorUserID] = struct{}{}
			request.CreatorIDs = append(request.CreatorIDs, post.CreatorUserID)
		}
		request.PostIDs = append(request.PostIDs, post.PostID)
	}
	if len(request.PostIDs) == 0 {
		return entities.ViewerSnapshot{ViewerID: viewerID}, false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	snapshot, err := e.Repository.LoadSnapshot(lookupCtx, request)
	if err != nil {
		ResolveLogger(e.Logger).Warn("entitlement lookup failed, resolving locked",
			"event", "entitlement_lookup_degraded",
			"module", "content-access/entitlement-service",
			"layer", "application",
			"viewer_id", viewerID,
			"posts", len(request.PostIDs),
			"timeout", errors.Is(err, context.DeadlineExceeded),
			"error", err.Error(),
		)
		return entities.ViewerSnapshot{ViewerID: viewerID, Degraded: true}, true
	}
	return snapshot, false
}

func (e Entitlements) timeout() time.Duration {
	if e.LookupTimeout <= 0 {
		return DefaultLookupTimeout
	}
	return e.LookupTimeout
}

// EnsureVisible hides drafts and posts of non-discoverable creators from
// everyone except the owner.
func EnsureVisible(ctx context.Context, creators ports.CreatorDirectory, post entities.Post, viewerID string) error {
	if viewerID != "" && viewerID == post.CreatorUserID {
		return nil
	}
	if !post.IsPublished() {
		return domainerrors.ErrPostNotFound
	}
	creator, err := creators.GetCreator(ctx, post.CreatorUserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrCreatorNotFound) {
			return domainerrors.ErrPostNotFound
		}
		return err
	}
	if !creator.Discoverable {
		return domainerrors.ErrPostNotFound
	}
	return nil
}
