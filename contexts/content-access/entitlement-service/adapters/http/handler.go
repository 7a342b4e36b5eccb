package httpadapter

import (
	"context"
	"log/slog"

	application "fanvault/contexts/content-access/entitlement-service/application"
	"fanvault/contexts/content-access/entitlement-service/application/commands"
	"fanvault/contexts/content-access/entitlement-service/application/queries"
	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	httptransport "fanvault/contexts/content-access/entitlement-service/transport/http"
)

// Handler adapts entitlement use cases to transport DTOs. Every post leaves
// through toPostResponse so the resolver decision is applied uniformly.
type Handler struct {
	CreatePost     commands.CreatePostUseCase
	UpdatePost     commands.UpdatePostUseCase
	Follows        commands.FollowUseCase
	CreateIntent   commands.CreateIntentUseCase
	BillingIngest  commands.BillingIngestUseCase
	RegisterUpload commands.RegisterUploadUseCase
	GetPost        queries.GetPostUseCase
	CreatorPosts   queries.ListCreatorPostsUseCase
	Feed           queries.FeedUseCase
	Vault          queries.VaultUseCase
	PPVStatus      queries.PPVStatusUseCase
	Logger         *slog.Logger
}

func (h Handler) CreatePostHandler(
	ctx context.Context,
	creatorID string,
	req httptransport.CreatePostRequest,
) (httptransport.PostResponse, error) {
	post, err := h.CreatePost.Execute(ctx, commands.CreatePostCommand{
		CreatorUserID: creatorID,
		Title:         req.Title,
		Body:          req.Body,
		Visibility:    req.Visibility,
		PriceCents:    req.PriceCents,
		AssetIDs:      req.AssetIDs,
		Status:        req.Status,
	})
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return ownerResponse(post), nil
}

func (h Handler) UpdatePostHandler(
	ctx context.Context,
	creatorID string,
	postID string,
	req httptransport.UpdatePostRequest,
) (httptransport.PostResponse, error) {
	post, err := h.UpdatePost.Execute(ctx, commands.UpdatePostCommand{
		CreatorUserID: creatorID,
		PostID:        postID,
		Title:         req.Title,
		Body:          req.Body,
		Visibility:    req.Visibility,
		PriceCents:    req.PriceCents,
		AssetIDs:      req.AssetIDs,
		Status:        req.Status,
	})
	if err != nil {
		return httptransport.PostResponse{}, err
	}
	return ownerResponse(post), nil
}

func (h Handler) GetPostHandler(ctx context.Context, viewerID string, postID string) (httptransport.PostDetailResponse, error) {
	result, err := h.GetPost.Execute(ctx, queries.GetPostQuery{PostID: postID, ViewerID: viewerID})
	if err != nil {
		return httptransport.PostDetailResponse{}, err
	}
	return httptransport.PostDetailResponse{
		PostResponse:         toPostResponse(result.View),
		EntitlementsDegraded: result.Degraded,
	}, nil
}

func (h Handler) CreatorPostsHandler(
	ctx context.Context,
	viewerID string,
	handle string,
	includeLocked bool,
	cursor string,
	limit int,
) (httptransport.ListPostsResponse, error) {
	result, err := h.CreatorPosts.Execute(ctx, queries.ListCreatorPostsQuery{
		Handle:        handle,
		ViewerID:      viewerID,
		IncludeLocked: includeLocked,
		Cursor:        cursor,
		Limit:         limit,
	})
	if err != nil {
		return httptransport.ListPostsResponse{}, err
	}
	return toListResponse(result), nil
}

func (h Handler) FeedHandler(ctx context.Context, viewerID string, cursor string, limit int) (httptransport.ListPostsResponse, error) {
	result, err := h.Feed.Execute(ctx, queries.FeedQuery{ViewerID: viewerID, Cursor: cursor, Limit: limit})
	if err != nil {
		return httptransport.ListPostsResponse{}, err
	}
	return toListResponse(result), nil
}

func (h Handler) VaultHandler(ctx context.Context, creatorID string, cursor string, limit int) (httptransport.ListPostsResponse, error) {
	result, err := h.Vault.Execute(ctx, queries.VaultQuery{CreatorUserID: creatorID, Cursor: cursor, Limit: limit})
	if err != nil {
		return httptransport.ListPostsResponse{}, err
	}
	return toListResponse(result), nil
}

func (h Handler) PPVStatusHandler(ctx context.Context, viewerID string, postID string) (httptransport.PPVStatusResponse, error) {
	result, err := h.PPVStatus.Execute(ctx, queries.PPVStatusQuery{PostID: postID, ViewerID: viewerID})
	if err != nil {
		return httptransport.PPVStatusResponse{}, err
	}
	response := httptransport.PPVStatusResponse{
		PostID:               result.PostID,
		IsLocked:             result.IsLocked,
		ViewerHasUnlocked:    result.ViewerHasUnlocked,
		EntitlementsDegraded: result.Degraded,
	}
	if result.PriceCents != nil {
		response.PriceCents = *result.PriceCents
	}
	return response, nil
}

// CreateIntentHandler returns replayed=true when the intent came from the
// idempotency store.
func (h Handler) CreateIntentHandler(
	ctx context.Context,
	fanID string,
	postID string,
	idempotencyKey string,
) (httptransport.CreateIntentResponse, bool, error) {
	result, err := h.CreateIntent.Execute(ctx, commands.CreateIntentCommand{
		FanUserID:      fanID,
		PostID:         postID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CreateIntentResponse{}, false, err
	}
	return httptransport.CreateIntentResponse{
		PostID:       result.PostID,
		IntentID:     result.IntentID,
		ClientSecret: result.ClientSecret,
		AmountCents:  result.AmountCents,
		Currency:     result.Currency,
	}, result.Replayed, nil
}

func (h Handler) FollowHandler(ctx context.Context, fanID string, handle string) (httptransport.FollowResponse, error) {
	result, err := h.Follows.Follow(ctx, commands.FollowCommand{FanUserID: fanID, Handle: handle})
	if err != nil {
		return httptransport.FollowResponse{}, err
	}
	return httptransport.FollowResponse{CreatorUserID: result.CreatorUserID, Following: result.Following}, nil
}

func (h Handler) UnfollowHandler(ctx context.Context, fanID string, handle string) (httptransport.FollowResponse, error) {
	result, err := h.Follows.Unfollow(ctx, commands.FollowCommand{FanUserID: fanID, Handle: handle})
	if err != nil {
		return httptransport.FollowResponse{}, err
	}
	return httptransport.FollowResponse{CreatorUserID: result.CreatorUserID, Following: result.Following}, nil
}

func (h Handler) RegisterUploadHandler(
	ctx context.Context,
	creatorID string,
	req httptransport.RegisterUploadRequest,
) (httptransport.RegisterUploadResponse, error) {
	upload, err := h.RegisterUpload.Execute(ctx, commands.RegisterUploadCommand{
		CreatorUserID: creatorID,
		Filename:      req.Filename,
		ContentType:   req.ContentType,
		SizeBytes:     req.SizeBytes,
	})
	if err != nil {
		return httptransport.RegisterUploadResponse{}, err
	}
	return httptransport.RegisterUploadResponse{
		AssetID:   upload.AssetID,
		UploadURL: upload.UploadURL,
		ExpiresAt: upload.ExpiresAt,
	}, nil
}

func (h Handler) IngestSubscriptionHandler(
	ctx context.Context,
	req httptransport.IngestSubscriptionRequest,
) (httptransport.IngestSubscriptionResponse, error) {
	subscription, err := h.BillingIngest.Subscription(ctx, commands.IngestSubscriptionCommand{
		FanUserID:         req.FanUserID,
		CreatorUserID:     req.CreatorUserID,
		Status:            req.Status,
		CancelAtPeriodEnd: req.CancelAtPeriodEnd,
	})
	if err != nil {
		return httptransport.IngestSubscriptionResponse{}, err
	}
	return httptransport.IngestSubscriptionResponse{
		FanUserID:     subscription.FanUserID,
		CreatorUserID: subscription.CreatorUserID,
		Status:        string(subscription.Status),
	}, nil
}

func (h Handler) IngestPurchaseHandler(
	ctx context.Context,
	req httptransport.IngestPurchaseRequest,
) (httptransport.IngestPurchaseResponse, error) {
	purchase, created, err := h.BillingIngest.Purchase(ctx, commands.IngestPurchaseCommand{
		FanUserID:   req.FanUserID,
		PostID:      req.PostID,
		PurchasedAt: req.PurchasedAt,
	})
	if err != nil {
		return httptransport.IngestPurchaseResponse{}, err
	}
	return httptransport.IngestPurchaseResponse{
		FanUserID:   purchase.FanUserID,
		PostID:      purchase.PostID,
		PurchasedAt: purchase.PurchasedAt,
		Created:     created,
	}, nil
}

func toListResponse(result queries.ListPostsResult) httptransport.ListPostsResponse {
	items := make([]httptransport.PostResponse, 0, len(result.Items))
	for _, view := range result.Items {
		items = append(items, toPostResponse(view))
	}
	return httptransport.ListPostsResponse{
		Items:                items,
		NextCursor:           result.NextCursor,
		EntitlementsDegraded: result.Degraded,
	}
}

// ownerResponse serializes a post for its own creator, which is always an
// unlocked decision.
func ownerResponse(post entities.Post) httptransport.PostResponse {
	return toPostResponse(application.PostView{
		Post: post,
		Decision: entities.Decision{
			VisibleAssetIDs:   append([]string{}, post.AssetIDs...),
			VisiblePriceCents: post.PriceCents,
		},
	})
}

func toPostResponse(view application.PostView) httptransport.PostResponse {
	assets := view.Decision.VisibleAssetIDs
	if assets == nil {
		assets = []string{}
	}
	var price *int64
	if view.Decision.VisiblePriceCents != nil {
		value := *view.Decision.VisiblePriceCents
		price = &value
	}
	return httptransport.PostResponse{
		PostID:        view.Post.PostID,
		CreatorUserID: view.Post.CreatorUserID,
		Title:         view.Post.Title,
		Body:          view.Post.Body,
		Visibility:    string(view.Post.Visibility),
		Status:        string(view.Post.Status),
		IsLocked:      view.Decision.IsLocked,
		LockedReason:  string(view.Decision.LockedReason),
		AssetIDs:      assets,
		PriceCents:    price,
		CreatedAt:     view.Post.CreatedAt,
		UpdatedAt:     view.Post.UpdatedAt,
	}
}
