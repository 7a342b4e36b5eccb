package ports

import (
	"context"
	"time"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
)

// Clock allows deterministic testing of timestamps and lookup deadlines.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts post identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type PostListFilter struct {
	CreatorUserIDs []string
	IncludeDrafts  bool
	Cursor         string
	Limit          int
}

// PostRepository owns the post catalogue.
type PostRepository interface {
	CreatePost(ctx context.Context, post entities.Post) error
	// UpdatePost replaces the stored row; ErrPostNotFound when absent.
	UpdatePost(ctx context.Context, post entities.Post) error
	GetPost(ctx context.Context, postID string) (entities.Post, error)
	// ListPosts returns newest first.
	ListPosts(ctx context.Context, filter PostListFilter) ([]entities.Post, string, error)
}

// SnapshotRequest names every relationship one resolution call may consult.
type SnapshotRequest struct {
	ViewerID   string
	CreatorIDs []string
	PostIDs    []string
}

// EntitlementRepository stores follow edges and the Billing-owned
// subscription and purchase records.
type EntitlementRepository interface {
	// LoadSnapshot reads all requested relationships from one consistent view.
	LoadSnapshot(ctx context.Context, request SnapshotRequest) (entities.ViewerSnapshot, error)
	Follow(ctx context.Context, edge entities.FollowEdge) (bool, error)
	Unfollow(ctx context.Context, fanUserID string, creatorUserID string) (bool, error)
	ListFollowing(ctx context.Context, fanUserID string) ([]string, error)
	UpsertSubscription(ctx context.Context, subscription entities.Subscription) error
	// RecordPurchase returns created=false when the purchase already exists.
	RecordPurchase(ctx context.Context, purchase entities.Purchase) (bool, error)
}

// CreatorDirectory reads creator accounts owned by onboarding.
type CreatorDirectory interface {
	GetCreator(ctx context.Context, userID string) (entities.CreatorProfile, error)
	GetCreatorByHandle(ctx context.Context, handle string) (entities.CreatorProfile, error)
}

type PaymentIntentRequest struct {
	FanUserID     string
	CreatorUserID string
	PostID        string
	AmountCents   int64
}

type PaymentIntent struct {
	IntentID     string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

// Billing is the payment collaborator. Webhook verification stays on its side.
type Billing interface {
	CreatePaymentIntent(ctx context.Context, request PaymentIntentRequest) (PaymentIntent, error)
}

type UploadRequest struct {
	CreatorUserID string
	Filename      string
	ContentType   string
	SizeBytes     int64
}

type Upload struct {
	AssetID   string
	UploadURL string
	ExpiresAt time.Time
}

// Media registers uploads with the storage collaborator.
type Media interface {
	RegisterUpload(ctx context.Context, request UploadRequest) (Upload, error)
}
