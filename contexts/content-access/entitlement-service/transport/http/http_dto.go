package httptransport

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePostRequest struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Visibility string   `json:"visibility"`
	PriceCents *int64   `json:"price_cents,omitempty"`
	AssetIDs   []string `json:"asset_ids"`
	Status     string   `json:"status,omitempty"`
}

// UpdatePostRequest leaves absent fields untouched.
type UpdatePostRequest struct {
	Title      *string   `json:"title,omitempty"`
	Body       *string   `json:"body,omitempty"`
	Visibility *string   `json:"visibility,omitempty"`
	PriceCents *int64    `json:"price_cents,omitempty"`
	AssetIDs   *[]string `json:"asset_ids,omitempty"`
	Status     *string   `json:"status,omitempty"`
}

// PostResponse is the only serialized form of a post. Locked posts carry an
// empty asset list.
type PostResponse struct {
	PostID        string    `json:"post_id"`
	CreatorUserID string    `json:"creator_user_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Visibility    string    `json:"visibility"`
	Status        string    `json:"status"`
	IsLocked      bool      `json:"is_locked"`
	LockedReason  string    `json:"locked_reason,omitempty"`
	AssetIDs      []string  `json:"asset_ids"`
	PriceCents    *int64    `json:"price_cents,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PostDetailResponse struct {
	PostResponse
	EntitlementsDegraded bool `json:"entitlements_degraded,omitempty"`
}

type ListPostsResponse struct {
	Items                []PostResponse `json:"items"`
	NextCursor           string         `json:"next_cursor,omitempty"`
	EntitlementsDegraded bool           `json:"entitlements_degraded,omitempty"`
}

type PPVStatusResponse struct {
	PostID               string `json:"post_id"`
	IsLocked             bool   `json:"is_locked"`
	ViewerHasUnlocked    bool   `json:"viewer_has_unlocked"`
	PriceCents           int64  `json:"price_cents"`
	EntitlementsDegraded bool   `json:"entitlements_degraded,omitempty"`
}

type CreateIntentResponse struct {
	PostID       string `json:"post_id"`
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

type FollowResponse struct {
	CreatorUserID string `json:"creator_user_id"`
	Following     bool   `json:"following"`
}

type RegisterUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type RegisterUploadResponse struct {
	AssetID   string    `json:"asset_id"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type IngestSubscriptionRequest struct {
	FanUserID         string `json:"fan_user_id"`
	CreatorUserID     string `json:"creator_user_id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

type IngestSubscriptionResponse struct {
	FanUserID     string `json:"fan_user_id"`
	CreatorUserID string `json:"creator_user_id"`
	Status        string `json:"status"`
}

type IngestPurchaseRequest struct {
	FanUserID   string     `json:"fan_user_id"`
	PostID      string     `json:"post_id"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
}

type IngestPurchaseResponse struct {
	FanUserID   string    `json:"fan_user_id"`
	PostID      string    `json:"post_id"`
	PurchasedAt time.Time `json:"purchased_at"`
	Created     bool      `json:"created"`
}
