package entities

import "time"

type LockedReason string

const (
	LockedReasonNone                 LockedReason = ""
	LockedReasonPrivate              LockedReason = "PRIVATE"
	LockedReasonFollowRequired       LockedReason = "FOLLOW_REQUIRED"
	LockedReasonSubscriptionRequired LockedReason = "SUBSCRIPTION_REQUIRED"
	LockedReasonPPVRequired          LockedReason = "PPV_REQUIRED"
)

// Decision is the resolver output for one (viewer, post) pair.
type Decision struct {
	IsLocked          bool
	LockedReason      LockedReason
	VisibleAssetIDs   []string
	VisiblePriceCents *int64
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

func ParseSubscriptionStatus(raw string) (SubscriptionStatus, bool) {
	value := SubscriptionStatus(raw)
	switch value {
	case SubscriptionActive, SubscriptionCanceled, SubscriptionPastDue:
		return value, true
	default:
		return "", false
	}
}

// Subscription is owned by Billing and ingested here read-only in meaning.
type Subscription struct {
	FanUserID         string
	CreatorUserID     string
	Status            SubscriptionStatus
	CancelAtPeriodEnd bool
	UpdatedAt         time.Time
}

// IsActive is the only subscription fact the resolver reads.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

type Purchase struct {
	FanUserID   string
	PostID      string
	PurchasedAt time.Time
}

type FollowEdge struct {
	FanUserID     string
	CreatorUserID string
	CreatedAt     time.Time
}

// ViewerSnapshot holds every relationship lookup for one resolution call.
// Degraded marks a failed or timed-out load; lookups then answer false.
type ViewerSnapshot struct {
	ViewerID      string
	Follows       map[string]bool
	Subscriptions map[string]bool
	Purchases     map[string]bool
	Degraded      bool
}

func (s ViewerSnapshot) FollowsCreator(creatorID string) bool {
	return !s.Degraded && s.Follows[creatorID]
}

func (s ViewerSnapshot) SubscribedTo(creatorID string) bool {
	return !s.Degraded && s.Subscriptions[creatorID]
}

func (s ViewerSnapshot) Purchased(postID string) bool {
	return !s.Degraded && s.Purchases[postID]
}

// CreatorProfile is the directory view of a post owner.
type CreatorProfile struct {
	UserID          string
	Handle          string
	Role            string
	OnboardingState string
	Discoverable    bool
}

const OnboardingStateApproved = "KYC_APPROVED"

func (c CreatorProfile) CanPublish() bool {
	return c.Role == "creator" && c.OnboardingState == OnboardingStateApproved
}
