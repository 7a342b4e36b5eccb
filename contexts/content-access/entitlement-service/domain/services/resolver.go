package services

import "fanvault/contexts/content-access/entitlement-service/domain/entities"

// Resolve decides whether viewerID sees post unlocked. viewerID is empty for
// anonymous callers. The first matching rule wins:
//
//  1. owner
//  2. PUBLIC
//  3. PRIVATE
//  4. FOLLOWERS (follow edge or purchase)
//  5. SUBSCRIBERS (active subscription or purchase)
//  6. PPV (purchase)
//
// A locked decision never carries asset ids. The price is shown to the owner
// and on locked PPV posts.
func Resolve(viewerID string, post entities.Post, snapshot entities.ViewerSnapshot) entities.Decision {
	if viewerID != "" && viewerID == post.CreatorUserID {
		return unlocked(post, true)
	}

	switch post.Visibility {
	case entities.VisibilityPublic:
		return unlocked(post, false)
	case entities.VisibilityPrivate:
		return locked(entities.LockedReasonPrivate, nil)
	case entities.VisibilityFollowers:
		if viewerID != "" && (snapshot.FollowsCreator(post.CreatorUserID) || snapshot.Purchased(post.PostID)) {
			return unlocked(post, false)
		}
		return locked(entities.LockedReasonFollowRequired, nil)
	case entities.VisibilitySubscribers:
		if viewerID != "" && (snapshot.SubscribedTo(post.CreatorUserID) || snapshot.Purchased(post.PostID)) {
			return unlocked(post, false)
		}
		return locked(entities.LockedReasonSubscriptionRequired, nil)
	case entities.VisibilityPPV:
		if viewerID != "" && snapshot.Purchased(post.PostID) {
			return unlocked(post, false)
		}
		return locked(entities.LockedReasonPPVRequired, copyPrice(post.PriceCents))
	default:
		// Unknown visibility fails closed.
		return locked(entities.LockedReasonPrivate, nil)
	}
}

// NeedsLookup reports whether Resolve would consult the snapshot for this pair.
func NeedsLookup(viewerID string, post entities.Post) bool {
	if viewerID == "" || viewerID == post.CreatorUserID {
		return false
	}
	switch post.Visibility {
	case entities.VisibilityFollowers, entities.VisibilitySubscribers, entities.VisibilityPPV:
		return true
	default:
		return false
	}
}

func unlocked(post entities.Post, withPrice bool) entities.Decision {
	decision := entities.Decision{
		VisibleAssetIDs: append([]string{}, post.AssetIDs...),
	}
	if withPrice {
		decision.VisiblePriceCents = copyPrice(post.PriceCents)
	}
	return decision
}

func locked(reason entities.LockedReason, price *int64) entities.Decision {
	return entities.Decision{
		IsLocked:          true,
		LockedReason:      reason,
		VisibleAssetIDs:   []string{},
		VisiblePriceCents: price,
	}
}

func copyPrice(price *int64) *int64 {
	if price == nil {
		return nil
	}
	value := *price
	return &value
}
