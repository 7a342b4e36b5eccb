package services

import (
	"testing"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
)

const (
	owner  = "creator-1"
	viewer = "fan-1"
)

func post(visibility entities.Visibility) entities.Post {
	p := entities.Post{
		PostID:        "post-1",
		CreatorUserID: owner,
		Title:         "teaser",
		Visibility:    visibility,
		AssetIDs:      []string{"a1", "a2"},
		Status:        entities.PostStatusPublished,
	}
	if visibility == entities.VisibilityPPV {
		price := int64(499)
		p.PriceCents = &price
	}
	return p
}

type relation struct {
	follows    bool
	subscribed bool
	purchased  bool
	degraded   bool
}

func snapshotFor(r relation) entities.ViewerSnapshot {
	return entities.ViewerSnapshot{
		ViewerID:      viewer,
		Follows:       map[string]bool{owner: r.follows},
		Subscriptions: map[string]bool{owner: r.subscribed},
		Purchases:     map[string]bool{"post-1": r.purchased},
		Degraded:      r.degraded,
	}
}

func allRelations() []relation {
	out := make([]relation, 0, 16)
	for mask := 0; mask < 16; mask++ {
		out = append(out, relation{
			follows:    mask&1 != 0,
			subscribed: mask&2 != 0,
			purchased:  mask&4 != 0,
			degraded:   mask&8 != 0,
		})
	}
	return out
}

func expectedUnlock(visibility entities.Visibility, r relation) bool {
	if r.degraded {
		return visibility == entities.VisibilityPublic
	}
	switch visibility {
	case entities.VisibilityPublic:
		return true
	case entities.VisibilityFollowers:
		return r.follows || r.purchased
	case entities.VisibilitySubscribers:
		return r.subscribed || r.purchased
	case entities.VisibilityPPV:
		return r.purchased
	default:
		return false
	}
}

func TestOwnerAlwaysUnlocked(t *testing.T) {
	for _, visibility := range entities.Visibilities() {
		for _, r := range allRelations() {
			decision := Resolve(owner, post(visibility), snapshotFor(r))
			if decision.IsLocked {
				t.Fatalf("owner locked out of %s with %+v", visibility, r)
			}
			if len(decision.VisibleAssetIDs) != 2 {
				t.Fatalf("owner should see all assets of %s", visibility)
			}
		}
	}
}

func TestResolverMatrix(t *testing.T) {
	for _, visibility := range entities.Visibilities() {
		for _, r := range allRelations() {
			decision := Resolve(viewer, post(visibility), snapshotFor(r))
			want := expectedUnlock(visibility, r)
			if decision.IsLocked == want {
				t.Fatalf("%s %+v: locked=%v, want unlocked=%v", visibility, r, decision.IsLocked, want)
			}
			if decision.IsLocked {
				if len(decision.VisibleAssetIDs) != 0 || decision.VisibleAssetIDs == nil {
					t.Fatalf("%s %+v: locked decision leaked assets %v", visibility, r, decision.VisibleAssetIDs)
				}
				if decision.LockedReason == entities.LockedReasonNone {
					t.Fatalf("%s %+v: locked without reason", visibility, r)
				}
			} else if len(decision.VisibleAssetIDs) != 2 {
				t.Fatalf("%s %+v: unlocked decision missing assets", visibility, r)
			}
			showsPrice := decision.VisiblePriceCents != nil
			if showsPrice != (visibility == entities.VisibilityPPV && decision.IsLocked) {
				t.Fatalf("%s %+v: price exposure wrong (%v)", visibility, r, showsPrice)
			}
		}
	}
}

func TestAnonymousViewer(t *testing.T) {
	full := snapshotFor(relation{follows: true, subscribed: true, purchased: true})
	reasons := map[entities.Visibility]entities.LockedReason{
		entities.VisibilityPublic:      entities.LockedReasonNone,
		entities.VisibilityPrivate:     entities.LockedReasonPrivate,
		entities.VisibilityFollowers:   entities.LockedReasonFollowRequired,
		entities.VisibilitySubscribers: entities.LockedReasonSubscriptionRequired,
		entities.VisibilityPPV:         entities.LockedReasonPPVRequired,
	}
	for visibility, reason := range reasons {
		decision := Resolve("", post(visibility), full)
		if decision.LockedReason != reason {
			t.Fatalf("anonymous %s: reason %q, want %q", visibility, decision.LockedReason, reason)
		}
	}
}

func TestPurchaseDoesNotUnlockPrivate(t *testing.T) {
	decision := Resolve(viewer, post(entities.VisibilityPrivate), snapshotFor(relation{purchased: true, follows: true, subscribed: true}))
	if !decision.IsLocked || decision.LockedReason != entities.LockedReasonPrivate {
		t.Fatalf("expected PRIVATE lock, got %+v", decision)
	}
}

func TestResolveDoesNotAliasAssets(t *testing.T) {
	p := post(entities.VisibilityPublic)
	decision := Resolve(viewer, p, entities.ViewerSnapshot{})
	decision.VisibleAssetIDs[0] = "mutated"
	if p.AssetIDs[0] != "a1" {
		t.Fatal("decision shares the post asset slice")
	}
}

func TestNeedsLookup(t *testing.T) {
	cases := []struct {
		viewer     string
		visibility entities.Visibility
		want       bool
	}{
		{"", entities.VisibilityFollowers, false},
		{owner, entities.VisibilityPPV, false},
		{viewer, entities.VisibilityPublic, false},
		{viewer, entities.VisibilityPrivate, false},
		{viewer, entities.VisibilityFollowers, true},
		{viewer, entities.VisibilitySubscribers, true},
		{viewer, entities.VisibilityPPV, true},
	}
	for _, tc := range cases {
		if got := NeedsLookup(tc.viewer, post(tc.visibility)); got != tc.want {
			t.Fatalf("NeedsLookup(%q, %s) = %v, want %v", tc.viewer, tc.visibility, got, tc.want)
		}
	}
}
