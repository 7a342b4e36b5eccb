package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

func seedPosts(t *testing.T, store *Store, creatorID string, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		status := entities.PostStatusPublished
		if i%5 == 4 {
			status = entities.PostStatusDraft
		}
		err := store.CreatePost(context.Background(), entities.Post{
			PostID:        creatorID + "-" + strconv.Itoa(i),
			CreatorUserID: creatorID,
			Title:         "post",
			Visibility:    entities.VisibilityPublic,
			AssetIDs:      []string{"a"},
			Status:        status,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed post %d: %v", i, err)
		}
	}
}

func TestListPostsNewestFirstWithCursor(t *testing.T) {
	store := NewStore()
	seedPosts(t, store, "c1", 10)
	seedPosts(t, store, "c2", 3)
	ctx := context.Background()

	var seen []string
	cursor := ""
	for {
		items, next, err := store.ListPosts(ctx, ports.PostListFilter{CreatorUserIDs: []string{"c1"}, Cursor: cursor, Limit: 3})
		if err != nil {
			t.Fatalf("list posts: %v", err)
		}
		for _, item := range items {
			seen = append(seen, item.PostID)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 8 {
		t.Fatalf("expected 8 published posts, got %d: %v", len(seen), seen)
	}
	if seen[0] != "c1-8" || seen[len(seen)-1] != "c1-0" {
		t.Fatalf("expected newest first, got %v", seen)
	}

	all, _, err := store.ListPosts(ctx, ports.PostListFilter{CreatorUserIDs: []string{"c1"}, IncludeDrafts: true, Limit: 100})
	if err != nil || len(all) != 10 {
		t.Fatalf("expected drafts included, got %d err=%v", len(all), err)
	}

	if _, _, err := store.ListPosts(ctx, ports.PostListFilter{CreatorUserIDs: []string{"c1"}, Cursor: "%%%"}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid cursor, got %v", err)
	}
}

func TestGetPostReturnsCopies(t *testing.T) {
	store := NewStore()
	seedPosts(t, store, "c1", 1)
	post, err := store.GetPost(context.Background(), "c1-0")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	post.AssetIDs[0] = "mutated"
	again, _ := store.GetPost(context.Background(), "c1-0")
	if again.AssetIDs[0] != "a" {
		t.Fatalf("store leaked its slice")
	}
	if _, err := store.GetPost(context.Background(), "nope"); !errors.Is(err, domainerrors.ErrPostNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, _ = store.Follow(ctx, entities.FollowEdge{FanUserID: "f1", CreatorUserID: "c1"})
	_ = store.UpsertSubscription(ctx, entities.Subscription{FanUserID: "f1", CreatorUserID: "c1", Status: entities.SubscriptionActive})
	_ = store.UpsertSubscription(ctx, entities.Subscription{FanUserID: "f1", CreatorUserID: "c2", Status: entities.SubscriptionPastDue})
	_, _ = store.RecordPurchase(ctx, entities.Purchase{FanUserID: "f1", PostID: "p1"})

	snapshot, err := store.LoadSnapshot(ctx, ports.SnapshotRequest{
		ViewerID:   "f1",
		CreatorIDs: []string{"c1", "c2"},
		PostIDs:    []string{"p1", "p2"},
	})
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if !snapshot.FollowsCreator("c1") || snapshot.FollowsCreator("c2") {
		t.Fatalf("unexpected follows: %+v", snapshot.Follows)
	}
	if !snapshot.SubscribedTo("c1") || snapshot.SubscribedTo("c2") {
		t.Fatalf("past_due must not count as active: %+v", snapshot.Subscriptions)
	}
	if !snapshot.Purchased("p1") || snapshot.Purchased("p2") {
		t.Fatalf("unexpected purchases: %+v", snapshot.Purchases)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.LoadSnapshot(canceled, ports.SnapshotRequest{ViewerID: "f1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled context error, got %v", err)
	}
}

func TestCreatorDirectoryByHandle(t *testing.T) {
	store := NewStore()
	store.PutCreator(entities.CreatorProfile{UserID: "c1", Handle: "Alice", Role: "creator"})
	profile, err := store.GetCreatorByHandle(context.Background(), " ALICE ")
	if err != nil || profile.UserID != "c1" {
		t.Fatalf("lookup by handle: %+v %v", profile, err)
	}
	if _, err := store.GetCreator(context.Background(), "c9"); !errors.Is(err, domainerrors.ErrCreatorNotFound) {
		t.Fatalf("expected creator not found, got %v", err)
	}
}
