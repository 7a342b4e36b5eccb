package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"fanvault/contexts/content-access/entitlement-service/adapters/billing"
	"fanvault/contexts/content-access/entitlement-service/adapters/media"
	"fanvault/contexts/content-access/entitlement-service/adapters/memory"
	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
	"fanvault/internal/shared/idempotency"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type countingBilling struct {
	calls int
	inner billing.LocalBilling
}

func (c *countingBilling) CreatePaymentIntent(ctx context.Context, request ports.PaymentIntentRequest) (ports.PaymentIntent, error) {
	c.calls++
	return c.inner.CreatePaymentIntent(ctx, request)
}

type fixture struct {
	store   *memory.Store
	billing *countingBilling
	create  CreatePostUseCase
	update  UpdatePostUseCase
	follow  FollowUseCase
	intent  CreateIntentUseCase
	ingest  BillingIngestUseCase
	upload  RegisterUploadUseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	clock := fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.PutCreator(entities.CreatorProfile{
		UserID:          "creator-1",
		Handle:          "alice",
		Role:            "creator",
		OnboardingState: entities.OnboardingStateApproved,
		Discoverable:    true,
	})
	store.PutCreator(entities.CreatorProfile{
		UserID:          "creator-2",
		Handle:          "bob",
		Role:            "creator",
		OnboardingState: "EMAIL_VERIFIED",
	})
	bill := &countingBilling{}
	guard := idempotency.Guard{Store: idempotency.NewMemoryStore(), Clock: clock, PollInterval: time.Millisecond}
	return &fixture{
		store:   store,
		billing: bill,
		create:  CreatePostUseCase{Posts: store, Creators: store, Clock: clock, IDGenerator: store},
		update:  UpdatePostUseCase{Posts: store, Creators: store, Clock: clock},
		follow:  FollowUseCase{Follows: store, Creators: store, Clock: clock},
		intent: CreateIntentUseCase{
			Posts:        store,
			Creators:     store,
			Entitlements: store,
			Billing:      bill,
			Idempotency:  guard,
		},
		ingest: BillingIngestUseCase{Entitlements: store, Posts: store, Clock: clock},
		upload: RegisterUploadUseCase{Media: media.LocalMedia{Clock: clock}, MaxBytes: 1 << 20},
	}
}

func price(v int64) *int64 { return &v }

func (f *fixture) ppvPost(t *testing.T) entities.Post {
	t.Helper()
	post, err := f.create.Execute(context.Background(), CreatePostCommand{
		CreatorUserID: "creator-1",
		Title:         "Behind the scenes",
		Visibility:    "ppv",
		PriceCents:    price(900),
		AssetIDs:      []string{"asset-1", "asset-2"},
		Status:        "published",
	})
	if err != nil {
		t.Fatalf("create ppv post: %v", err)
	}
	return post
}

func TestCreatePostDefaultsToDraft(t *testing.T) {
	f := newFixture()
	post, err := f.create.Execute(context.Background(), CreatePostCommand{
		CreatorUserID: "creator-2",
		Title:         "Draft",
		Visibility:    "PUBLIC",
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if post.Status != entities.PostStatusDraft {
		t.Fatalf("expected DRAFT, got %s", post.Status)
	}
}

func TestCreatePostPublishRequiresApproval(t *testing.T) {
	f := newFixture()
	_, err := f.create.Execute(context.Background(), CreatePostCommand{
		CreatorUserID: "creator-2",
		Title:         "Hello",
		Visibility:    "PUBLIC",
		Status:        "PUBLISHED",
	})
	if !errors.Is(err, domainerrors.ErrKYCRequired) {
		t.Fatalf("expected kyc required, got %v", err)
	}
}

func TestCreatePostRejectsPriceOutsidePPV(t *testing.T) {
	f := newFixture()
	_, err := f.create.Execute(context.Background(), CreatePostCommand{
		CreatorUserID: "creator-1",
		Title:         "Free",
		Visibility:    "PUBLIC",
		PriceCents:    price(100),
	})
	if !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("expected invalid price, got %v", err)
	}
	_, err = f.create.Execute(context.Background(), CreatePostCommand{
		CreatorUserID: "creator-1",
		Title:         "Paid",
		Visibility:    "PPV",
	})
	if !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("expected invalid price for ppv without price, got %v", err)
	}
}

func TestUpdatePostOwnershipAndPriceClearing(t *testing.T) {
	f := newFixture()
	post := f.ppvPost(t)

	title := "stolen"
	if _, err := f.update.Execute(context.Background(), UpdatePostCommand{
		CreatorUserID: "creator-2",
		PostID:        post.PostID,
		Title:         &title,
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	visibility := "SUBSCRIBERS"
	updated, err := f.update.Execute(context.Background(), UpdatePostCommand{
		CreatorUserID: "creator-1",
		PostID:        post.PostID,
		Visibility:    &visibility,
	})
	if err != nil {
		t.Fatalf("update visibility: %v", err)
	}
	if updated.PriceCents != nil {
		t.Fatalf("expected price cleared, got %d", *updated.PriceCents)
	}
	stored, _ := f.store.GetPost(context.Background(), post.PostID)
	if stored.Visibility != entities.VisibilitySubscribers || stored.PriceCents != nil {
		t.Fatalf("unexpected stored post: %+v", stored)
	}
}

func TestFollowIsIdempotentAndRejectsSelf(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.follow.Follow(ctx, FollowCommand{FanUserID: "fan-1", Handle: "Alice"})
	if err != nil || !first.Changed {
		t.Fatalf("first follow: %+v %v", first, err)
	}
	second, err := f.follow.Follow(ctx, FollowCommand{FanUserID: "fan-1", Handle: "alice"})
	if err != nil || second.Changed || !second.Following {
		t.Fatalf("second follow should be a no-op: %+v %v", second, err)
	}
	if _, err := f.follow.Follow(ctx, FollowCommand{FanUserID: "creator-1", Handle: "alice"}); !errors.Is(err, domainerrors.ErrCannotFollowSelf) {
		t.Fatalf("expected self follow rejection, got %v", err)
	}
	if _, err := f.follow.Follow(ctx, FollowCommand{FanUserID: "fan-1", Handle: "bob"}); !errors.Is(err, domainerrors.ErrCreatorNotFound) {
		t.Fatalf("expected undiscoverable creator hidden, got %v", err)
	}

	removed, err := f.follow.Unfollow(ctx, FollowCommand{FanUserID: "fan-1", Handle: "alice"})
	if err != nil || !removed.Changed || removed.Following {
		t.Fatalf("unfollow: %+v %v", removed, err)
	}
	following, _ := f.store.ListFollowing(ctx, "fan-1")
	if len(following) != 0 {
		t.Fatalf("expected no follows, got %v", following)
	}
}

func TestCreateIntentReplaysByKey(t *testing.T) {
	f := newFixture()
	post := f.ppvPost(t)
	ctx := context.Background()

	first, err := f.intent.Execute(ctx, CreateIntentCommand{FanUserID: "fan-1", PostID: post.PostID, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if first.AmountCents != 900 || first.Replayed {
		t.Fatalf("unexpected first intent: %+v", first)
	}
	second, err := f.intent.Execute(ctx, CreateIntentCommand{FanUserID: "fan-1", PostID: post.PostID, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("replay intent: %v", err)
	}
	if !second.Replayed || second.IntentID != first.IntentID {
		t.Fatalf("expected replay of %s, got %+v", first.IntentID, second)
	}
	if f.billing.calls != 1 {
		t.Fatalf("expected one billing call, got %d", f.billing.calls)
	}
}

func TestCreateIntentRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	post := f.ppvPost(t)

	if _, err := f.intent.Execute(ctx, CreateIntentCommand{FanUserID: "creator-1", PostID: post.PostID}); !errors.Is(err, domainerrors.ErrOwnPost) {
		t.Fatalf("expected own post rejection, got %v", err)
	}

	free, err := f.create.Execute(ctx, CreatePostCommand{CreatorUserID: "creator-1", Title: "Free", Visibility: "PUBLIC", Status: "PUBLISHED"})
	if err != nil {
		t.Fatalf("create free post: %v", err)
	}
	if _, err := f.intent.Execute(ctx, CreateIntentCommand{FanUserID: "fan-1", PostID: free.PostID}); !errors.Is(err, domainerrors.ErrNotPPV) {
		t.Fatalf("expected not ppv, got %v", err)
	}

	if _, _, err := f.ingest.Purchase(ctx, IngestPurchaseCommand{FanUserID: "fan-1", PostID: post.PostID}); err != nil {
		t.Fatalf("ingest purchase: %v", err)
	}
	if _, err := f.intent.Execute(ctx, CreateIntentCommand{FanUserID: "fan-1", PostID: post.PostID}); !errors.Is(err, domainerrors.ErrAlreadyPurchased) {
		t.Fatalf("expected already purchased, got %v", err)
	}
	if _, err := f.intent.Execute(ctx, CreateIntentCommand{FanUserID: "fan-1", PostID: "missing"}); !errors.Is(err, domainerrors.ErrPostNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIngestPurchaseDuplicateIsNotCreated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	post := f.ppvPost(t)

	_, created, err := f.ingest.Purchase(ctx, IngestPurchaseCommand{FanUserID: "fan-1", PostID: post.PostID})
	if err != nil || !created {
		t.Fatalf("first purchase: created=%v err=%v", created, err)
	}
	_, created, err = f.ingest.Purchase(ctx, IngestPurchaseCommand{FanUserID: "fan-1", PostID: post.PostID})
	if err != nil || created {
		t.Fatalf("duplicate purchase: created=%v err=%v", created, err)
	}
	if _, _, err := f.ingest.Purchase(ctx, IngestPurchaseCommand{FanUserID: "fan-1", PostID: "missing"}); !errors.Is(err, domainerrors.ErrPostNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIngestSubscriptionValidatesStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.ingest.Subscription(ctx, IngestSubscriptionCommand{FanUserID: "fan-1", CreatorUserID: "creator-1", Status: "paused"}); !errors.Is(err, domainerrors.ErrInvalidSubscription) {
		t.Fatalf("expected invalid subscription, got %v", err)
	}
	sub, err := f.ingest.Subscription(ctx, IngestSubscriptionCommand{FanUserID: "fan-1", CreatorUserID: "creator-1", Status: "ACTIVE"})
	if err != nil || !sub.IsActive() {
		t.Fatalf("expected active subscription: %+v %v", sub, err)
	}
	snapshot, err := f.store.LoadSnapshot(ctx, ports.SnapshotRequest{ViewerID: "fan-1", CreatorIDs: []string{"creator-1"}})
	if err != nil || !snapshot.SubscribedTo("creator-1") {
		t.Fatalf("expected subscription in snapshot: %+v %v", snapshot, err)
	}
}

func TestRegisterUploadValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cases := []RegisterUploadCommand{
		{CreatorUserID: "creator-1", Filename: "", ContentType: "image/png", SizeBytes: 10},
		{CreatorUserID: "creator-1", Filename: "a.exe", ContentType: "application/octet-stream", SizeBytes: 10},
		{CreatorUserID: "creator-1", Filename: "a.png", ContentType: "image/png", SizeBytes: 0},
		{CreatorUserID: "creator-1", Filename: "a.png", ContentType: "image/png", SizeBytes: 2 << 20},
	}
	for i, cmd := range cases {
		if _, err := f.upload.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrInvalidUpload) {
			t.Fatalf("case %d: expected invalid upload, got %v", i, err)
		}
	}
	upload, err := f.upload.Execute(ctx, RegisterUploadCommand{CreatorUserID: "creator-1", Filename: "../clip.mp4", ContentType: "video/mp4", SizeBytes: 1024})
	if err != nil {
		t.Fatalf("register upload: %v", err)
	}
	if upload.AssetID == "" || !upload.ExpiresAt.After(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected upload: %+v", upload)
	}
}
