package memory

import (
	"context"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fanvault/contexts/content-access/entitlement-service/domain/entities"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

// Store is an in-memory adapter for the entitlement ports. It also carries a
// small creator directory so the module can run without onboarding.
type Store struct {
	mu sync.RWMutex

	posts         map[string]entities.Post
	follows       map[string]map[string]time.Time
	subscriptions map[string]entities.Subscription
	purchases     map[string]entities.Purchase
	creators      map[string]entities.CreatorProfile
	sequence      uint64
}

func NewStore() *Store {
	return &Store{
		posts:         make(map[string]entities.Post),
		follows:       make(map[string]map[string]time.Time),
		subscriptions: make(map[string]entities.Subscription),
		purchases:     make(map[string]entities.Purchase),
		creators:      make(map[string]entities.CreatorProfile),
	}
}

func (s *Store) CreatePost(_ context.Context, post entities.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[post.PostID]; exists {
		return domainerrors.ErrInvalidRequest
	}
	s.posts[post.PostID] = post.Clone()
	return nil
}

func (s *Store) UpdatePost(_ context.Context, post entities.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[post.PostID]; !exists {
		return domainerrors.ErrPostNotFound
	}
	s.posts[post.PostID] = post.Clone()
	return nil
}

func (s *Store) GetPost(_ context.Context, postID string) (entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[postID]
	if !ok {
		return entities.Post{}, domainerrors.ErrPostNotFound
	}
	return post.Clone(), nil
}

func (s *Store) ListPosts(_ context.Context, filter ports.PostListFilter) ([]entities.Post, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creators := make(map[string]struct{}, len(filter.CreatorUserIDs))
	for _, id := range filter.CreatorUserIDs {
		creators[id] = struct{}{}
	}
	items := make([]entities.Post, 0)
	for _, post := range s.posts {
		if _, ok := creators[post.CreatorUserID]; !ok {
			continue
		}
		if !filter.IncludeDrafts && !post.IsPublished() {
			continue
		}
		items = append(items, post.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PostID > items[j].PostID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	offset, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if offset >= len(items) {
		return []entities.Post{}, "", nil
	}
	end := offset + limit
	if end >= len(items) {
		return items[offset:], "", nil
	}
	return items[offset:end], encodeCursor(end), nil
}

// LoadSnapshot reads every requested relationship under one read lock.
func (s *Store) LoadSnapshot(ctx context.Context, request ports.SnapshotRequest) (entities.ViewerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return entities.ViewerSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := entities.ViewerSnapshot{
		ViewerID:      request.ViewerID,
		Follows:       make(map[string]bool, len(request.CreatorIDs)),
		Subscriptions: make(map[string]bool, len(request.CreatorIDs)),
		Purchases:     make(map[string]bool, len(request.PostIDs)),
	}
	if request.ViewerID == "" {
		return snapshot, nil
	}
	following := s.follows[request.ViewerID]
	for _, creatorID := range request.CreatorIDs {
		if _, ok := following[creatorID]; ok {
			snapshot.Follows[creatorID] = true
		}
		if sub, ok := s.subscriptions[pairKey(request.ViewerID, creatorID)]; ok && sub.IsActive() {
			snapshot.Subscriptions[creatorID] = true
		}
	}
	for _, postID := range request.PostIDs {
		if _, ok := s.purchases[pairKey(request.ViewerID, postID)]; ok {
			snapshot.Purchases[postID] = true
		}
	}
	return snapshot, nil
}

func (s *Store) Follow(_ context.Context, edge entities.FollowEdge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	following, ok := s.follows[edge.FanUserID]
	if !ok {
		following = make(map[string]time.Time)
		s.follows[edge.FanUserID] = following
	}
	if _, exists := following[edge.CreatorUserID]; exists {
		return false, nil
	}
	following[edge.CreatorUserID] = edge.CreatedAt
	return true, nil
}

func (s *Store) Unfollow(_ context.Context, fanUserID string, creatorUserID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	following := s.follows[fanUserID]
	if _, exists := following[creatorUserID]; !exists {
		return false, nil
	}
	delete(following, creatorUserID)
	return true, nil
}

func (s *Store) ListFollowing(_ context.Context, fanUserID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.follows[fanUserID]))
	for creatorID := range s.follows[fanUserID] {
		out = append(out, creatorID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) UpsertSubscription(_ context.Context, subscription entities.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[pairKey(subscription.FanUserID, subscription.CreatorUserID)] = subscription
	return nil
}

func (s *Store) RecordPurchase(_ context.Context, purchase entities.Purchase) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(purchase.FanUserID, purchase.PostID)
	if _, exists := s.purchases[key]; exists {
		return false, nil
	}
	s.purchases[key] = purchase
	return true, nil
}

// PutCreator registers or replaces a creator profile.
func (s *Store) PutCreator(profile entities.CreatorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile.Handle = strings.ToLower(profile.Handle)
	s.creators[profile.UserID] = profile
}

func (s *Store) GetCreator(_ context.Context, userID string) (entities.CreatorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.creators[userID]
	if !ok {
		return entities.CreatorProfile{}, domainerrors.ErrCreatorNotFound
	}
	return profile, nil
}

func (s *Store) GetCreatorByHandle(_ context.Context, handle string) (entities.CreatorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle = strings.ToLower(strings.TrimSpace(handle))
	for _, profile := range s.creators {
		if profile.Handle == handle {
			return profile, nil
		}
	}
	return entities.CreatorProfile{}, domainerrors.ErrCreatorNotFound
}

func (s *Store) NewID(_ context.Context) (string, error) {
	n := atomic.AddUint64(&s.sequence, 1)
	return "post_" + strconv.FormatUint(n, 10), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func pairKey(left string, right string) string {
	return left + "|" + right
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domainerrors.ErrInvalidRequest
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, domainerrors.ErrInvalidRequest
	}
	return offset, nil
}
