package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
)

// followNode holds both adjacency sets of one user. Follow edges touch two
// nodes; they are always locked in ID order.
type followNode struct {
	mu        sync.RWMutex
	followers map[string]time.Time
	following map[string]time.Time
}

// MemoryFollowStore implements FollowGraphStore in process. Each user has its
// own lock, so edges between unrelated users never contend.
type MemoryFollowStore struct {
	users  UserChecker
	limits Limits
	now    func() time.Time

	mu    sync.Mutex
	nodes map[string]*followNode
}

// NewMemoryFollowStore creates a MemoryFollowStore. users may be nil to skip
// existence checks.
func NewMemoryFollowStore(users UserChecker, limits Limits) *MemoryFollowStore {
	return &MemoryFollowStore{
		users:  users,
		limits: limits.withDefaults(),
		now:    func() time.Time { return time.Now().UTC() },
		nodes:  make(map[string]*followNode),
	}
}

func (s *MemoryFollowStore) node(id string) *followNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		n = &followNode{followers: make(map[string]time.Time), following: make(map[string]time.Time)}
		s.nodes[id] = n
	}
	return n
}

func (s *MemoryFollowStore) peek(id string) *followNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}

func lockPair(aID string, a *followNode, bID string, b *followNode) func() {
	first, second := a, b
	if bID < aID {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

func (s *MemoryFollowStore) Follow(ctx context.Context, followerID, followeeID string) (models.FollowResult, error) {
	if followerID == followeeID {
		return models.FollowResult{}, apperrors.New(apperrors.SelfFollow, "user %q cannot follow themselves", followerID)
	}
	if err := checkUsers(ctx, s.users, followerID, followeeID); err != nil {
		return models.FollowResult{}, err
	}

	follower, followee := s.node(followerID), s.node(followeeID)
	unlock := lockPair(followerID, follower, followeeID, followee)
	defer unlock()

	_, exists := follower.following[followeeID]
	if !exists {
		at := s.now()
		follower.following[followeeID] = at
		followee.followers[followerID] = at
	}
	return models.FollowResult{
		Changed:        !exists,
		Following:      true,
		FollowerCount:  int64(len(followee.followers)),
		FollowingCount: int64(len(follower.following)),
	}, nil
}

func (s *MemoryFollowStore) Unfollow(ctx context.Context, followerID, followeeID string) (models.FollowResult, error) {
	if followerID == followeeID {
		return models.FollowResult{
			FollowerCount:  s.count(followeeID, true),
			FollowingCount: s.count(followerID, false),
		}, nil
	}

	follower, followee := s.node(followerID), s.node(followeeID)
	unlock := lockPair(followerID, follower, followeeID, followee)
	defer unlock()

	_, exists := follower.following[followeeID]
	if exists {
		delete(follower.following, followeeID)
		delete(followee.followers, followerID)
	}
	return models.FollowResult{
		Changed:        exists,
		Following:      false,
		FollowerCount:  int64(len(followee.followers)),
		FollowingCount: int64(len(follower.following)),
	}, nil
}

func (s *MemoryFollowStore) IsFollowing(_ context.Context, followerID, followeeID string) (bool, error) {
	n := s.peek(followerID)
	if n == nil {
		return false, nil
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.following[followeeID]
	return ok, nil
}

func (s *MemoryFollowStore) count(userID string, followers bool) int64 {
	n := s.peek(userID)
	if n == nil {
		return 0
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if followers {
		return int64(len(n.followers))
	}
	return int64(len(n.following))
}

func (s *MemoryFollowStore) FollowerCount(_ context.Context, userID string) (int64, error) {
	return s.count(userID, true), nil
}

func (s *MemoryFollowStore) FollowingCount(_ context.Context, userID string) (int64, error) {
	return s.count(userID, false), nil
}

func (s *MemoryFollowStore) ListFollowers(_ context.Context, userID, cur string, limit int) (models.Page[models.FollowEntry], error) {
	return s.list(userID, cur, limit, true)
}

func (s *MemoryFollowStore) ListFollowing(_ context.Context, userID, cur string, limit int) (models.Page[models.FollowEntry], error) {
	return s.list(userID, cur, limit, false)
}

// list serves edges newest first, ties broken by user ID descending, the same
// order the postgres store uses.
func (s *MemoryFollowStore) list(userID, cur string, limit int, followers bool) (models.Page[models.FollowEntry], error) {
	after, err := decodeCursor(cur)
	if err != nil {
		return models.Page[models.FollowEntry]{}, err
	}
	limit = s.limits.ClampPageSize(limit)

	entries := []models.FollowEntry{}
	if n := s.peek(userID); n != nil {
		n.mu.RLock()
		set := n.following
		if followers {
			set = n.followers
		}
		entries = make([]models.FollowEntry, 0, len(set))
		for id, at := range set {
			entries = append(entries, models.FollowEntry{UserID: id, FollowedAt: at})
		}
		n.mu.RUnlock()
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].FollowedAt.Equal(entries[j].FollowedAt) {
			return entries[i].FollowedAt.After(entries[j].FollowedAt)
		}
		return entries[i].UserID > entries[j].UserID
	})

	start := 0
	if after != nil {
		start = sort.Search(len(entries), func(i int) bool {
			e := entries[i]
			return e.FollowedAt.Before(after.At) || (e.FollowedAt.Equal(after.At) && e.UserID < after.Key)
		})
	}
	end := start + limit + 1
	if end > len(entries) {
		end = len(entries)
	}
	items, more := trimPage(entries[start:end], limit)

	page := models.Page[models.FollowEntry]{Items: items}
	if more {
		last := items[len(items)-1]
		next := encodeCursor(last.FollowedAt, last.UserID)
		page.NextCursor = &next
	}
	return page, nil
}
