package repositories

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/anonto42/jackpot/backend/internal/models"
)

// postBucket holds everything the engagement store knows about one post.
type postBucket struct {
	mu       sync.RWMutex
	likers   map[string]time.Time
	comments []models.Comment
}

// MemoryEngagementStore implements EngagementStore in process with one lock
// per post, so a like on one post never waits on another post.
type MemoryEngagementStore struct {
	limits Limits
	now    func() time.Time

	mu        sync.Mutex
	posts     map[string]*postBucket
	commentID int64
}

// NewMemoryEngagementStore creates a MemoryEngagementStore.
func NewMemoryEngagementStore(limits Limits) *MemoryEngagementStore {
	return &MemoryEngagementStore{
		limits: limits.withDefaults(),
		now:    func() time.Time { return time.Now().UTC() },
		posts:  make(map[string]*postBucket),
	}
}

func (s *MemoryEngagementStore) bucket(postID string) *postBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.posts[postID]
	if !ok {
		b = &postBucket{likers: make(map[string]time.Time)}
		s.posts[postID] = b
	}
	return b
}

func (s *MemoryEngagementStore) peek(postID string) *postBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts[postID]
}

func (s *MemoryEngagementStore) nextCommentID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentID++
	return s.commentID
}

func (s *MemoryEngagementStore) SetLike(_ context.Context, postID, userID string, liked bool) (models.LikeResult, error) {
	b := s.bucket(postID)
	b.mu.Lock()
	defer b.mu.Unlock()

	_, present := b.likers[userID]
	changed := present != liked
	if changed {
		if liked {
			b.likers[userID] = s.now()
		} else {
			delete(b.likers, userID)
		}
	}
	return models.LikeResult{
		Changed: changed,
		LikeState: models.LikeState{
			PostID:        postID,
			LikeCount:     int64(len(b.likers)),
			LikedByCaller: liked,
		},
	}, nil
}

func (s *MemoryEngagementStore) GetLikeState(_ context.Context, postID, userID string) (models.LikeState, error) {
	state := models.LikeState{PostID: postID}
	b := s.peek(postID)
	if b == nil {
		return state, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, state.LikedByCaller = b.likers[userID]
	state.LikeCount = int64(len(b.likers))
	return state, nil
}

func (s *MemoryEngagementStore) GetLikeStates(ctx context.Context, postIDs []string, userID string) (map[string]models.LikeState, error) {
	states := make(map[string]models.LikeState, len(postIDs))
	for _, id := range postIDs {
		st, err := s.GetLikeState(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		states[id] = st
	}
	return states, nil
}

func (s *MemoryEngagementStore) RecentLikers(_ context.Context, postID string, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	b := s.peek(postID)
	if b == nil {
		return []string{}, nil
	}
	type liker struct {
		id string
		at time.Time
	}
	b.mu.RLock()
	likers := make([]liker, 0, len(b.likers))
	for id, at := range b.likers {
		likers = append(likers, liker{id, at})
	}
	b.mu.RUnlock()

	sort.Slice(likers, func(i, j int) bool {
		if !likers[i].at.Equal(likers[j].at) {
			return likers[i].at.After(likers[j].at)
		}
		return likers[i].id > likers[j].id
	})
	if len(likers) > n {
		likers = likers[:n]
	}
	ids := make([]string, len(likers))
	for i, l := range likers {
		ids[i] = l.id
	}
	return ids, nil
}

func (s *MemoryEngagementStore) LikeCount(_ context.Context, postID string) (int64, error) {
	b := s.peek(postID)
	if b == nil {
		return 0, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.likers)), nil
}

// AddComment appends to the post's log. The ID is drawn while the post lock is
// held and the timestamp never goes backwards, so (CreatedAt, ID) order is
// insertion order even when the clock ties or steps back.
func (s *MemoryEngagementStore) AddComment(_ context.Context, postID, authorID, text string) (models.Comment, error) {
	text, err := s.limits.NormalizeComment(text)
	if err != nil {
		return models.Comment{}, err
	}

	b := s.bucket(postID)
	b.mu.Lock()
	defer b.mu.Unlock()

	at := s.now()
	if n := len(b.comments); n > 0 && at.Before(b.comments[n-1].CreatedAt) {
		at = b.comments[n-1].CreatedAt
	}
	c := models.Comment{
		ID:        s.nextCommentID(),
		PostID:    postID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: at,
	}
	b.comments = append(b.comments, c)
	return c, nil
}

func (s *MemoryEngagementStore) ListComments(_ context.Context, postID, cur string, limit int) (models.Page[models.Comment], error) {
	after, err := decodeCursor(cur)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	var afterID int64
	if after != nil {
		if afterID, err = strconv.ParseInt(after.Key, 10, 64); err != nil {
			return models.Page[models.Comment]{}, invalidCursor(err)
		}
	}
	limit = s.limits.ClampPageSize(limit)

	page := models.Page[models.Comment]{Items: []models.Comment{}}
	b := s.peek(postID)
	if b == nil {
		return page, nil
	}

	b.mu.RLock()
	start := 0
	if after != nil {
		start = sort.Search(len(b.comments), func(i int) bool {
			c := b.comments[i]
			return c.CreatedAt.After(after.At) || (c.CreatedAt.Equal(after.At) && c.ID > afterID)
		})
	}
	end := start + limit + 1
	if end > len(b.comments) {
		end = len(b.comments)
	}
	window := make([]models.Comment, end-start)
	copy(window, b.comments[start:end])
	b.mu.RUnlock()

	items, more := trimPage(window, limit)
	page.Items = items
	if more {
		last := items[len(items)-1]
		next := encodeCursor(last.CreatedAt, strconv.FormatInt(last.ID, 10))
		page.NextCursor = &next
	}
	return page, nil
}

func (s *MemoryEngagementStore) CommentCount(_ context.Context, postID string) (int64, error) {
	b := s.peek(postID)
	if b == nil {
		return 0, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.comments)), nil
}
