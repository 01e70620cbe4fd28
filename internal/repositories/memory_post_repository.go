package repositories

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/anonto42/jackpot/backend/internal/models"
)

// MemoryPostRepository is an in-process PostRepository for development and
// tests.
type MemoryPostRepository struct {
	limits Limits

	mu     sync.RWMutex
	posts  map[string]models.Post
	nextID int64
}

func NewMemoryPostRepository(limits Limits) *MemoryPostRepository {
	return &MemoryPostRepository{limits: limits.withDefaults(), posts: make(map[string]models.Post)}
}

// CreatePost stores post, assigning an ID and CreatedAt when they are empty.
func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == "" {
		r.nextID++
		post.ID = "post-" + strconv.FormatInt(r.nextID, 10)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	r.posts[post.ID] = *post
	return nil
}

func (r *MemoryPostRepository) PostExists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.posts[id]
	return ok, nil
}

func (r *MemoryPostRepository) ListPostsByAuthor(_ context.Context, authorID, cur string, limit int) (models.Page[models.Post], error) {
	after, err := decodeCursor(cur)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	limit = r.limits.ClampPageSize(limit)

	r.mu.RLock()
	posts := []models.Post{}
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	if after != nil {
		start := sort.Search(len(posts), func(i int) bool {
			p := posts[i]
			return p.CreatedAt.Before(after.At) || (p.CreatedAt.Equal(after.At) && p.ID < after.Key)
		})
		posts = posts[start:]
	}
	if len(posts) > limit+1 {
		posts = posts[:limit+1]
	}

	items, more := trimPage(posts, limit)
	page := models.Page[models.Post]{Items: items}
	if more {
		last := items[len(items)-1]
		next := encodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &next
	}
	return page, nil
}

func (r *MemoryPostRepository) CountPostsByAuthor(_ context.Context, authorID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}
