package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userSet is a UserChecker over a fixed set of IDs.
type userSet map[string]bool

func (u userSet) UserExists(_ context.Context, id string) (bool, error) {
	return u[id], nil
}

// suiteIDs namespaces IDs per test so the postgres run needs no cleanup.
func suiteIDs(names ...string) []string {
	prefix := uuid.NewString()[:8]
	ids := make([]string, len(names))
	for i, n := range names {
		ids[i] = prefix + "-" + n
	}
	return ids
}

func suiteLimits() Limits {
	return Limits{DefaultPageSize: 10, MaxPageSize: 10, MaxCommentLength: 20}
}

// runFollowStoreSuite exercises the FollowGraphStore contract. newStore gets
// the set of users that exist.
func runFollowStoreSuite(t *testing.T, newStore func(t *testing.T, users UserChecker) FollowGraphStore) {
	ctx := context.Background()

	t.Run("follow is idempotent", func(t *testing.T) {
		ids := suiteIDs("a", "b")
		a, b := ids[0], ids[1]
		store := newStore(t, userSet{a: true, b: true})

		first, err := store.Follow(ctx, a, b)
		require.NoError(t, err)
		assert.True(t, first.Changed)
		assert.True(t, first.Following)
		assert.Equal(t, int64(1), first.FollowerCount)
		assert.Equal(t, int64(1), first.FollowingCount)

		second, err := store.Follow(ctx, a, b)
		require.NoError(t, err)
		assert.False(t, second.Changed)
		assert.Equal(t, int64(1), second.FollowerCount)

		n, err := store.FollowerCount(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("self follow is rejected for any user", func(t *testing.T) {
		ids := suiteIDs("a", "ghost")
		store := newStore(t, userSet{ids[0]: true})
		for _, id := range ids {
			_, err := store.Follow(ctx, id, id)
			assert.True(t, apperrors.IsKind(err, apperrors.SelfFollow), "user %s: %v", id, err)
		}
	})

	t.Run("unknown users are rejected", func(t *testing.T) {
		ids := suiteIDs("a", "ghost")
		store := newStore(t, userSet{ids[0]: true})

		_, err := store.Follow(ctx, ids[0], ids[1])
		assert.True(t, apperrors.IsKind(err, apperrors.UnknownUser))
		_, err = store.Follow(ctx, ids[1], ids[0])
		assert.True(t, apperrors.IsKind(err, apperrors.UnknownUser))

		n, err := store.FollowingCount(ctx, ids[0])
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("follow then unfollow scenario", func(t *testing.T) {
		ids := suiteIDs("u1", "u2")
		u1, u2 := ids[0], ids[1]
		store := newStore(t, userSet{u1: true, u2: true})

		res, err := store.Follow(ctx, u1, u2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.FollowerCount)

		following, err := store.IsFollowing(ctx, u1, u2)
		require.NoError(t, err)
		assert.True(t, following)

		res, err = store.Unfollow(ctx, u1, u2)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.False(t, res.Following)
		assert.Equal(t, int64(0), res.FollowerCount)

		res, err = store.Unfollow(ctx, u1, u2)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, int64(0), res.FollowerCount)

		following, err = store.IsFollowing(ctx, u1, u2)
		require.NoError(t, err)
		assert.False(t, following)
	})

	t.Run("concurrent follows of one edge insert once", func(t *testing.T) {
		ids := suiteIDs("a", "b")
		a, b := ids[0], ids[1]
		store := newStore(t, userSet{a: true, b: true})

		const workers = 32
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			changed int
			errs    []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := store.Follow(ctx, a, b)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				if res.Changed {
					changed++
				}
			}()
		}
		wg.Wait()

		require.Empty(t, errs)
		assert.Equal(t, 1, changed)
		n, err := store.FollowerCount(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("concurrent follow and unfollow never go negative", func(t *testing.T) {
		ids := suiteIDs("a", "b")
		a, b := ids[0], ids[1]
		store := newStore(t, userSet{a: true, b: true})

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var res models.FollowResult
				var err error
				if i%2 == 0 {
					res, err = store.Follow(ctx, a, b)
				} else {
					res, err = store.Unfollow(ctx, a, b)
				}
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, res.FollowerCount, int64(0))
				assert.LessOrEqual(t, res.FollowerCount, int64(1))
			}(i)
		}
		wg.Wait()

		following, err := store.IsFollowing(ctx, a, b)
		require.NoError(t, err)
		n, err := store.FollowerCount(ctx, b)
		require.NoError(t, err)
		if following {
			assert.Equal(t, int64(1), n)
		} else {
			assert.Equal(t, int64(0), n)
		}
	})

	t.Run("followers paginate newest first", func(t *testing.T) {
		names := []string{"target"}
		for i := 0; i < 23; i++ {
			names = append(names, fmt.Sprintf("f%02d", i))
		}
		ids := suiteIDs(names...)
		target, followers := ids[0], ids[1:]
		users := userSet{target: true}
		for _, id := range followers {
			users[id] = true
		}
		store := newStore(t, users)
		for _, id := range followers {
			_, err := store.Follow(ctx, id, target)
			require.NoError(t, err)
		}

		seen := map[string]bool{}
		var all []models.FollowEntry
		cur := ""
		pages := 0
		for {
			page, err := store.ListFollowers(ctx, target, cur, 1000)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page.Items), 10)
			pages++
			for _, e := range page.Items {
				assert.False(t, seen[e.UserID], "duplicate %s", e.UserID)
				seen[e.UserID] = true
			}
			all = append(all, page.Items...)
			if page.NextCursor == nil {
				break
			}
			cur = *page.NextCursor
		}
		assert.Equal(t, 3, pages)
		assert.Len(t, all, len(followers))
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].FollowedAt.After(all[i-1].FollowedAt), "not newest first at %d", i)
		}

		following, err := store.ListFollowing(ctx, followers[0], "", 0)
		require.NoError(t, err)
		require.Len(t, following.Items, 1)
		assert.Equal(t, target, following.Items[0].UserID)
		assert.Nil(t, following.NextCursor)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		store := newStore(t, nil)
		_, err := store.ListFollowers(ctx, "anyone", "%%%not-a-cursor", 5)
		assert.True(t, apperrors.IsKind(err, apperrors.InvalidArgument))
	})
}

// runEngagementStoreSuite exercises the EngagementStore contract.
func runEngagementStoreSuite(t *testing.T, newStore func(t *testing.T) EngagementStore) {
	ctx := context.Background()

	t.Run("set like is an idempotent toggle", func(t *testing.T) {
		ids := suiteIDs("post", "u1")
		post, u1 := ids[0], ids[1]
		store := newStore(t)

		res, err := store.SetLike(ctx, post, u1, true)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, int64(1), res.LikeCount)
		assert.True(t, res.LikedByCaller)

		for i := 0; i < 3; i++ {
			res, err = store.SetLike(ctx, post, u1, true)
			require.NoError(t, err)
			assert.False(t, res.Changed)
			assert.Equal(t, int64(1), res.LikeCount)
		}

		res, err = store.SetLike(ctx, post, u1, false)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, int64(0), res.LikeCount)
		assert.False(t, res.LikedByCaller)

		res, err = store.SetLike(ctx, post, u1, false)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, int64(0), res.LikeCount)
	})

	t.Run("double tap counts once", func(t *testing.T) {
		ids := suiteIDs("p1", "u1")
		p1, u1 := ids[0], ids[1]
		store := newStore(t)

		var wg sync.WaitGroup
		results := make([]models.LikeResult, 2)
		errs := make([]error, 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = store.SetLike(ctx, p1, u1, true)
			}(i)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.True(t, results[0].Changed != results[1].Changed, "exactly one call may change state")
		n, err := store.LikeCount(ctx, p1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("many concurrent likes by one user count once", func(t *testing.T) {
		ids := suiteIDs("post", "u1")
		store := newStore(t)

		var wg sync.WaitGroup
		var mu sync.Mutex
		changed := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := store.SetLike(ctx, ids[0], ids[1], true)
				assert.NoError(t, err)
				if res.Changed {
					mu.Lock()
					changed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, changed)
		state, err := store.GetLikeState(ctx, ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.LikeCount)
		assert.True(t, state.LikedByCaller)
	})

	t.Run("like count matches per-user membership", func(t *testing.T) {
		names := []string{"post"}
		for i := 0; i < 8; i++ {
			names = append(names, fmt.Sprintf("u%d", i))
		}
		ids := suiteIDs(names...)
		post, users := ids[0], ids[1:]
		store := newStore(t)

		var wg sync.WaitGroup
		for round := 0; round < 5; round++ {
			for i, u := range users {
				wg.Add(1)
				go func(u string, liked bool) {
					defer wg.Done()
					_, err := store.SetLike(ctx, post, u, liked)
					assert.NoError(t, err)
				}(u, (i+round)%3 != 0)
			}
		}
		wg.Wait()

		var liked int64
		for _, u := range users {
			st, err := store.GetLikeState(ctx, post, u)
			require.NoError(t, err)
			if st.LikedByCaller {
				liked++
			}
		}
		n, err := store.LikeCount(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, liked, n)
	})

	t.Run("like states and recent likers", func(t *testing.T) {
		ids := suiteIDs("p1", "p2", "p3", "u1", "u2")
		p1, p2, p3, u1, u2 := ids[0], ids[1], ids[2], ids[3], ids[4]
		store := newStore(t)

		_, err := store.SetLike(ctx, p1, u1, true)
		require.NoError(t, err)
		_, err = store.SetLike(ctx, p1, u2, true)
		require.NoError(t, err)
		_, err = store.SetLike(ctx, p2, u2, true)
		require.NoError(t, err)

		states, err := store.GetLikeStates(ctx, []string{p1, p2, p3}, u1)
		require.NoError(t, err)
		assert.Equal(t, models.LikeState{PostID: p1, LikeCount: 2, LikedByCaller: true}, states[p1])
		assert.Equal(t, models.LikeState{PostID: p2, LikeCount: 1, LikedByCaller: false}, states[p2])
		assert.Equal(t, models.LikeState{PostID: p3}, states[p3])

		likers, err := store.RecentLikers(ctx, p1, 1)
		require.NoError(t, err)
		assert.Len(t, likers, 1)

		likers, err = store.RecentLikers(ctx, p3, 5)
		require.NoError(t, err)
		assert.Empty(t, likers)
	})

	t.Run("comment validation", func(t *testing.T) {
		ids := suiteIDs("post", "author")
		store := newStore(t)

		_, err := store.AddComment(ctx, ids[0], ids[1], "   \n\t ")
		assert.True(t, apperrors.IsKind(err, apperrors.EmptyComment))

		_, err = store.AddComment(ctx, ids[0], ids[1], strings.Repeat("x", 21))
		assert.True(t, apperrors.IsKind(err, apperrors.CommentTooLong))

		c, err := store.AddComment(ctx, ids[0], ids[1], "  "+strings.Repeat("é", 20)+"  ")
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("é", 20), c.Text)

		n, err := store.CommentCount(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("comments list in insertion order", func(t *testing.T) {
		ids := suiteIDs("post", "author")
		store := newStore(t)

		c1, err := store.AddComment(ctx, ids[0], ids[1], "first")
		require.NoError(t, err)
		c2, err := store.AddComment(ctx, ids[0], ids[1], "second")
		require.NoError(t, err)
		assert.Greater(t, c2.ID, c1.ID)

		page, err := store.ListComments(ctx, ids[0], "", 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, c1.ID, page.Items[0].ID)
		assert.Equal(t, c2.ID, page.Items[1].ID)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("concurrent comments get increasing ids", func(t *testing.T) {
		ids := suiteIDs("post", "author")
		store := newStore(t)

		const n = 25
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.AddComment(ctx, ids[0], ids[1], fmt.Sprintf("comment %d", i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		var all []models.Comment
		cur := ""
		for {
			page, err := store.ListComments(ctx, ids[0], cur, 10)
			require.NoError(t, err)
			all = append(all, page.Items...)
			if page.NextCursor == nil {
				break
			}
			cur = *page.NextCursor
		}
		require.Len(t, all, n)
		for i := 1; i < len(all); i++ {
			assert.Greater(t, all[i].ID, all[i-1].ID)
			assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt))
		}

		count, err := store.CommentCount(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, int64(n), count)
	})
}
