package services

import (
	"context"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/identity"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/anonto42/jackpot/backend/internal/repositories"
	"github.com/anonto42/jackpot/backend/pkg/breaker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	hydrateConcurrency = 8
	recentLikersShown  = 5
)

// ProfileAggregator composes read-only views from the stores. It never
// mutates and never caches relationship state between calls.
type ProfileAggregator struct {
	follows    repositories.FollowGraphStore
	engagement repositories.EngagementStore
	posts      repositories.PostRepository
	users      identity.Source

	breaker  *breaker.Breaker
	identity *breaker.Breaker
	log      zerolog.Logger
}

func NewProfileAggregator(
	follows repositories.FollowGraphStore,
	engagement repositories.EngagementStore,
	posts repositories.PostRepository,
	users identity.Source,
	opts ...Option,
) *ProfileAggregator {
	o := buildOptions(opts)
	return &ProfileAggregator{
		follows:    follows,
		engagement: engagement,
		posts:      posts,
		users:      users,
		breaker:    o.breaker,
		identity:   o.identity,
		log:        o.log.With().Str("component", "aggregator").Logger(),
	}
}

// Profile builds subjectID's profile as seen by callerID. IsFollowingCaller
// is read from the follow store on every call.
func (a *ProfileAggregator) Profile(ctx context.Context, callerID, subjectID, postsCursor string, postsLimit int) (models.Profile, error) {
	if subjectID == "" {
		return models.Profile{}, apperrors.New(apperrors.InvalidArgument, "user_id is required")
	}
	user, err := breaker.Do(a.identity, func() (models.User, error) { return a.users.GetUser(ctx, subjectID) })
	if err != nil {
		return models.Profile{}, err
	}

	profile := models.Profile{User: user, Posts: []models.PostSummary{}}
	var page models.Page[models.Post]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile.FollowerCount, err = breaker.Do(a.breaker, func() (int64, error) { return a.follows.FollowerCount(gctx, subjectID) })
		return err
	})
	g.Go(func() (err error) {
		profile.FollowingCount, err = breaker.Do(a.breaker, func() (int64, error) { return a.follows.FollowingCount(gctx, subjectID) })
		return err
	})
	if callerID != "" && callerID != subjectID {
		g.Go(func() (err error) {
			profile.IsFollowingCaller, err = breaker.Do(a.breaker, func() (bool, error) { return a.follows.IsFollowing(gctx, callerID, subjectID) })
			return err
		})
	}
	g.Go(func() (err error) {
		profile.PostCount, err = breaker.Do(a.breaker, func() (int64, error) { return a.posts.CountPostsByAuthor(gctx, subjectID) })
		return err
	})
	g.Go(func() (err error) {
		page, err = breaker.Do(a.breaker, func() (models.Page[models.Post], error) {
			return a.posts.ListPostsByAuthor(gctx, subjectID, postsCursor, postsLimit)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Profile{}, err
	}

	summaries, err := a.summarize(ctx, callerID, page.Items)
	if err != nil {
		return models.Profile{}, err
	}
	profile.Posts = summaries
	profile.PostsNextCursor = page.NextCursor
	return profile, nil
}

// summarize attaches live like and comment counts to posts.
func (a *ProfileAggregator) summarize(ctx context.Context, callerID string, posts []models.Post) ([]models.PostSummary, error) {
	out := make([]models.PostSummary, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		out[i].Post = p
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	var states map[string]models.LikeState
	g.Go(func() (err error) {
		states, err = breaker.Do(a.breaker, func() (map[string]models.LikeState, error) {
			return a.engagement.GetLikeStates(gctx, ids, callerID)
		})
		return err
	})
	for i := range out {
		i := i
		g.Go(func() (err error) {
			out[i].CommentCount, err = breaker.Do(a.breaker, func() (int64, error) {
				return a.engagement.CommentCount(gctx, out[i].ID)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range out {
		st := states[out[i].ID]
		out[i].LikeCount = st.LikeCount
		out[i].LikedByCaller = st.LikedByCaller
	}
	return out, nil
}

func (a *ProfileAggregator) ListFollowers(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowUser], error) {
	page, err := breaker.Do(a.breaker, func() (models.Page[models.FollowEntry], error) {
		return a.follows.ListFollowers(ctx, userID, cursor, limit)
	})
	if err != nil {
		return models.Page[models.FollowUser]{}, err
	}
	return a.hydrate(ctx, page)
}

func (a *ProfileAggregator) ListFollowing(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowUser], error) {
	page, err := breaker.Do(a.breaker, func() (models.Page[models.FollowEntry], error) {
		return a.follows.ListFollowing(ctx, userID, cursor, limit)
	})
	if err != nil {
		return models.Page[models.FollowUser]{}, err
	}
	return a.hydrate(ctx, page)
}

func (a *ProfileAggregator) hydrate(ctx context.Context, page models.Page[models.FollowEntry]) (models.Page[models.FollowUser], error) {
	ids := make([]string, len(page.Items))
	for i, entry := range page.Items {
		ids[i] = entry.UserID
	}
	users, err := a.resolveUsers(ctx, ids)
	if err != nil {
		return models.Page[models.FollowUser]{}, err
	}
	out := models.Page[models.FollowUser]{
		Items:      make([]models.FollowUser, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i, entry := range page.Items {
		out.Items[i] = models.FollowUser{User: users[i], FollowedAt: entry.FollowedAt}
	}
	return out, nil
}

// resolveUsers looks up display attributes for ids, index-aligned. Each
// distinct id is fetched once. Users the identity source no longer knows are
// returned with their ID only.
func (a *ProfileAggregator) resolveUsers(ctx context.Context, ids []string) ([]models.User, error) {
	byID := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			byID[id] = &models.User{ID: id}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for id, slot := range byID {
		g.Go(func() error {
			user, err := breaker.Do(a.identity, func() (models.User, error) { return a.users.GetUser(gctx, id) })
			if apperrors.IsKind(err, apperrors.UnknownUser) {
				a.log.Debug().Str("user_id", id).Msg("listing references unknown user")
				return nil
			}
			if err != nil {
				return err
			}
			*slot = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.User, len(ids))
	for i, id := range ids {
		out[i] = *byID[id]
	}
	return out, nil
}

// ListComments pages a post's comments oldest first with the live total.
// Each comment carries its author's display attributes.
func (a *ProfileAggregator) ListComments(ctx context.Context, postID, cursor string, limit int) (models.CommentPage, error) {
	if err := a.requirePost(ctx, postID); err != nil {
		return models.CommentPage{}, err
	}
	var (
		page  models.Page[models.Comment]
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = breaker.Do(a.breaker, func() (models.Page[models.Comment], error) {
			return a.engagement.ListComments(gctx, postID, cursor, limit)
		})
		return err
	})
	g.Go(func() (err error) {
		total, err = breaker.Do(a.breaker, func() (int64, error) { return a.engagement.CommentCount(gctx, postID) })
		return err
	})
	if err := g.Wait(); err != nil {
		return models.CommentPage{}, err
	}

	authors := make([]string, len(page.Items))
	for i, c := range page.Items {
		authors[i] = c.AuthorID
	}
	users, err := a.resolveUsers(ctx, authors)
	if err != nil {
		return models.CommentPage{}, err
	}
	out := models.CommentPage{TotalCount: total}
	out.NextCursor = page.NextCursor
	out.Items = make([]models.CommentView, len(page.Items))
	for i, c := range page.Items {
		out.Items[i] = models.CommentView{Comment: c, Author: users[i]}
	}
	return out, nil
}

// LikeState is the initial-render read for a post's like button.
func (a *ProfileAggregator) LikeState(ctx context.Context, callerID, postID string) (models.LikeSummary, error) {
	if err := a.requirePost(ctx, postID); err != nil {
		return models.LikeSummary{}, err
	}
	var out models.LikeSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.LikeState, err = breaker.Do(a.breaker, func() (models.LikeState, error) {
			return a.engagement.GetLikeState(gctx, postID, callerID)
		})
		return err
	})
	g.Go(func() (err error) {
		out.RecentLikers, err = breaker.Do(a.breaker, func() ([]string, error) {
			return a.engagement.RecentLikers(gctx, postID, recentLikersShown)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return models.LikeSummary{}, err
	}
	return out, nil
}

func (a *ProfileAggregator) requirePost(ctx context.Context, postID string) error {
	if postID == "" {
		return apperrors.New(apperrors.InvalidArgument, "post_id is required")
	}
	ok, err := breaker.Do(a.breaker, func() (bool, error) { return a.posts.PostExists(ctx, postID) })
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.UnknownPost, "post %q does not exist", postID)
	}
	return nil
}
