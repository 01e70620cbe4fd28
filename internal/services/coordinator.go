package services

import (
	"context"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/events"
	"github.com/anonto42/jackpot/backend/internal/identity"
	"github.com/anonto42/jackpot/backend/internal/metrics"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/anonto42/jackpot/backend/internal/repositories"
	"github.com/anonto42/jackpot/backend/pkg/breaker"
	"github.com/rs/zerolog"
)

// ReconciliationCoordinator is the single entry point for follow, like and
// comment intents. Every call returns the state the store holds after the
// intent; clients replace their optimistic view with it.
type ReconciliationCoordinator struct {
	follows    repositories.FollowGraphStore
	engagement repositories.EngagementStore
	posts      repositories.PostRepository
	users      identity.Source

	publisher events.Publisher
	breaker   *breaker.Breaker
	identity  *breaker.Breaker
	metrics   *metrics.Registry
	log       zerolog.Logger
}

// Option configures the coordinator and the aggregator.
type Option func(*options)

type options struct {
	publisher events.Publisher
	breaker   *breaker.Breaker
	identity  *breaker.Breaker
	metrics   *metrics.Registry
	log       zerolog.Logger
}

func WithPublisher(p events.Publisher) Option { return func(o *options) { o.publisher = p } }

// WithBreaker guards store calls.
func WithBreaker(b *breaker.Breaker) Option { return func(o *options) { o.breaker = b } }

// WithIdentityBreaker guards identity source calls, so an identity outage
// never opens the storage breaker.
func WithIdentityBreaker(b *breaker.Breaker) Option { return func(o *options) { o.identity = b } }

func WithMetrics(m *metrics.Registry) Option { return func(o *options) { o.metrics = m } }

func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

func buildOptions(opts []Option) options {
	o := options{publisher: events.NopPublisher{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewReconciliationCoordinator(
	follows repositories.FollowGraphStore,
	engagement repositories.EngagementStore,
	posts repositories.PostRepository,
	users identity.Source,
	opts ...Option,
) *ReconciliationCoordinator {
	o := buildOptions(opts)
	return &ReconciliationCoordinator{
		follows:    follows,
		engagement: engagement,
		posts:      posts,
		users:      users,
		publisher:  o.publisher,
		breaker:    o.breaker,
		identity:   o.identity,
		metrics:    o.metrics,
		log:        o.log.With().Str("component", "coordinator").Logger(),
	}
}

// resolveActor returns the user an intent acts as. Callers may only act as
// themselves; an empty actor means the caller.
func resolveActor(callerID, actorID string) (string, error) {
	if callerID == "" {
		return "", apperrors.New(apperrors.Unauthenticated, "no authenticated caller")
	}
	if actorID == "" || actorID == callerID {
		return callerID, nil
	}
	return "", apperrors.New(apperrors.Forbidden, "caller %q cannot act as %q", callerID, actorID)
}

// Follow makes followerID follow followeeID. Repeating it is a no-op that
// still returns the current counts.
func (c *ReconciliationCoordinator) Follow(ctx context.Context, callerID, followerID, followeeID string) (models.FollowResult, error) {
	started := time.Now()
	followerID, err := resolveActor(callerID, followerID)
	if err == nil && followerID != followeeID {
		err = c.checkUsers(ctx, followerID, followeeID)
	}
	if err != nil {
		c.finish("follow", started, false, err)
		return models.FollowResult{}, err
	}
	res, err := apply(c, "follow", func() (models.FollowResult, error) {
		return c.follows.Follow(ctx, followerID, followeeID)
	})
	c.finish("follow", started, res.Changed, err)
	if err == nil && res.Changed {
		e := events.New(events.UserFollowed, followerID)
		e.SubjectID = followeeID
		c.publish(ctx, e)
	}
	return res, err
}

// Unfollow removes the edge if present. Unfollowing yourself is a no-op.
func (c *ReconciliationCoordinator) Unfollow(ctx context.Context, callerID, followerID, followeeID string) (models.FollowResult, error) {
	started := time.Now()
	followerID, err := resolveActor(callerID, followerID)
	if err != nil {
		c.finish("unfollow", started, false, err)
		return models.FollowResult{}, err
	}
	res, err := apply(c, "unfollow", func() (models.FollowResult, error) {
		return c.follows.Unfollow(ctx, followerID, followeeID)
	})
	c.finish("unfollow", started, res.Changed, err)
	if err == nil && res.Changed {
		e := events.New(events.UserUnfollowed, followerID)
		e.SubjectID = followeeID
		c.publish(ctx, e)
	}
	return res, err
}

// SetLike moves the (post, user) like to the requested state after checking
// that both exist.
func (c *ReconciliationCoordinator) SetLike(ctx context.Context, callerID, postID, userID string, liked bool) (models.LikeResult, error) {
	intent := "unlike"
	if liked {
		intent = "like"
	}
	started := time.Now()
	userID, err := resolveActor(callerID, userID)
	if err == nil {
		err = c.checkPostAndUser(ctx, postID, userID)
	}
	if err != nil {
		c.finish(intent, started, false, err)
		return models.LikeResult{}, err
	}

	res, err := apply(c, intent, func() (models.LikeResult, error) {
		return c.engagement.SetLike(ctx, postID, userID, liked)
	})
	c.finish(intent, started, res.Changed, err)
	if err == nil && res.Changed {
		t := events.PostUnliked
		if liked {
			t = events.PostLiked
		}
		e := events.New(t, userID)
		e.PostID = postID
		c.publish(ctx, e)
	}
	return res, err
}

// AddComment appends a comment. Unlike the other intents it is not
// idempotent: a retried call appends again.
func (c *ReconciliationCoordinator) AddComment(ctx context.Context, callerID, postID, authorID, text string) (models.Comment, error) {
	started := time.Now()
	authorID, err := resolveActor(callerID, authorID)
	if err == nil {
		err = c.checkPostAndUser(ctx, postID, authorID)
	}
	if err != nil {
		c.finish("comment", started, false, err)
		return models.Comment{}, err
	}

	comment, err := apply(c, "comment", func() (models.Comment, error) {
		return c.engagement.AddComment(ctx, postID, authorID, text)
	})
	c.finish("comment", started, err == nil, err)
	if err == nil {
		e := events.New(events.PostCommentAdded, authorID)
		e.PostID = postID
		e.CommentID = comment.ID
		c.publish(ctx, e)
	}
	return comment, err
}

func (c *ReconciliationCoordinator) checkPostAndUser(ctx context.Context, postID, userID string) error {
	ok, err := breaker.Do(c.breaker, func() (bool, error) { return c.posts.PostExists(ctx, postID) })
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.UnknownPost, "post %q does not exist", postID)
	}
	return c.checkUsers(ctx, userID)
}

// checkUsers runs outside the storage breaker; identity failures only count
// against the identity breaker.
func (c *ReconciliationCoordinator) checkUsers(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		ok, err := breaker.Do(c.identity, func() (bool, error) { return c.users.UserExists(ctx, id) })
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.UnknownUser, "user %q does not exist", id)
		}
	}
	return nil
}

// apply runs a store mutation through the breaker. A Conflict means the store
// rolled back, so the mutation is retried once before the conflict surfaces.
func apply[T any](c *ReconciliationCoordinator, intent string, fn func() (T, error)) (T, error) {
	res, err := breaker.Do(c.breaker, fn)
	if !apperrors.IsKind(err, apperrors.Conflict) {
		return res, err
	}
	c.metrics.ObserveRetry(intent)
	c.log.Debug().Err(err).Str("intent", intent).Msg("retrying after storage conflict")
	res, err = breaker.Do(c.breaker, fn)
	if apperrors.IsKind(err, apperrors.Conflict) {
		var zero T
		return zero, apperrors.Wrap(apperrors.Conflict, err, "%s conflicted after retry", intent)
	}
	return res, err
}

func (c *ReconciliationCoordinator) finish(intent string, started time.Time, changed bool, err error) {
	outcome := "unchanged"
	switch {
	case err != nil:
		outcome = string(apperrors.KindOf(err))
		ev := c.log.Info()
		if apperrors.Infrastructure(err) {
			ev = c.log.Error()
		}
		ev.Err(err).Str("intent", intent).Str("kind", outcome).Msg("intent failed")
	case changed:
		outcome = "changed"
	}
	c.metrics.ObserveIntent(intent, outcome, started)
}

// publish hands e to the publisher. The intent already committed, so a
// failure is logged and counted but not returned.
func (c *ReconciliationCoordinator) publish(ctx context.Context, e events.Event) {
	err := c.publisher.Publish(ctx, e)
	c.metrics.ObserveEvent(string(e.Type), err)
	if err != nil {
		c.log.Warn().Err(err).Str("event_id", e.ID).Str("type", string(e.Type)).Msg("event publish failed")
	}
}
