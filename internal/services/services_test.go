package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/jackpot/backend/internal/events"
	"github.com/anonto42/jackpot/backend/internal/identity"
	"github.com/anonto42/jackpot/backend/internal/metrics"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/anonto42/jackpot/backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder keeps published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	users      *identity.Static
	posts      *repositories.MemoryPostRepository
	follows    *repositories.MemoryFollowStore
	engagement *repositories.MemoryEngagementStore
	published  *recorder
	metrics    *metrics.Registry

	coordinator *ReconciliationCoordinator
	aggregator  *ProfileAggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	limits := repositories.Limits{DefaultPageSize: 10, MaxPageSize: 10, MaxCommentLength: 50}
	f := &fixture{
		users: identity.NewStatic(
			models.User{ID: "alice", DisplayName: "Alice"},
			models.User{ID: "bob", DisplayName: "Bob"},
			models.User{ID: "carol", DisplayName: "Carol"},
		),
		posts:      repositories.NewMemoryPostRepository(limits),
		engagement: repositories.NewMemoryEngagementStore(limits),
		published:  &recorder{},
		metrics:    metrics.NewRegistry(),
	}
	// identities are checked by the coordinator, as in serve
	f.follows = repositories.NewMemoryFollowStore(nil, limits)
	f.coordinator = NewReconciliationCoordinator(f.follows, f.engagement, f.posts, f.users,
		WithPublisher(f.published), WithMetrics(f.metrics))
	f.aggregator = NewProfileAggregator(f.follows, f.engagement, f.posts, f.users)
	return f
}

func (f *fixture) post(t *testing.T, author string, at time.Time) string {
	t.Helper()
	p := &models.Post{AuthorID: author, Content: "gm", CreatedAt: at}
	require.NoError(t, f.posts.CreatePost(context.Background(), p))
	return p.ID
}

var errBoom = errors.New("boom")
