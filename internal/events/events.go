// Package events announces engagement changes to downstream consumers such as
// the notification worker. Delivery is at-least-once; consumers dedupe on the
// event ID.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names an engagement change. It doubles as the NATS subject suffix.
type Type string

const (
	UserFollowed     Type = "user.followed"
	UserUnfollowed   Type = "user.unfollowed"
	PostLiked        Type = "post.liked"
	PostUnliked      Type = "post.unliked"
	PostCommentAdded Type = "post.comment.added"
)

// Event is published only for intents that changed state.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ActorID    string    `json:"actor_id"`
	SubjectID  string    `json:"subject_id,omitempty"`
	PostID     string    `json:"post_id,omitempty"`
	CommentID  int64     `json:"comment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh ID and the current time.
func New(t Type, actorID string) Event {
	return Event{ID: uuid.NewString(), Type: t, ActorID: actorID, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
