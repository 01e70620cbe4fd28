package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/jackpot/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// postDocument is the posts collection layout.
type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Content   string             `bson:"content"`
	ImageURLs []string           `bson:"image_urls,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d postDocument) toModel() models.Post {
	return models.Post{
		ID:        d.ID.Hex(),
		AuthorID:  d.UserID,
		Content:   d.Content,
		ImageURLs: d.ImageURLs,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	limits     Limits
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database, limits Limits) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts"), limits: limits.withDefaults()}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		UserID:    post.AuthorID,
		Content:   post.Content,
		ImageURLs: post.ImageURLs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err, "create post")
	}
	*post = doc.toModel()
	return nil
}

// PostExists reports whether a post with the given hex ID exists. Malformed
// IDs cannot name a post and report false.
func (r *MongoPostRepository) PostExists(ctx context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "post exists")
	}
	return n > 0, nil
}

// ListPostsByAuthor pages an author's posts newest first.
func (r *MongoPostRepository) ListPostsByAuthor(ctx context.Context, authorID, cur string, limit int) (models.Page[models.Post], error) {
	after, err := decodeCursor(cur)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	limit = r.limits.ClampPageSize(limit)

	filter := bson.M{"user_id": authorID}
	if after != nil {
		afterID, err := primitive.ObjectIDFromHex(after.Key)
		if err != nil {
			return models.Page[models.Post]{}, invalidCursor(err)
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": after.At}},
			bson.M{"created_at": after.At, "_id": bson.M{"$lt": afterID}},
		}
	}
	findOptions := options.Find().
		SetLimit(int64(limit + 1)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return models.Page[models.Post]{}, translate(err, "list posts")
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return models.Page[models.Post]{}, translate(err, "list posts")
	}

	posts := make([]models.Post, len(docs))
	for i, d := range docs {
		posts[i] = d.toModel()
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

// CountPostsByAuthor counts an author's posts.
func (r *MongoPostRepository) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": authorID})
	if err != nil {
		return 0, translate(err, "count posts")
	}
	return n, nil
}

// EnsureIndexes creates the author timeline index the listing sorts on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return translate(err, "ensure post indexes")
	}
	return nil
}
