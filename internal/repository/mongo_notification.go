package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"photoshare/internal/model"
)

type notificationDocument struct {
	ID          string    `bson:"_id"`
	RecipientID int64     `bson:"recipient_id"`
	ActorID     int64     `bson:"actor_id"`
	Kind        string    `bson:"kind"`
	PhotoID     string    `bson:"photo_id"`
	CommentID   *string   `bson:"comment_id,omitempty"`
	Content     string    `bson:"content"`
	IsRead      bool      `bson:"is_read"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "photo_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create notifications indexes: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	doc := notificationDocument{
		ID:          n.ID.String(),
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Kind:        n.Kind,
		PhotoID:     n.PhotoID.String(),
		Content:     n.Content,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
	if n.CommentID != nil {
		cid := n.CommentID.String()
		doc.CommentID = &cid
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var doc notificationDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return doc.toModel()
}

func (r *MongoNotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, offset, limit int) ([]model.Notification, error) {
	findOptions := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"recipient_id": recipientID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		n, err := d.toModel()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, nil
}

func (r *MongoNotificationRepository) Counts(ctx context.Context, recipientID int64) (int, int, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID})
	if err != nil {
		return 0, 0, fmt.Errorf("count notifications: %w", err)
	}
	unread, err := r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "is_read": false})
	if err != nil {
		return 0, 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return int(total), int(unread), nil
}

func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return fmt.Errorf("mark notification as read: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications as read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) DeleteByPhoto(ctx context.Context, photoID uuid.UUID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"photo_id": photoID.String()})
	if err != nil {
		return 0, fmt.Errorf("delete photo notifications: %w", err)
	}
	return res.DeletedCount, nil
}

func (d notificationDocument) toModel() (*model.Notification, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse notification id %q: %w", d.ID, err)
	}
	photoID, err := uuid.Parse(d.PhotoID)
	if err != nil {
		return nil, fmt.Errorf("parse photo id %q: %w", d.PhotoID, err)
	}
	n := &model.Notification{
		ID:          id,
		RecipientID: d.RecipientID,
		ActorID:     d.ActorID,
		Kind:        d.Kind,
		PhotoID:     photoID,
		Content:     d.Content,
		IsRead:      d.IsRead,
		CreatedAt:   d.CreatedAt,
	}
	if d.CommentID != nil {
		cid, err := uuid.Parse(*d.CommentID)
		if err != nil {
			return nil, fmt.Errorf("parse comment id %q: %w", *d.CommentID, err)
		}
		n.CommentID = &cid
	}
	return n, nil
}

type userDocument struct {
	ID        int64  `bson:"_id"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
}

// MongoUserRepository reads the users collection as the user directory.
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

func (r *MongoUserRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	summaries := make(map[int64]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, d := range docs {
		summaries[d.ID] = model.UserSummary{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName}
	}
	return summaries, nil
}

func (r *MongoUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}
