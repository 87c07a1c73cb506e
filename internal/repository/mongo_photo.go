package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"photoshare/internal/cache"
	"photoshare/internal/model"
)

type replyDocument struct {
	ID        string    `bson:"_id"`
	AuthorID  int64     `bson:"author_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

type commentDocument struct {
	ID        string          `bson:"_id"`
	AuthorID  int64           `bson:"author_id"`
	Text      string          `bson:"text"`
	CreatedAt time.Time       `bson:"created_at"`
	Replies   []replyDocument `bson:"replies"`
}

// photoDocument stores the whole aggregate in one document so every nested
// mutation is a single-document atomic update.
type photoDocument struct {
	ID        string            `bson:"_id"`
	OwnerID   int64             `bson:"owner_id"`
	FileKey   string            `bson:"file_key"`
	FileURL   string            `bson:"file_url"`
	Caption   string            `bson:"caption"`
	CreatedAt time.Time         `bson:"created_at"`
	Likes     []int64           `bson:"likes"`
	Comments  []commentDocument `bson:"comments"`
}

// MongoPhotoRepository implements PhotoRepository for MongoDB
type MongoPhotoRepository struct {
	collection *mongo.Collection
}

// NewMongoPhotoRepository creates a new MongoPhotoRepository
func NewMongoPhotoRepository(db *mongo.Database) *MongoPhotoRepository {
	return &MongoPhotoRepository{collection: db.Collection("photos")}
}

// EnsureIndexes creates the owner/recency index used by Page.
func (r *MongoPhotoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create photos index: %w", err)
	}
	return nil
}

func (r *MongoPhotoRepository) Create(ctx context.Context, ownerID int64, file model.FileRef) (*model.Photo, error) {
	doc := photoDocument{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		FileKey:   file.Key,
		FileURL:   file.URL,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Likes:     []int64{},
		Comments:  []commentDocument{},
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	return doc.toModel()
}

func (r *MongoPhotoRepository) GetByID(ctx context.Context, photoID uuid.UUID) (*model.Photo, error) {
	doc, err := r.find(ctx, photoID)
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoPhotoRepository) GetOwner(ctx context.Context, photoID uuid.UUID) (int64, error) {
	var doc struct {
		OwnerID int64 `bson:"owner_id"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": photoID.String()},
		options.FindOne().SetProjection(bson.M{"owner_id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, model.ErrPhotoNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find photo owner: %w", err)
	}
	return doc.OwnerID, nil
}

func (r *MongoPhotoRepository) GetByIDs(ctx context.Context, photoIDs []uuid.UUID) ([]model.Photo, error) {
	if len(photoIDs) == 0 {
		return []model.Photo{}, nil
	}

	ids := make([]string, len(photoIDs))
	for i, id := range photoIDs {
		ids[i] = id.String()
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find photos by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []photoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}

	byID := make(map[string]photoDocument, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	photos := make([]model.Photo, 0, len(photoIDs))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			continue
		}
		p, err := d.toModel()
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, nil
}

func (r *MongoPhotoRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return int(total), nil
}

func (r *MongoPhotoRepository) Page(ctx context.Context, ownerID int64, page, pageSize int) ([]model.Photo, int, error) {
	filter := bson.M{"owner_id": ownerID}

	total, err := r.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	skip := int64(page-1) * int64(pageSize)
	if skip >= int64(total) {
		return []model.Photo{}, total, nil
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("page photos: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []photoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode photos: %w", err)
	}

	photos := make([]model.Photo, 0, len(docs))
	for _, d := range docs {
		p, err := d.toModel()
		if err != nil {
			return nil, 0, err
		}
		photos = append(photos, *p)
	}
	return photos, total, nil
}

func (r *MongoPhotoRepository) ListOwnerScores(ctx context.Context, ownerID int64) ([]cache.PhotoScore, error) {
	findOptions := options.Find().SetProjection(bson.M{"_id": 1, "created_at": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("list owner photos: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []photoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode owner photos: %w", err)
	}

	scores := make([]cache.PhotoScore, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("parse photo id %q: %w", d.ID, err)
		}
		scores = append(scores, cache.PhotoScore{PhotoID: id, Timestamp: d.CreatedAt.UnixMilli()})
	}
	return scores, nil
}

func (r *MongoPhotoRepository) UpdateCaption(ctx context.Context, photoID uuid.UUID, caption string) (*model.Photo, error) {
	var doc photoDocument
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": photoID.String()},
		bson.M{"$set": bson.M{"caption": caption}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update caption: %w", err)
	}
	return doc.toModel()
}

// Delete removes the photo document, which holds its comments and replies.
func (r *MongoPhotoRepository) Delete(ctx context.Context, photoID uuid.UUID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": photoID.String()})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrPhotoNotFound
	}
	return nil
}

// ToggleLike flips the like with one pipeline update: the likes array is
// filtered when it holds userID and extended otherwise. The update is atomic
// on the document, so concurrent toggles by the same user never cancel out.
func (r *MongoPhotoRepository) ToggleLike(ctx context.Context, photoID uuid.UUID, userID int64) (*model.LikeState, error) {
	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	flip := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, likes}},
				bson.M{"$filter": bson.M{
					"input": likes,
					"cond":  bson.M{"$ne": bson.A{"$$this", userID}},
				}},
				bson.M{"$concatArrays": bson.A{likes, bson.A{userID}}},
			}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var doc photoDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": photoID.String()}, flip, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	liked := false
	for _, id := range doc.Likes {
		if id == userID {
			liked = true
			break
		}
	}
	return likeState(liked, doc.Likes), nil
}

func (r *MongoPhotoRepository) AddComment(ctx context.Context, photoID uuid.UUID, authorID int64, text string) (*model.Comment, error) {
	doc := commentDocument{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Replies:   []replyDocument{},
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": photoID.String()},
		bson.M{"$push": bson.M{"comments": doc}},
	)
	if err != nil {
		return nil, fmt.Errorf("push comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, model.ErrPhotoNotFound
	}
	return doc.toModel(photoID)
}

func (r *MongoPhotoRepository) GetComment(ctx context.Context, photoID, commentID uuid.UUID) (*model.Comment, error) {
	doc, err := r.find(ctx, photoID)
	if err != nil {
		return nil, err
	}
	for _, c := range doc.Comments {
		if c.ID == commentID.String() {
			return c.toModel(photoID)
		}
	}
	return nil, model.ErrCommentNotFound
}

func (r *MongoPhotoRepository) RemoveComment(ctx context.Context, photoID, commentID uuid.UUID) error {
	cid := commentID.String()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": photoID.String(), "comments._id": cid},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": cid}}},
	)
	if err != nil {
		return fmt.Errorf("pull comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missing(ctx, photoID, nil, model.ErrCommentNotFound)
	}
	return nil
}

// AddReply pushes into the replies of the comment matched by the positional
// operator.
func (r *MongoPhotoRepository) AddReply(ctx context.Context, photoID, commentID uuid.UUID, authorID int64, text string) (*model.Reply, error) {
	doc := replyDocument{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": photoID.String(), "comments._id": commentID.String()},
		bson.M{"$push": bson.M{"comments.$.replies": doc}},
	)
	if err != nil {
		return nil, fmt.Errorf("push reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, r.missing(ctx, photoID, nil, model.ErrCommentNotFound)
	}
	return doc.toModel(photoID, commentID)
}

func (r *MongoPhotoRepository) GetReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) (*model.Reply, error) {
	comment, err := r.GetComment(ctx, photoID, commentID)
	if err != nil {
		return nil, err
	}
	for _, rp := range comment.Replies {
		if rp.ID == replyID {
			reply := rp
			return &reply, nil
		}
	}
	return nil, model.ErrReplyNotFound
}

// RemoveReply pulls from the replies of one comment selected by an array
// filter, leaving sibling comments untouched.
func (r *MongoPhotoRepository) RemoveReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) error {
	cid, rid := commentID.String(), replyID.String()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":      photoID.String(),
			"comments": bson.M{"$elemMatch": bson.M{"_id": cid, "replies._id": rid}},
		},
		bson.M{"$pull": bson.M{"comments.$[c].replies": bson.M{"_id": rid}}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"c._id": cid}},
		}),
	)
	if err != nil {
		return fmt.Errorf("pull reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missing(ctx, photoID, &commentID, model.ErrReplyNotFound)
	}
	return nil
}

func (r *MongoPhotoRepository) find(ctx context.Context, photoID uuid.UUID) (*photoDocument, error) {
	var doc photoDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": photoID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find photo: %w", err)
	}
	return &doc, nil
}

func (r *MongoPhotoRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count photos: %w", err)
	}
	return n > 0, nil
}

// missing reports the first missing link of photo -> comment, or leaf.
func (r *MongoPhotoRepository) missing(ctx context.Context, photoID uuid.UUID, commentID *uuid.UUID, leaf error) error {
	ok, err := r.exists(ctx, bson.M{"_id": photoID.String()})
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPhotoNotFound
	}
	if commentID != nil {
		ok, err = r.exists(ctx, bson.M{"_id": photoID.String(), "comments._id": commentID.String()})
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrCommentNotFound
		}
	}
	return leaf
}

func likeState(liked bool, likes []int64) *model.LikeState {
	sorted := append([]int64{}, likes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &model.LikeState{Liked: liked, LikeCount: len(sorted), Likes: sorted}
}

func (d photoDocument) toModel() (*model.Photo, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse photo id %q: %w", d.ID, err)
	}
	state := likeState(false, d.Likes)
	photo := &model.Photo{
		ID:        id,
		OwnerID:   d.OwnerID,
		FileKey:   d.FileKey,
		FileURL:   d.FileURL,
		Caption:   d.Caption,
		CreatedAt: d.CreatedAt,
		Likes:     state.Likes,
		LikeCount: state.LikeCount,
		Comments:  make([]model.Comment, 0, len(d.Comments)),
	}
	for _, c := range d.Comments {
		comment, err := c.toModel(id)
		if err != nil {
			return nil, err
		}
		photo.Comments = append(photo.Comments, *comment)
	}
	return photo, nil
}

func (d commentDocument) toModel(photoID uuid.UUID) (*model.Comment, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse comment id %q: %w", d.ID, err)
	}
	comment := &model.Comment{
		ID:        id,
		PhotoID:   photoID,
		AuthorID:  d.AuthorID,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
		Replies:   make([]model.Reply, 0, len(d.Replies)),
	}
	for _, rd := range d.Replies {
		reply, err := rd.toModel(photoID, id)
		if err != nil {
			return nil, err
		}
		comment.Replies = append(comment.Replies, *reply)
	}
	return comment, nil
}

func (d replyDocument) toModel(photoID, commentID uuid.UUID) (*model.Reply, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse reply id %q: %w", d.ID, err)
	}
	return &model.Reply{
		ID:        id,
		CommentID: commentID,
		PhotoID:   photoID,
		AuthorID:  d.AuthorID,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}, nil
}
