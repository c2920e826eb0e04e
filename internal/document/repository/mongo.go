package repository

import (
	"context"
	"errors"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements DocumentRepository on a MongoDB collection. Ids are
// ObjectID hex strings stored directly in _id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	ensureIndexes(col, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "allowSharing", Value: 1}, {Key: "whoCanAccess.id", Value: 1}}},
	})
	return &MongoRepo{col: col}
}

func ensureIndexes(col *mongo.Collection, models []mongo.IndexModel) {
	if _, err := col.Indexes().CreateMany(context.Background(), models); err != nil {
		logger.Warnf("create indexes on %s: %v", col.Name(), err)
	}
}

func (m *MongoRepo) Insert(ctx context.Context, d *document.Document) error {
	_, err := m.col.InsertOne(ctx, d)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListOwnedBy(ctx context.Context, ownerID string) ([]*document.Document, error) {
	return m.find(ctx, ownedByFilter(ownerID))
}

func (m *MongoRepo) ListSharedWith(ctx context.Context, principalID string) ([]*document.Document, error) {
	return m.find(ctx, sharedWithFilter(principalID))
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M) ([]*document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, d *document.Document) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": d.ID}, updateDocument(d))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	if err := m.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func ownedByFilter(ownerID string) bson.M {
	return bson.M{"ownerId": ownerID}
}

func sharedWithFilter(principalID string) bson.M {
	return bson.M{"allowSharing": true, "whoCanAccess.id": principalID}
}

// updateDocument builds the $set for an update. Immutable fields are left out.
func updateDocument(d *document.Document) bson.M {
	return bson.M{"$set": bson.M{
		"title":        d.Title,
		"content":      d.Content,
		"allowSharing": d.AllowSharing,
		"whoCanAccess": d.WhoCanAccess,
		"updatedAt":    d.UpdatedAt,
	}}
}

// MongoCommentRepo implements CommentRepository on a MongoDB collection.
type MongoCommentRepo struct {
	col *mongo.Collection
}

func NewMongoCommentRepo(col *mongo.Collection) *MongoCommentRepo {
	ensureIndexes(col, []mongo.IndexModel{
		{Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	return &MongoCommentRepo{col: col}
}

func commentFilter(documentID, commentID string) bson.M {
	return bson.M{"_id": commentID, "documentId": documentID}
}

func (m *MongoCommentRepo) Insert(ctx context.Context, c *document.Comment) error {
	_, err := m.col.InsertOne(ctx, c)
	return err
}

func (m *MongoCommentRepo) Get(ctx context.Context, documentID, commentID string) (*document.Comment, error) {
	var c document.Comment
	if err := m.col.FindOne(ctx, commentFilter(documentID, commentID)).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (m *MongoCommentRepo) ListByDocument(ctx context.Context, documentID string) ([]*document.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoCommentRepo) UpdateContent(ctx context.Context, c *document.Comment) error {
	set := bson.M{"$set": bson.M{"content": c.Content, "updatedAt": c.UpdatedAt}}
	res, err := m.col.UpdateOne(ctx, commentFilter(c.DocumentID, c.ID), set)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoCommentRepo) Delete(ctx context.Context, documentID, commentID string) (*document.Comment, error) {
	var c document.Comment
	if err := m.col.FindOneAndDelete(ctx, commentFilter(documentID, commentID)).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (m *MongoCommentRepo) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"documentId": documentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
