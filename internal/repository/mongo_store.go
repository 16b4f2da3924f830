package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thebandproject/bandsite/internal/model"
)

// MongoShowStore reads shows from a MongoDB collection whose documents use
// the model.Show bson field names.
type MongoShowStore struct {
	coll *mongo.Collection
}

// NewMongoShowStore wraps coll.
func NewMongoShowStore(coll *mongo.Collection) *MongoShowStore {
	return &MongoShowStore{coll: coll}
}

// ListUpcoming implements ShowStore.
func (s *MongoShowStore) ListUpcoming(ctx context.Context) ([]model.Show, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"isUpcoming": true}, opts)
	if err != nil {
		return nil, err
	}
	var shows []model.Show
	if err := cur.All(ctx, &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// GetByID implements ShowStore.
func (s *MongoShowStore) GetByID(ctx context.Context, id string) (*model.Show, error) {
	var show model.Show
	err := s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&show)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// MongoMessageStore writes contact messages to a MongoDB collection.
type MongoMessageStore struct {
	coll *mongo.Collection
}

// NewMongoMessageStore wraps coll.
func NewMongoMessageStore(coll *mongo.Collection) *MongoMessageStore {
	return &MongoMessageStore{coll: coll}
}

// SaveMessage implements MessageStore.  Absent optional fields are left out
// of the document.
func (s *MongoMessageStore) SaveMessage(ctx context.Context, m model.ContactMessage) error {
	_, err := s.coll.InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateMessage
	}
	return err
}
