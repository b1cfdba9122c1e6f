package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mx-space/landing/internal/database"
	"github.com/mx-space/landing/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore stores subscribers in a MongoDB collection with a unique email index.
type MongoStore struct {
	coll    *mongo.Collection
	now     func() time.Time
	indexed atomic.Bool
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

// EnsureIndexes creates the unique email index once. Until that succeeds
// every Create tries again before inserting.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if s.indexed.Load() {
		return nil
	}
	if err := database.EnsureIndexes(ctx, s.coll); err != nil {
		return err
	}
	s.indexed.Store(true)
	return nil
}

func (s *MongoStore) Create(ctx context.Context, email string) (*models.Subscriber, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	sub := models.NewSubscriber(email, s.now().UTC())
	if _, err := s.coll.InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert subscriber: %w", err)
	}
	return sub, nil
}

func (s *MongoStore) FindAwaitingLaunch(ctx context.Context) ([]models.Subscriber, error) {
	cur, err := s.coll.Find(ctx, bson.M{"isComingSoon": true})
	if err != nil {
		return nil, fmt.Errorf("find awaiting subscribers: %w", err)
	}
	out := []models.Subscriber{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode awaiting subscribers: %w", err)
	}
	return out, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.coll.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return &sub, nil
}

func (s *MongoStore) MarkActive(ctx context.Context, email string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"email": models.NormalizeEmail(email)},
		bson.M{"$set": bson.M{
			"isComingSoon": false,
			"followUpSent": true,
			"updatedAt":    s.now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("mark subscriber active: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, email string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
	if err != nil {
		return false, fmt.Errorf("delete subscriber: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) CountActive(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"isComingSoon": false})
	if err != nil {
		return 0, fmt.Errorf("count active subscribers: %w", err)
	}
	return n, nil
}
