package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MaxLookupBatch is the largest id set a single FindByUIDs call accepts. The
// document store rejects larger "in" queries, so callers must chunk.
const MaxLookupBatch = 10

var (
	ErrNotFound      = errors.New("user not found")
	ErrExists        = errors.New("user profile already exists")
	ErrBatchTooLarge = fmt.Errorf("lookup batch exceeds %d ids", MaxLookupBatch)
)

// UserRepository defines persistence operations for user profiles
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByUID(ctx context.Context, uid string) (*User, error)
	// FindByUIDs returns the profiles that exist among uids (at most
	// MaxLookupBatch of them). Missing ids are skipped.
	FindByUIDs(ctx context.Context, uids []string) ([]*User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrExists
		}
		return err
	}
	return nil
}

func (r *MongoUserRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	var u User
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) FindByUIDs(ctx context.Context, uids []string) ([]*User, error) {
	if len(uids) > MaxLookupBatch {
		return nil, ErrBatchTooLarge
	}
	if len(uids) == 0 {
		return []*User{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": uids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*User{}
	for cur.Next(ctx) {
		var u User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}
