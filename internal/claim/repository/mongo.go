package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim"
)

// MongoRepo implements Repository over the "claims" collection. Documents are
// keyed by a uuid string _id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the indexes backing the per-employee and per-status
// listings. Safe to call on every start.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "employeeId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	_, err := m.col.Indexes().CreateMany(ctx, models)
	return err
}

func (m *MongoRepo) Create(ctx context.Context, c *claim.Claim) (string, error) {
	// Mongo stores milliseconds; truncate so the returned value matches a re-read.
	initialize(c, uuid.NewString(), time.Now().UTC().Truncate(time.Millisecond))
	if _, err := m.col.InsertOne(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*claim.Claim, error) {
	var c claim.Claim
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (m *MongoRepo) ListByEmployee(ctx context.Context, employeeID string) ([]*claim.Claim, error) {
	return m.find(ctx, bson.M{"employeeId": employeeID})
}

func (m *MongoRepo) ListAll(ctx context.Context, status claim.Status) ([]*claim.Claim, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return m.find(ctx, filter)
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M) ([]*claim.Claim, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*claim.Claim{}
	for cur.Next(ctx) {
		var c claim.Claim
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, id string, p Patch) error {
	set := p.fields()
	if len(set) == 0 {
		c, err := m.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.IfStatus != "" && c.Status != p.IfStatus {
			return ErrStatusConflict
		}
		return nil
	}
	filter := bson.M{"_id": id}
	if p.IfStatus != "" {
		filter["status"] = p.IfStatus
	}
	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M(set)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.missing(ctx, id)
	}
	return nil
}

func (m *MongoRepo) UpdateProof(ctx context.Context, id string, proof claim.Proof) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"proof": proof}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string, ifStatus claim.Status) error {
	filter := bson.M{"_id": id}
	if ifStatus != "" {
		filter["status"] = ifStatus
	}
	res, err := m.col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return m.missing(ctx, id)
	}
	return nil
}

// missing explains why a conditional write matched nothing.
func (m *MongoRepo) missing(ctx context.Context, id string) error {
	n, err := m.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrStatusConflict
	}
	return ErrNotFound
}
