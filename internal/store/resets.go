package store

import (
	"context"
	"fmt"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResetStore struct {
	c *mongo.Collection
}

func NewResetStore(db *mongo.Database) *ResetStore {
	return &ResetStore{c: db.Collection("passwordresets")}
}

func (s *ResetStore) Create(ctx context.Context, r *models.PasswordReset) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

// Consume marks an unused, unexpired reset as used and returns it.
func (s *ResetStore) Consume(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error) {
	filter := bson.M{
		"tokenHash": tokenHash,
		"used":      false,
		"expiresAt": bson.M{"$gt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.PasswordReset
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"used": true}}, opts).Decode(&r)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}
