package store

import (
	"context"
	"fmt"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenStore is the refresh-token whitelist.
type TokenStore struct {
	c *mongo.Collection
}

func NewTokenStore(db *mongo.Database) *TokenStore {
	return &TokenStore{c: db.Collection("refreshtokens")}
}

func (s *TokenStore) Save(ctx context.Context, t *models.RefreshToken) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// Find returns the whitelist entry for token, or ErrNotFound.
func (s *TokenStore) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := s.c.FindOne(ctx, bson.M{"refreshToken": token}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Delete removes the entry for token owned by userID. It returns ErrNotFound
// when nothing matched.
func (s *TokenStore) Delete(ctx context.Context, userID primitive.ObjectID, token string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"userid": userID, "refreshToken": token})
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TokenStore) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"userid": userID})
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", err)
	}
	return res.DeletedCount, nil
}
