package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	c *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{c: db.Collection("users")}
}

// UserFilter narrows user listings. Zero values match everything.
type UserFilter struct {
	Role    models.Role
	Station string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": normalizeEmail(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	filter := bson.M{}
	if f.Role != 0 {
		filter["role"] = f.Role
	}
	if f.Station != "" {
		filter["userDetails.postingAreaAddress"] = f.Station
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	users := make([]models.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// UpdateDetails sets the non-empty fields of d under userDetails.
func (s *UserStore) UpdateDetails(ctx context.Context, id primitive.ObjectID, d models.UserDetails) error {
	set := bson.M{}
	add := func(field, value string) {
		if value != "" {
			set["userDetails."+field] = value
		}
	}
	add("adhaarCard", d.AdhaarCard)
	add("panCard", d.PanCard)
	add("phone", d.Phone)
	add("address", d.Address)
	add("gender", d.Gender)
	add("dateOfBirth", d.DateOfBirth)
	add("postingAreaAddress", d.PostingAreaAddress)
	add("badgeNumber", d.BadgeNumber)
	add("rank", d.Rank)
	if len(set) == 0 {
		return nil
	}
	return s.update(ctx, id, bson.M{"$set": set})
}

func (s *UserStore) SetProfileImage(ctx context.Context, id primitive.ObjectID, url string) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"profileImage": url}})
}

func (s *UserStore) SetVerificationPaper(ctx context.Context, id primitive.ObjectID, url string) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"verificationPaper": url}})
}

func (s *UserStore) AddExpoToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"expoTokens": token}})
}

func (s *UserStore) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"active": active}})
}

func (s *UserStore) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"password": hash}})
}

func (s *UserStore) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
