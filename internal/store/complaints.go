package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ComplaintStore reads and writes every complaint kind. The kind selects the
// collection.
type ComplaintStore struct {
	db *mongo.Database
}

func NewComplaintStore(db *mongo.Database) *ComplaintStore {
	return &ComplaintStore{db: db}
}

// ComplaintFilter scopes a listing. Empty fields are ignored.
type ComplaintFilter struct {
	Station    string
	OwnerID    *primitive.ObjectID
	AssignedTo *primitive.ObjectID
	History    bool
	Skip       int64
	Limit      int64
}

func (s *ComplaintStore) coll(kind models.Kind) (*mongo.Collection, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown complaint kind %q", kind)
	}
	return s.db.Collection(kind.Collection()), nil
}

func (s *ComplaintStore) Create(ctx context.Context, c *models.Complaint) error {
	coll, err := s.coll(c.Kind)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.ProofImages == nil {
		c.ProofImages = []string{}
	}
	c.CreatedAt, c.UpdatedAt = now, now
	if _, err := coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert %s: %w", c.Kind, err)
	}
	return nil
}

func (s *ComplaintStore) List(ctx context.Context, kind models.Kind, f ComplaintFilter) ([]models.Complaint, error) {
	coll, err := s.coll(kind)
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if f.Station != "" {
		filter["station"] = f.Station
	}
	if f.OwnerID != nil {
		filter["ownerId"] = *f.OwnerID
	}
	if f.AssignedTo != nil {
		filter["assignedTo"] = *f.AssignedTo
	}
	if f.History {
		filter["status"] = bson.M{"$in": models.TerminalStatuses}
	} else {
		filter["status"] = bson.M{"$nin": models.TerminalStatuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Complaint, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return out, nil
}

// Assign records officerID as the assignee and returns the updated record.
func (s *ComplaintStore) Assign(ctx context.Context, kind models.Kind, id, officerID, by primitive.ObjectID) (*models.Complaint, error) {
	now := time.Now().UTC()
	return s.findAndSet(ctx, kind, id, bson.M{
		"assignedTo": officerID,
		"assignedBy": by,
		"assignedAt": now,
	})
}

func (s *ComplaintStore) UpdateStatus(ctx context.Context, kind models.Kind, id primitive.ObjectID, status models.Status) (*models.Complaint, error) {
	return s.findAndSet(ctx, kind, id, bson.M{"status": status})
}

func (s *ComplaintStore) UpdatePoliceStatus(ctx context.Context, kind models.Kind, id primitive.ObjectID, status string) (*models.Complaint, error) {
	return s.findAndSet(ctx, kind, id, bson.M{"policeStatus": status})
}

func (s *ComplaintStore) findAndSet(ctx context.Context, kind models.Kind, id primitive.ObjectID, set bson.M) (*models.Complaint, error) {
	coll, err := s.coll(kind)
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c models.Complaint
	if err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update %s %s: %w", kind, id.Hex(), err)
	}
	return &c, nil
}
