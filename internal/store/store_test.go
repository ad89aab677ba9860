package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// openTestDB connects to MONGO_TEST_URI and returns a throwaway database.
// Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("complaints_test_" + primitive.NewObjectID().Hex())
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func TestUserStore_CreateAndFind(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	ctx, cancel := testContext()
	defer cancel()

	u := &models.User{Name: "Ann Lee", Email: " Ann@X.com ", Password: "hash", Role: models.RoleCitizen, Active: true}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Email != "ann@x.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}

	exists, err := users.EmailExists(ctx, "ANN@x.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists = %v, %v", exists, err)
	}

	dup := &models.User{Name: "Ann Two", Email: "ann@x.com", Role: models.RoleOfficer}
	if err := users.Create(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	got, err := users.FindByEmail(ctx, "ann@x.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if got.ID != u.ID || !got.Active {
		t.Errorf("unexpected user: %+v", got)
	}

	if _, err := users.FindByID(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStore_DetailsAndStationListing(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	ctx, cancel := testContext()
	defer cancel()

	officer := &models.User{Name: "Officer", Email: "o@x.com", Role: models.RoleOfficer}
	if err := users.Create(ctx, officer); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := users.UpdateDetails(ctx, officer.ID, models.UserDetails{PostingAreaAddress: "Central"}); err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}
	if err := users.AddExpoToken(ctx, officer.ID, "ExponentPushToken[a]"); err != nil {
		t.Fatalf("AddExpoToken failed: %v", err)
	}
	if err := users.AddExpoToken(ctx, officer.ID, "ExponentPushToken[a]"); err != nil {
		t.Fatalf("AddExpoToken repeat failed: %v", err)
	}

	list, err := users.List(ctx, UserFilter{Role: models.RoleOfficer, Station: "Central"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Station() != "Central" || len(list[0].ExpoTokens) != 1 {
		t.Fatalf("unexpected listing: %+v", list)
	}
}

func TestComplaintStore_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	complaints := NewComplaintStore(db)
	ctx, cancel := testContext()
	defer cancel()

	owner := primitive.NewObjectID()
	c := &models.Complaint{Kind: models.KindMissing, OwnerID: owner, Station: "Central",
		Person: &models.PersonDetails{Name: "Ravi", Age: 12}}
	if err := complaints.Create(ctx, c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.Status != models.StatusPending {
		t.Fatalf("expected pending status, got %q", c.Status)
	}

	officer := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	assigned, err := complaints.Assign(ctx, models.KindMissing, c.ID, officer, admin)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != officer {
		t.Fatalf("assignee not set: %+v", assigned)
	}

	current, err := complaints.List(ctx, models.KindMissing, ComplaintFilter{Station: "Central"})
	if err != nil || len(current) != 1 {
		t.Fatalf("current listing = %d, %v", len(current), err)
	}

	if _, err := complaints.UpdateStatus(ctx, models.KindMissing, c.ID, models.StatusResolved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	current, _ = complaints.List(ctx, models.KindMissing, ComplaintFilter{Station: "Central"})
	history, _ := complaints.List(ctx, models.KindMissing, ComplaintFilter{Station: "Central", History: true})
	if len(current) != 0 || len(history) != 1 {
		t.Fatalf("expected record to move to history: current=%d history=%d", len(current), len(history))
	}

	if _, err := complaints.UpdateStatus(ctx, models.KindReport, c.ID, models.StatusClosed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from wrong kind, got %v", err)
	}
}

func TestTokenStore_WhitelistAndTransaction(t *testing.T) {
	db := openTestDB(t)
	tokens := NewTokenStore(db)
	users := NewUserStore(db)
	tx := NewTransactor(db.Client(), zap.NewNop())
	ctx, cancel := testContext()
	defer cancel()

	u := &models.User{ID: primitive.NewObjectID(), Name: "Tx User", Email: "tx@x.com", Role: models.RoleCitizen}
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		return tokens.Save(ctx, &models.RefreshToken{UserID: u.ID, Token: "tok-1", ExpiresAt: time.Now().Add(time.Hour)})
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	if _, err := tokens.Find(ctx, "tok-1"); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if err := tokens.Delete(ctx, primitive.NewObjectID(), "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("token deleted by another user: %v", err)
	}
	if err := tokens.Delete(ctx, u.ID, "tok-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := tokens.Find(ctx, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestResetStore_ConsumeOnce(t *testing.T) {
	db := openTestDB(t)
	resets := NewResetStore(db)
	ctx, cancel := testContext()
	defer cancel()

	r := &models.PasswordReset{UserID: primitive.NewObjectID(), TokenHash: "h1", ExpiresAt: time.Now().Add(time.Minute)}
	if err := resets.Create(ctx, r); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := resets.Consume(ctx, "h1", time.Now()); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if _, err := resets.Consume(ctx, "h1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second consume to fail, got %v", err)
	}
}
