// Package services holds the business rules of the API. Services depend on
// the small repository interfaces below, which the store package satisfies.
package services

import (
	"context"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, f store.UserFilter) ([]models.User, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, d models.UserDetails) error
	SetProfileImage(ctx context.Context, id primitive.ObjectID, url string) error
	SetVerificationPaper(ctx context.Context, id primitive.ObjectID, url string) error
	AddExpoToken(ctx context.Context, id primitive.ObjectID, token string) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

type AdminRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, a *models.Admin) error
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
}

type TokenRepository interface {
	Save(ctx context.Context, t *models.RefreshToken) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, userID primitive.ObjectID, token string) error
	DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type ResetRepository interface {
	Create(ctx context.Context, r *models.PasswordReset) error
	Consume(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error)
}

type ComplaintRepository interface {
	Create(ctx context.Context, c *models.Complaint) error
	List(ctx context.Context, kind models.Kind, f store.ComplaintFilter) ([]models.Complaint, error)
	Assign(ctx context.Context, kind models.Kind, id, officerID, by primitive.ObjectID) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, kind models.Kind, id primitive.ObjectID, status models.Status) (*models.Complaint, error)
	UpdatePoliceStatus(ctx context.Context, kind models.Kind, id primitive.ObjectID, status string) (*models.Complaint, error)
}

// Transactor runs fn as one unit of work.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Caller is the authenticated identity of a request plus the station
// context resolved by the role gates.
type Caller struct {
	ID      primitive.ObjectID
	Role    models.Role
	Station string
}

// Notifier delivers push messages to a user's devices.
type Notifier interface {
	NotifyUser(userID primitive.ObjectID, title, body string, data map[string]string)
}
