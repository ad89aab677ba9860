package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/storage"
	"github.com/harentsoaR/complaint-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserService struct {
	Users    UserRepository
	Admins   AdminRepository
	Images   storage.ImageStore
	Notifier Notifier
	Log      *zap.Logger
}

// Profile is either a user or an administrator.
type Profile struct {
	User  *models.User
	Admin *models.Admin
}

func (s *UserService) Me(ctx context.Context, caller Caller) (*Profile, error) {
	if caller.Role.IsSystemAdmin() {
		admin, err := s.Admins.FindByID(ctx, caller.ID)
		if err != nil {
			return nil, lookupErr(err, "No user found!")
		}
		return &Profile{Admin: admin}, nil
	}
	user, err := s.Users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, lookupErr(err, "No user found!")
	}
	return &Profile{User: user}, nil
}

// Get loads one user for the role gates.
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.Users.FindByID(ctx, id)
}

func (s *UserService) AllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.List(ctx, store.UserFilter{})
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	return users, nil
}

func (s *UserService) AllPolice(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.List(ctx, store.UserFilter{Role: models.RoleOfficer})
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	return users, nil
}

// StationPolice lists the officers posted to the caller's station. System
// administrators see every officer; callers without a station see none.
func (s *UserService) StationPolice(ctx context.Context, caller Caller) ([]models.User, error) {
	f := store.UserFilter{Role: models.RoleOfficer}
	switch {
	case caller.Station != "":
		f.Station = caller.Station
	case caller.Role.IsSystemAdmin():
	default:
		return []models.User{}, nil
	}
	users, err := s.Users.List(ctx, f)
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	return users, nil
}

type CitizenDetails struct {
	AdhaarCard  string
	PanCard     string
	Phone       string
	Address     string
	Gender      string
	DateOfBirth string
}

func (s *UserService) UpdateCitizenDetails(ctx context.Context, caller Caller, in CitizenDetails) (*models.User, error) {
	d := models.UserDetails{
		AdhaarCard:  strings.TrimSpace(in.AdhaarCard),
		PanCard:     strings.TrimSpace(in.PanCard),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		Gender:      strings.TrimSpace(in.Gender),
		DateOfBirth: strings.TrimSpace(in.DateOfBirth),
	}
	return s.updateDetails(ctx, caller.ID, d)
}

type PoliceDetails struct {
	PostingAreaAddress string
	BadgeNumber        string
	Rank               string
	Phone              string
}

func (s *UserService) UpdatePoliceDetails(ctx context.Context, caller Caller, in PoliceDetails) (*models.User, error) {
	d := models.UserDetails{
		PostingAreaAddress: strings.TrimSpace(in.PostingAreaAddress),
		BadgeNumber:        strings.TrimSpace(in.BadgeNumber),
		Rank:               strings.TrimSpace(in.Rank),
		Phone:              strings.TrimSpace(in.Phone),
	}
	return s.updateDetails(ctx, caller.ID, d)
}

func (s *UserService) updateDetails(ctx context.Context, id primitive.ObjectID, d models.UserDetails) (*models.User, error) {
	if err := s.Users.UpdateDetails(ctx, id, d); err != nil {
		return nil, lookupErr(err, "No user found!")
	}
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "No user found!")
	}
	return user, nil
}

func (s *UserService) AddExpoToken(ctx context.Context, caller Caller, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.Validation("token is required")
	}
	if err := s.Users.AddExpoToken(ctx, caller.ID, token); err != nil {
		return lookupErr(err, "No user found!")
	}
	return nil
}

// UploadProfile stores a profile picture and returns its URL.
func (s *UserService) UploadProfile(ctx context.Context, caller Caller, f Upload) (string, error) {
	return s.uploadSingle(ctx, caller, f, "profile", s.Users.SetProfileImage)
}

// UploadVerification stores an identity document scan and returns its URL.
func (s *UserService) UploadVerification(ctx context.Context, caller Caller, f Upload) (string, error) {
	return s.uploadSingle(ctx, caller, f, "verificationPaper", s.Users.SetVerificationPaper)
}

func (s *UserService) uploadSingle(ctx context.Context, caller Caller, f Upload, folder string,
	save func(context.Context, primitive.ObjectID, string) error) (string, error) {
	if !storage.IsImage(f.ContentType) {
		return "", apperrors.WrongCredentials("invalid image file!")
	}
	objs, err := uploadAll(ctx, s.Images, s.Log, folder+"/"+caller.ID.Hex(), []Upload{f}, time.Now())
	if err != nil {
		s.Log.Error("image upload failed", zap.String("user_id", caller.ID.Hex()), zap.Error(err))
		return "", apperrors.ServerError(err)
	}
	if err := save(ctx, caller.ID, objs[0].URL); err != nil {
		cleanup(s.Images, s.Log, objs)
		return "", lookupErr(err, "No user found!")
	}
	return objs[0].URL, nil
}

// SetActive toggles activation of a user account.
func (s *UserService) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	if err := s.Users.SetActive(ctx, id, active); err != nil {
		return nil, lookupErr(err, "User not found")
	}
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "User not found")
	}
	s.Log.Info("user activation changed", zap.String("user_id", id.Hex()), zap.Bool("active", active))
	if active {
		s.Notifier.NotifyUser(id, "Account activated", "Your account has been activated.", nil)
	}
	return user, nil
}

// SendNotification pushes a message to every device of a user.
func (s *UserService) SendNotification(ctx context.Context, userID primitive.ObjectID, title, body string) error {
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		return lookupErr(err, "User not found")
	}
	s.Notifier.NotifyUser(userID, title, body, nil)
	return nil
}

func lookupErr(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound(notFound)
	}
	return apperrors.ServerError(err)
}
