package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/messaging"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/store"
	"github.com/harentsoaR/complaint-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuthService implements registration, login and the refresh-token
// lifecycle for both users and administrators.
type AuthService struct {
	Users    UserRepository
	Admins   AdminRepository
	Tokens   TokenRepository
	Resets   ResetRepository
	Tx       Transactor
	JWT      *utils.TokenManager
	Hasher   *utils.PasswordHasher
	Events   messaging.Publisher
	Log      *zap.Logger
	ResetTTL time.Duration

	now func() time.Time
}

func (s *AuthService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// AuthResult is returned by every flow that issues a token pair. User or
// Admin is set depending on the identity class.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
	Admin        *models.Admin
}

// Register creates a user. Citizens start active, station admins and
// officers wait for activation.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	exists, err := s.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	if exists {
		return nil, apperrors.AlreadyExist("This email is already taken")
	}
	if !in.Role.Valid() {
		return nil, apperrors.WrongCredentials("Invalid Role was Found")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:         primitive.NewObjectID(),
		Name:       in.Name,
		Email:      in.Email,
		Password:   hash,
		Role:       in.Role,
		Active:     in.Role.DefaultActive(),
		ExpoTokens: []string{},
	}

	var pair utils.TokenPair
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Users.Create(ctx, user); err != nil {
			return err
		}
		pair, err = s.issue(ctx, user.ID, user.Role)
		return err
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, apperrors.AlreadyExist("This email is already taken")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}

	s.Log.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.Int("role", int(user.Role)),
		zap.Bool("active", user.Active))
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

// RegisterAdmin creates a system administrator. The email must be free in
// both identity collections.
func (s *AuthService) RegisterAdmin(ctx context.Context, name, email, password string) (*AuthResult, error) {
	for _, exists := range []func(context.Context, string) (bool, error){s.Users.EmailExists, s.Admins.EmailExists} {
		taken, err := exists(ctx, email)
		if err != nil {
			return nil, apperrors.ServerError(err)
		}
		if taken {
			return nil, apperrors.AlreadyExist("This email is already taken")
		}
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{ID: primitive.NewObjectID(), Name: name, Email: email, Password: hash}

	var pair utils.TokenPair
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Admins.Create(ctx, admin); err != nil {
			return err
		}
		pair, err = s.issue(ctx, admin.ID, models.RoleSystemAdmin)
		return err
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, apperrors.AlreadyExist("This email is already taken")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}

	s.Log.Info("admin registered", zap.String("admin_id", admin.ID.Hex()))
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, Admin: admin}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.WrongCredentials("")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	if !s.Hasher.CheckPasswordHash(password, user.Password) {
		return nil, apperrors.WrongCredentials("")
	}

	pair, err := s.issueTx(ctx, user.ID, user.Role)
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	admin, err := s.Admins.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.WrongCredentials("")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	if !s.Hasher.CheckPasswordHash(password, admin.Password) {
		return nil, apperrors.WrongCredentials("")
	}

	pair, err := s.issueTx(ctx, admin.ID, models.RoleSystemAdmin)
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, Admin: admin}, nil
}

// Refresh exchanges a whitelisted refresh token for a new pair. The old
// token is removed from the whitelist in the same unit of work.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.JWT.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	entry, err := s.Tokens.Find(ctx, refreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil || id != entry.UserID {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}

	role := claims.Role
	result := &AuthResult{}
	if role.IsSystemAdmin() {
		admin, err := s.Admins.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("No user found!")
		}
		if err != nil {
			return nil, apperrors.ServerError(err)
		}
		result.Admin = admin
	} else {
		user, err := s.Users.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("No user found!")
		}
		if err != nil {
			return nil, apperrors.ServerError(err)
		}
		result.User = user
		role = user.Role
	}

	var pair utils.TokenPair
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Tokens.Delete(ctx, id, refreshToken); err != nil {
			return err
		}
		pair, err = s.issue(ctx, id, role)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	result.AccessToken, result.RefreshToken = pair.AccessToken, pair.RefreshToken
	return result, nil
}

// Logout removes the caller's refresh token from the whitelist.
func (s *AuthService) Logout(ctx context.Context, caller Caller, refreshToken string) error {
	err := s.Tokens.Delete(ctx, caller.ID, refreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return apperrors.ServerError(err)
	}
	return nil
}

// ResetPassword changes the caller's password after checking the current
// one and revokes every refresh token they hold.
func (s *AuthService) ResetPassword(ctx context.Context, caller Caller, current, next string) error {
	user, err := s.Users.FindByID(ctx, caller.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("User not found")
	}
	if err != nil {
		return apperrors.ServerError(err)
	}
	if !s.Hasher.CheckPasswordHash(current, user.Password) {
		return apperrors.WrongCredentials("Current password is wrong!")
	}
	return s.setPassword(ctx, user.ID, next)
}

// ForgotPassword issues a single-use reset token when email belongs to a
// user. Unknown emails are not reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.Log.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return apperrors.ServerError(err)
	}

	token, err := utils.NewOpaqueToken()
	if err != nil {
		return apperrors.ServerError(err)
	}
	expires := s.clock().Add(s.ResetTTL).UTC()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: expires,
	}
	if err := s.Resets.Create(ctx, reset); err != nil {
		return apperrors.ServerError(err)
	}

	event := messaging.PasswordResetRequested{
		UserID:    user.ID.Hex(),
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresAt: expires,
	}
	if err := s.Events.Publish(ctx, messaging.RoutingKeyPasswordResetIssued, event); err != nil {
		s.Log.Warn("publish password reset event failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}
	return nil
}

// ConfirmReset consumes a reset token and sets a new password.
func (s *AuthService) ConfirmReset(ctx context.Context, token, next string) error {
	reset, err := s.Resets.Consume(ctx, utils.HashToken(token), s.clock().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.Unauthorized("Invalid or expired reset token")
	}
	if err != nil {
		return apperrors.ServerError(err)
	}
	return s.setPassword(ctx, reset.UserID, next)
}

// hash reports over-long passwords as a validation failure.
func (s *AuthService) hash(password string) (string, error) {
	hash, err := s.Hasher.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", apperrors.Validation(fmt.Sprintf(`"password" must not exceed %d bytes`, utils.MaxPasswordBytes))
	}
	if err != nil {
		return "", apperrors.ServerError(err)
	}
	return hash, nil
}

func (s *AuthService) setPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Users.SetPassword(ctx, id, hash); err != nil {
			return err
		}
		_, err := s.Tokens.DeleteAllForUser(ctx, id)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("User not found")
	}
	if err != nil {
		return apperrors.ServerError(err)
	}
	s.Log.Info("password changed", zap.String("user_id", id.Hex()))
	return nil
}

// issueTx signs a pair and whitelists the refresh token as one unit.
func (s *AuthService) issueTx(ctx context.Context, id primitive.ObjectID, role models.Role) (utils.TokenPair, error) {
	var pair utils.TokenPair
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		pair, err = s.issue(ctx, id, role)
		return err
	})
	return pair, err
}

func (s *AuthService) issue(ctx context.Context, id primitive.ObjectID, role models.Role) (utils.TokenPair, error) {
	pair, err := s.JWT.GeneratePair(id.Hex(), role)
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("sign tokens: %w", err)
	}
	err = s.Tokens.Save(ctx, &models.RefreshToken{
		UserID:    id,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("whitelist refresh token: %w", err)
	}
	return pair, nil
}
