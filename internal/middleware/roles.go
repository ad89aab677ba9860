package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/services"
	"github.com/harentsoaR/complaint-api/internal/store"
	"github.com/harentsoaR/complaint-api/internal/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserLookup loads the caller's stored profile.
type UserLookup interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Gates are the per-route role checks. In lenient mode StationAdmin and
// PoliceMan only annotate the request; Strict makes them reject callers
// without the role. System administrators pass every strict gate.
type Gates struct {
	Users  UserLookup
	Strict bool
	Log    *zap.Logger
}

// StationAdmin attaches the posting area of a station admin as the
// request's station context.
func (g *Gates) StationAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, apperrors.Unauthorized(""))
			return
		}
		if !caller.Role.IsStationAdmin() {
			if g.Strict && !caller.Role.IsSystemAdmin() {
				g.deny(c, caller, "station-admin")
				return
			}
			c.Next()
			return
		}

		user, err := g.load(c, caller.ID)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(KeyStation, user.Station())
		c.Next()
	}
}

// PoliceMan sets the police flag for officers.
func (g *Gates) PoliceMan() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, apperrors.Unauthorized(""))
			return
		}
		police := caller.Role.CanUpdatePoliceStatus()
		if g.Strict && !police && !caller.Role.IsSystemAdmin() {
			g.deny(c, caller, "police")
			return
		}
		c.Set(KeyPolice, police)
		c.Next()
	}
}

// VerifiedCitizen blocks citizens that have neither identity document on
// file. Other roles pass.
func (g *Gates) VerifiedCitizen() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, apperrors.Unauthorized(""))
			return
		}
		if !caller.Role.RequiresVerifiedProfile() {
			c.Next()
			return
		}
		user, err := g.load(c, caller.ID)
		if err != nil {
			abort(c, err)
			return
		}
		if !user.IdentityVerified() {
			abort(c, apperrors.WrongCredentials("Complete your profile before registering complaint"))
			return
		}
		c.Next()
	}
}

// SystemAdmin always rejects callers that are not administrators.
func (g *Gates) SystemAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, apperrors.Unauthorized(""))
			return
		}
		if !caller.Role.IsSystemAdmin() {
			g.deny(c, caller, "system-admin")
			return
		}
		c.Next()
	}
}

func (g *Gates) load(c *gin.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := timeouts.WithTimeout(c.Request.Context(), timeouts.Short(), g.logger(), "load caller profile")
	defer cancel()
	user, err := g.Users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		g.logger().Info("caller has no profile", zap.String("user_id", id.Hex()))
		return nil, apperrors.Unauthorized("No user found!")
	}
	if err != nil {
		g.logger().Error("load caller profile", zap.String("user_id", id.Hex()), zap.Error(err))
		return nil, apperrors.ServerError(err)
	}
	return user, nil
}

// deny rejects a caller that lacks the gate's role.
func (g *Gates) deny(c *gin.Context, caller services.Caller, gate string) {
	g.logger().Info("role gate rejected caller",
		zap.String("gate", gate),
		zap.String("user_id", caller.ID.Hex()),
		zap.Int("role", int(caller.Role)),
		zap.String("path", c.FullPath()))
	abort(c, apperrors.Forbidden(""))
}

func (g *Gates) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

func abort(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}
