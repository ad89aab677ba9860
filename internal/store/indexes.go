package store

import (
	"context"
	"errors"
	"strings"

	"github.com/harentsoaR/complaint-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureIndexes is called at startup. CreateMany is idempotent for identical
definitions; problems are aggregated so startup fails with every cause visible.
*/
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, idx []mongo.IndexModel) {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_users_email").SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "userDetails.postingAreaAddress", Value: 1}}, Options: options.Index().SetName("idx_users_role_station")},
	})
	ensure("admins", []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_admins_email").SetUnique(true)},
	})
	ensure("refreshtokens", []mongo.IndexModel{
		{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetName("uniq_refresh_token").SetUnique(true)},
		{Keys: bson.D{{Key: "userid", Value: 1}}, Options: options.Index().SetName("idx_refresh_user")},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetName("ttl_refresh_expiry").SetExpireAfterSeconds(0)},
	})
	ensure("passwordresets", []mongo.IndexModel{
		{Keys: bson.D{{Key: "tokenHash", Value: 1}}, Options: options.Index().SetName("uniq_reset_hash").SetUnique(true)},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetName("ttl_reset_expiry").SetExpireAfterSeconds(0)},
	})
	for _, kind := range models.Kinds {
		ensure(kind.Collection(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "station", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_station_status")},
			{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_owner")},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("idx_assignee")},
		})
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
