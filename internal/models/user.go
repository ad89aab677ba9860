package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role              Role               `bson:"role" json:"role"`
	Active            bool               `bson:"active" json:"active"`
	UserDetails       *UserDetails       `bson:"userDetails,omitempty" json:"userDetails,omitempty"`
	ProfileImage      string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	VerificationPaper string             `bson:"verificationPaper,omitempty" json:"verificationPaper,omitempty"`
	ExpoTokens        []string           `bson:"expoTokens,omitempty" json:"expoTokens,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserDetails holds identity documents for citizens and posting data for police.
type UserDetails struct {
	AdhaarCard  string `bson:"adhaarCard,omitempty" json:"adhaarCard,omitempty"`
	PanCard     string `bson:"panCard,omitempty" json:"panCard,omitempty"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	Gender      string `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth string `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`

	PostingAreaAddress string `bson:"postingAreaAddress,omitempty" json:"postingAreaAddress,omitempty"`
	BadgeNumber        string `bson:"badgeNumber,omitempty" json:"badgeNumber,omitempty"`
	Rank               string `bson:"rank,omitempty" json:"rank,omitempty"`
}

// IdentityVerified reports whether either identity document is on file.
func (u *User) IdentityVerified() bool {
	return u.UserDetails != nil && (u.UserDetails.AdhaarCard != "" || u.UserDetails.PanCard != "")
}

// Station returns the posting area of a station admin or officer, if any.
func (u *User) Station() string {
	if u.UserDetails == nil {
		return ""
	}
	return u.UserDetails.PostingAreaAddress
}

// Admin is a system administrator. Admins live in their own collection and
// carry no role field; tokens issued to them use RoleSystemAdmin.
type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
