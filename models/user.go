package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleReader     = "reader"
	RoleResearcher = "researcher"
	RoleAdmin      = "admin"
)

// User represents a registered account
// Collection: users
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	Role         string             `bson:"role" json:"role"`
}

// AuthorRef returns the snapshot embedded into posts written by u.
func (u User) AuthorRef() AuthorRef {
	return AuthorRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleReader, RoleResearcher, RoleAdmin:
		return true
	}
	return false
}
