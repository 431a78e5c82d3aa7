package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a blog post document
// Collection: posts
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	Status    string             `bson:"status" json:"status"`
	Title     string             `bson:"title" json:"title"`
	Excerpt   string             `bson:"excerpt" json:"excerpt"`
	Content   string             `bson:"content" json:"content"`
	Tags      []string           `bson:"tags" json:"tags"`
	Author    AuthorRef          `bson:"author" json:"author"`
	Category  CategoryRef        `bson:"category" json:"category"`
	ViewCount int64              `bson:"view_count" json:"view_count"`
	LikeCount int64              `bson:"like_count" json:"like_count"`
}

// AuthorRef is a denormalized snapshot of the author stored with the post.
type AuthorRef struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name" json:"last_name"`
}

// CategoryRef is a denormalized snapshot of the category stored with the post.
// Filtering by category matches either ID or Slug.
type CategoryRef struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Slug string             `bson:"slug" json:"slug"`
}
