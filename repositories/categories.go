package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scholar-blog/models"
)

type CategoryRepository struct {
	col *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{col: db.Collection("categories")}
}

// UpsertBySlug upserts a category identified by its slug.
func (r *CategoryRepository) UpsertBySlug(ctx context.Context, c *models.Category) (*mongo.UpdateResult, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	filter := bson.M{"slug": c.Slug}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": c.CreatedAt,
		},
		"$set": bson.M{
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
		},
	}
	opts := options.Update().SetUpsert(true)
	return r.col.UpdateOne(ctx, filter, update, opts)
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	cats := []models.Category{}
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SuggestNames returns categories whose name contains query.
func (r *CategoryRepository) SuggestNames(ctx context.Context, query string, limit int64) ([]models.Category, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	cats := []models.Category{}
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}
