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

// ErrNotFound is returned when a single document lookup matches nothing.
var ErrNotFound = errors.New("repositories: not found")

const (
	DefaultPageSize = 9
	MaxPageSize     = 100
)

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection("posts")}
}

type ListPostsOptions struct {
	Page     int
	PageSize int
	// Category matches the embedded category id (hex) or slug.
	Category string
	// Search is a case-insensitive substring over title, excerpt, content and tags.
	Search   string
	Status   string
	AuthorID *primitive.ObjectID
}

// normalize clamps paging values.
func (o *ListPostsOptions) normalize() {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
}

func (o ListPostsOptions) filter() bson.M {
	filter := bson.M{}
	if o.Status != "" {
		filter["status"] = o.Status
	}
	if o.AuthorID != nil {
		filter["author.id"] = *o.AuthorID
	}

	var and []bson.M
	if o.Category != "" {
		byCategory := []bson.M{{"category.slug": o.Category}}
		if oid, err := primitive.ObjectIDFromHex(o.Category); err == nil {
			byCategory = append(byCategory, bson.M{"category.id": oid})
		}
		and = append(and, bson.M{"$or": byCategory})
	}
	if o.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(o.Search), Options: "i"}
		and = append(and, bson.M{"$or": []bson.M{
			{"title": re},
			{"excerpt": re},
			{"content": re},
			{"tags": re},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

// List returns one page of posts, newest first, and the total match count.
func (r *PostRepository) List(ctx context.Context, opt ListPostsOptions) ([]models.Post, int64, error) {
	opt.normalize()
	filter := opt.filter()

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((opt.Page - 1) * opt.PageSize)).
		SetLimit(int64(opt.PageSize))

	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementViewCount atomically adds one view.
func (r *PostRepository) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"view_count": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert inserts a new post document and sets its ID.
func (r *PostRepository) Insert(ctx context.Context, p *models.Post) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

// SuggestTitles returns published posts whose title contains query.
func (r *PostRepository) SuggestTitles(ctx context.Context, query string, limit int64) ([]models.Post, error) {
	filter := bson.M{
		"status": models.PostStatusPublished,
		"title":  primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	}
	opts := options.Find().
		SetProjection(bson.M{"title": 1}).
		SetSort(bson.D{{Key: "view_count", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SuggestTags returns distinct tags of published posts containing query.
func (r *PostRepository) SuggestTags(ctx context.Context, query string, limit int) ([]string, error) {
	return r.distinctMatching(ctx, "tags", query, limit)
}

// SuggestAuthors returns distinct author names of published posts.
func (r *PostRepository) SuggestAuthors(ctx context.Context, query string, limit int) ([]models.AuthorRef, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status": models.PostStatusPublished,
			"$or": []bson.M{
				{"author.first_name": re},
				{"author.last_name": re},
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$author.id",
			"first_name": bson.M{"$first": "$author.first_name"},
			"last_name":  bson.M{"$first": "$author.last_name"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_name", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID        primitive.ObjectID `bson:"_id"`
		FirstName string             `bson:"first_name"`
		LastName  string             `bson:"last_name"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.AuthorRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.AuthorRef{ID: row.ID, FirstName: row.FirstName, LastName: row.LastName})
	}
	return out, nil
}

func (r *PostRepository) distinctMatching(ctx context.Context, field, query string, limit int) ([]string, error) {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	values, err := r.col.Distinct(ctx, field, bson.M{
		"status": models.PostStatusPublished,
		field:    primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	})
	if err != nil {
		return nil, err
	}
	// Distinct returns every element of matching arrays; keep only the hits.
	out := make([]string, 0, limit)
	for _, v := range values {
		s, ok := v.(string)
		if !ok || !re.MatchString(s) {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
