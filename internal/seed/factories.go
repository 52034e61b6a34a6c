// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"chronicle/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// seedPasswordHash hashes the shared demo password. Bcrypt cost is dropped
// in fast mode because hashing hundreds of users at default cost dominates
// seeding time.
func (f *Factory) seedPasswordHash() string {
	cost := bcrypt.DefaultCost
	if f.opts.FastPasswords {
		cost = bcrypt.MinCost
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte("Password123!seed"), cost)
	return string(hashed)
}

// GenerateUsername produces a username that passes account validation:
// letters and digits, 3-30 characters, no leading or trailing separator.
func (f *Factory) GenerateUsername() string {
	first := strings.ToLower(gofakeit.FirstName())
	last := strings.ToLower(gofakeit.LastName())
	name := fmt.Sprintf("%s_%s%d", first, last, f.rng.Intn(1000))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return -1
	}, name)
	if len(name) > 30 {
		name = name[:30]
	}
	return strings.Trim(name, "_-")
}

// CreateUser constructs and persists a sample user with its profile row,
// already activated. Optional override functions may modify the generated
// user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := f.GenerateUsername()
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: f.seedPasswordHash(),
		IsActive: true,
	}

	for _, override := range overrides {
		override(user)
	}

	user.Profile = &models.Profile{
		Description: gofakeit.Sentence(12),
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for the given author without persisting it.
// Roughly a third of generated posts stay drafts; the rest get a
// publication time spread over the recent past.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Content:  gofakeit.Paragraph(1, f.rng.Intn(4)+1, 8, "\n\n"),
		AuthorID: author.ID,
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	createdAt := time.Now().
		Add(-time.Duration(f.rng.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rng.Intn(24*60)) * time.Minute)
	post.CreatedAt = createdAt

	if f.rng.Float32() >= 0.33 {
		publishedAt := createdAt.Add(time.Duration(f.rng.Intn(120)) * time.Minute)
		post.PublishedAt = &publishedAt
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a generated post for the given author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a sample comment on the provided post.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content:  gofakeit.Sentence(8),
		AuthorID: author.ID,
		PostID:   post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post. Duplicate likes hit the
// unique index and are reported as errors.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Create(like).Error
}

// CreateSubscription persists a follow edge from subscriber to target.
func (f *Factory) CreateSubscription(subscriber, target *models.User) error {
	sub := &models.Subscription{
		SubscriberID: subscriber.ID,
		TargetID:     target.ID,
	}
	return f.db.Create(sub).Error
}
