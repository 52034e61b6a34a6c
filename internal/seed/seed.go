package seed

import (
	"fmt"
	"log"

	"chronicle/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// FastPasswords uses bcrypt.MinCost for the shared demo password.
	FastPasswords bool
	// MaxDays caps how far back post timestamps are spread. Defaults to 90.
	MaxDays int
	// PresetPath optionally names a YAML preset of fixed accounts and
	// posts, created before the random data.
	PresetPath string
}

// Seed populates the database with demo data: activated users with
// profiles, a mix of drafts and published posts, comments, likes and
// a subscription mesh.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, opts)

	var users []*models.User
	if opts.PresetPath != "" {
		preset, err := LoadPreset(opts.PresetPath)
		if err != nil {
			return fmt.Errorf("failed to load preset: %w", err)
		}
		presetUsers, err := preset.Apply(factory)
		if err != nil {
			return fmt.Errorf("failed to apply preset: %w", err)
		}
		users = append(users, presetUsers...)
		log.Printf("Preset applied: %d fixed accounts", len(presetUsers))
	}

	for i := len(users); i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)
		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	if len(users) == 0 {
		return fmt.Errorf("no users were created")
	}
	log.Printf("%d users created", len(users))

	posts, err := createPosts(factory, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if err := createEngagement(factory, users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	if err := createSubscriptionMesh(factory, users); err != nil {
		return fmt.Errorf("failed to create subscriptions: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comments, likes, subscriptions, posts, profiles, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createPosts(factory *Factory, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	batch := make([]*models.Post, 0, 100)

	for i := 0; i < count; i++ {
		author := users[factory.rng.Intn(len(users))]
		batch = append(batch, factory.BuildPost(author))

		if len(batch) == cap(batch) {
			if err := factory.CreatePostsBatch(batch); err != nil {
				return nil, err
			}
			posts = append(posts, batch...)
			batch = batch[:0]
		}
	}
	if err := factory.CreatePostsBatch(batch); err != nil {
		return nil, err
	}
	posts = append(posts, batch...)
	return posts, nil
}

// createEngagement adds comments and likes to published posts only;
// drafts are invisible to everyone but their author and collect neither.
func createEngagement(factory *Factory, users []*models.User, posts []*models.Post) error {
	commented := 0
	liked := 0
	for _, post := range posts {
		if post.IsDraft() {
			continue
		}

		for i := factory.rng.Intn(4); i > 0; i-- {
			commenter := users[factory.rng.Intn(len(users))]
			if _, err := factory.CreateComment(commenter, post); err != nil {
				return err
			}
			commented++
		}

		// Sample likers without replacement so the unique index holds
		for _, idx := range factory.rng.Perm(len(users))[:factory.rng.Intn(min(len(users), 8))] {
			if err := factory.CreateLike(users[idx], post); err != nil {
				return err
			}
			liked++
		}
	}
	log.Printf("%d comments and %d likes created", commented, liked)
	return nil
}

// createSubscriptionMesh wires each user to follow a handful of others.
func createSubscriptionMesh(factory *Factory, users []*models.User) error {
	edges := 0
	for _, subscriber := range users {
		targets := factory.rng.Perm(len(users))
		wanted := factory.rng.Intn(min(len(users), 6))
		for _, idx := range targets {
			if wanted == 0 {
				break
			}
			target := users[idx]
			if target.ID == subscriber.ID {
				continue
			}
			if err := factory.CreateSubscription(subscriber, target); err != nil {
				return err
			}
			edges++
			wanted--
		}
	}
	log.Printf("%d subscription edges created", edges)
	return nil
}
