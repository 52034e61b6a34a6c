package seed

import (
	"fmt"
	"os"
	"time"

	"chronicle/internal/models"

	"gopkg.in/yaml.v3"
)

// Preset describes fixed accounts and content to create before random
// data, so a dev environment always contains known logins.
type Preset struct {
	Users []PresetUser `yaml:"users"`
}

// PresetUser is one fixed account in a preset file.
type PresetUser struct {
	Username    string       `yaml:"username"`
	Email       string       `yaml:"email"`
	Description string       `yaml:"description"`
	Inactive    bool         `yaml:"inactive"`
	Posts       []PresetPost `yaml:"posts"`
}

// PresetPost is one fixed post belonging to a preset user.
type PresetPost struct {
	Content string `yaml:"content"`
	Draft   bool   `yaml:"draft"`
}

// LoadPreset reads and parses a YAML preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return nil, err
	}
	return ParsePreset(data)
}

// ParsePreset parses preset YAML and validates the minimum each entry needs.
func ParsePreset(data []byte) (*Preset, error) {
	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("invalid preset yaml: %w", err)
	}
	for i, u := range preset.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("preset user %d has no username", i)
		}
	}
	return &preset, nil
}

// Apply creates the preset's accounts and posts through the factory and
// returns the created users.
func (p *Preset) Apply(factory *Factory) ([]*models.User, error) {
	users := make([]*models.User, 0, len(p.Users))
	for _, pu := range p.Users {
		email := pu.Email
		if email == "" {
			email = fmt.Sprintf("%s@example.com", pu.Username)
		}

		user, err := factory.CreateUser(func(u *models.User) {
			u.Username = pu.Username
			u.Email = email
			u.IsActive = !pu.Inactive
		})
		if err != nil {
			return nil, fmt.Errorf("preset user %q: %w", pu.Username, err)
		}
		if pu.Description != "" {
			user.Profile.Description = pu.Description
			if err := factory.db.Save(user.Profile).Error; err != nil {
				return nil, err
			}
		}

		for _, pp := range pu.Posts {
			_, err := factory.CreatePost(user, func(post *models.Post) {
				post.Content = pp.Content
				if pp.Draft {
					post.PublishedAt = nil
				} else if post.PublishedAt == nil {
					now := time.Now()
					post.PublishedAt = &now
				}
			})
			if err != nil {
				return nil, fmt.Errorf("preset post for %q: %w", pu.Username, err)
			}
		}
		users = append(users, user)
	}
	return users, nil
}
