package seed

import (
	"testing"

	"chronicle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePreset = `
users:
  - username: alice
    email: alice@chronicle.test
    description: Keeps a garden journal.
    posts:
      - content: "First entry: the tomatoes survived the frost."
      - content: "Notes for next season."
        draft: true
  - username: bob
    inactive: true
`

func TestParsePreset(t *testing.T) {
	preset, err := ParsePreset([]byte(samplePreset))
	require.NoError(t, err)
	require.Len(t, preset.Users, 2)

	assert.Equal(t, "alice", preset.Users[0].Username)
	assert.Len(t, preset.Users[0].Posts, 2)
	assert.True(t, preset.Users[0].Posts[1].Draft)
	assert.True(t, preset.Users[1].Inactive)
}

func TestParsePreset_RejectsMissingUsername(t *testing.T) {
	_, err := ParsePreset([]byte("users:\n  - email: nobody@example.com\n"))
	assert.Error(t, err)
}

func TestPreset_Apply(t *testing.T) {
	db := newSeedDB(t)
	f := NewFactory(db, Options{FastPasswords: true})

	preset, err := ParsePreset([]byte(samplePreset))
	require.NoError(t, err)

	users, err := preset.Apply(f)
	require.NoError(t, err)
	require.Len(t, users, 2)

	var alice models.User
	require.NoError(t, db.Preload("Profile").Where("username = ?", "alice").First(&alice).Error)
	assert.Equal(t, "alice@chronicle.test", alice.Email)
	assert.True(t, alice.IsActive)
	assert.Equal(t, "Keeps a garden journal.", alice.Profile.Description)

	var alicePosts []models.Post
	require.NoError(t, db.Where("author_id = ?", alice.ID).Find(&alicePosts).Error)
	require.Len(t, alicePosts, 2)

	drafts := 0
	for _, p := range alicePosts {
		if p.IsDraft() {
			drafts++
		}
	}
	assert.Equal(t, 1, drafts)

	var bob models.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
	assert.False(t, bob.IsActive, "preset inactive accounts stay pending")
}
