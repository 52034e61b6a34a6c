package token

import (
	"testing"
	"time"

	"chronicle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(maxAge time.Duration) *Service {
	return NewService("test-secret", maxAge)
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(72 * time.Hour)
	user := &models.User{ID: 42, IsActive: false}

	tok := svc.Issue(user)
	require.NotEmpty(t, tok)
	assert.True(t, svc.Verify(user, tok))
}

func TestVerify_FailsAfterActivation(t *testing.T) {
	svc := newTestService(72 * time.Hour)
	user := &models.User{ID: 42, IsActive: false}

	tok := svc.Issue(user)
	require.True(t, svc.Verify(user, tok))

	// Activation flips the state the digest is bound to.
	user.IsActive = true
	assert.False(t, svc.Verify(user, tok))
}

func TestVerify_FailsAfterLogin(t *testing.T) {
	svc := newTestService(0)
	user := &models.User{ID: 7, IsActive: true}

	tok := svc.Issue(user)
	require.True(t, svc.Verify(user, tok))

	now := time.Now()
	user.LastLoginAt = &now
	assert.False(t, svc.Verify(user, tok))
}

func TestVerify_RejectsWrongUser(t *testing.T) {
	svc := newTestService(0)
	alice := &models.User{ID: 1}
	bob := &models.User{ID: 2}

	tok := svc.Issue(alice)
	assert.False(t, svc.Verify(bob, tok))
}

func TestVerify_RejectsMalformedTokens(t *testing.T) {
	svc := newTestService(72 * time.Hour)
	user := &models.User{ID: 42}

	for _, tok := range []string{"", "no-dash-at-all!", "notbase36!!-abcdef", "-", "1z2x"} {
		assert.False(t, svc.Verify(user, tok), "token %q should not verify", tok)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	svc := newTestService(time.Hour)
	user := &models.User{ID: 42}

	tok := svc.Issue(user)
	require.True(t, svc.Verify(user, tok))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.False(t, svc.Verify(user, tok))
}

func TestVerify_RejectsFutureToken(t *testing.T) {
	svc := newTestService(time.Hour)
	user := &models.User{ID: 42}

	svc.now = func() time.Time { return time.Now().Add(30 * time.Minute) }
	tok := svc.Issue(user)

	svc.now = time.Now
	assert.False(t, svc.Verify(user, tok))
}

func TestVerify_ZeroMaxAgeDisablesExpiry(t *testing.T) {
	svc := newTestService(0)
	user := &models.User{ID: 42}

	tok := svc.Issue(user)
	svc.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	assert.True(t, svc.Verify(user, tok))
}

func TestIssue_DeterministicWithinMinute(t *testing.T) {
	svc := newTestService(0)
	fixed := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	user := &models.User{ID: 42}
	assert.Equal(t, svc.Issue(user), svc.Issue(user))
}
