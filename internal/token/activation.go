// Package token issues and verifies account activation tokens.
//
// Tokens are derived from account state rather than stored: the HMAC binds
// the user id, the activation flag and the last login timestamp, so flipping
// either field invalidates every token issued before it. Nothing to persist,
// nothing to clean up.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chronicle/internal/models"
)

const digestLength = 20

// Service derives activation tokens for user accounts.
type Service struct {
	secret []byte
	// maxAge of 0 disables the age check entirely.
	maxAge time.Duration
	now    func() time.Time
}

// NewService creates a token service with the given HMAC secret and
// maximum token age.
func NewService(secret string, maxAge time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Issue returns an activation token for the user, valid until the account
// state advances or the configured age limit passes.
func (s *Service) Issue(user *models.User) string {
	ts := s.now().Unix() / 60
	return s.tokenAt(user, ts)
}

// Verify reports whether the token matches the user's current state.
func (s *Service) Verify(user *models.User, token string) bool {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}

	if s.maxAge > 0 {
		age := time.Duration(s.now().Unix()/60-ts) * time.Minute
		if age > s.maxAge || age < 0 {
			return false
		}
	}

	expected := s.tokenAt(user, ts)
	return hmac.Equal([]byte(token), []byte(expected))
}

func (s *Service) tokenAt(user *models.User, ts int64) string {
	var lastLogin string
	if user.LastLoginAt != nil {
		lastLogin = strconv.FormatInt(user.LastLoginAt.Unix(), 10)
	}

	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d|%t|%s|%d", user.ID, user.IsActive, lastLogin, ts)
	digest := hex.EncodeToString(mac.Sum(nil))[:digestLength]

	return strconv.FormatInt(ts, 36) + "-" + digest
}
