// Package validation contains input validators for account fields.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)

// Route segments and service names that usernames must not shadow;
// profile pages live under paths keyed by username.
var reservedUsernames = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"auth":     {},
	"me":       {},
	"drafts":   {},
	"settings": {},
	"users":    {},
	"posts":    {},
	"comments": {},
	"profiles": {},
	"images":   {},
	"ws":       {},
	"metrics":  {},
	"login":    {},
	"signup":   {},
	"activate": {},
}

// ValidateUsername validates username format and reserved names.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return fmt.Errorf("username must be 3-30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain letters, numbers, hyphens and underscores, and must start and end with a letter or number")
	}
	if _, exists := reservedUsernames[strings.ToLower(username)]; exists {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateEmail validates email address format.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	if strings.ContainsAny(email, " ") {
		return fmt.Errorf("invalid email address")
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return fmt.Errorf("invalid email address")
	}
	if strings.HasSuffix(domain, ".") || !strings.Contains(domain, ".") {
		return fmt.Errorf("email domain is invalid")
	}
	return nil
}

// ValidatePassword enforces the password policy: 12-128 characters with
// at least one uppercase letter, one lowercase letter, one digit and one
// special character.
func ValidatePassword(password string) error {
	length := len([]rune(password))
	if length < 12 {
		return fmt.Errorf("password must be at least 12 characters")
	}
	if length > 128 {
		return fmt.Errorf("password must be at most 128 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain an uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain a lowercase letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain a digit")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain a special character")
	}
	return nil
}

// ValidateDescription bounds profile description length.
func ValidateDescription(description string) error {
	if len(description) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}
	return nil
}
