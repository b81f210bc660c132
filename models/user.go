package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

const (
	// Characters, not bytes.
	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	MaxPasswordLength = 72
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Password     string    `json:"password,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Credentials is the register/login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Credentials) Normalize() {
	c.Username = strings.TrimSpace(c.Username)
}

func (c *Credentials) Validate() error {
	verr := &ValidationError{}
	if c.Username == "" {
		verr.add("username", "is required")
	} else if !usernamePattern.MatchString(c.Username) {
		verr.add("username", "must be 3-50 letters, digits, '_', '.' or '-'")
	}
	switch {
	case utf8.RuneCountInString(c.Password) < MinPasswordLength:
		verr.add("password", "must be at least 6 characters")
	case len(c.Password) > MaxPasswordLength:
		verr.add("password", "must be at most 72 bytes")
	}
	return verr.orNil()
}

// Public strips secrets before the user is written to a response.
func (u User) Public() User {
	u.Password = ""
	u.PasswordHash = ""
	return u
}
