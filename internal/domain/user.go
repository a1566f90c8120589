package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User represents a registered student.
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	College       string
	AvatarURL     string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
}

// DisplayName returns the user's full name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Initials returns the avatar fallback for the user.
func (u *User) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.DisplayName()) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}

// SplitFullName splits a full name into a first name and the remainder.
func SplitFullName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
