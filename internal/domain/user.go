package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string   // argon2 encoded
	Roles        []string // role labels, stored space-delimited
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user carries the given role label.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
