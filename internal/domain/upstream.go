package domain

import "time"

// UpstreamAccount holds a user's credentials for an upstream streaming
// provider. Username and Password are plaintext in the domain layer; the
// store encrypts them with the envelope before they touch disk.
type UpstreamAccount struct {
	ID        string
	UserID    string
	Name      string
	APIURL    string
	Username  string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
