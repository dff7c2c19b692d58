package domain

import "time"

// InviteCode gates registration. A code is valid while uses < max_uses and,
// if an expiry is set, the current time is before it. Revoking a code clamps
// max_uses down to uses so it can never be consumed again.
type InviteCode struct {
	ID        string
	Code      string
	MaxUses   int
	Uses      int
	ExpiresAt *time.Time // nil means never expires
	CreatedAt time.Time
}

// Exhausted reports whether the code has no remaining uses.
func (i InviteCode) Exhausted() bool {
	return i.Uses >= i.MaxUses
}

// Expired reports whether the code has passed its expiry at the given time.
func (i InviteCode) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}
