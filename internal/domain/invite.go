package domain

import "time"

// DefaultInviteTTL is how long an invite link stays usable.
const DefaultInviteTTL = 24 * time.Hour

// InviteStatus is the lifecycle state of an invite token.
// Expired is never stored; it is derived from the token's age.
type InviteStatus string

const (
	InviteIssued   InviteStatus = "issued"
	InviteConsumed InviteStatus = "consumed"
	InviteExpired  InviteStatus = "expired"
)

// InviteToken is a single-use, time-limited credential granting signup into a club.
type InviteToken struct {
	ID        string    `json:"id"`
	ClubID    int64     `json:"club_id"`
	CreatedAt time.Time `json:"created_at"`
	Accepted  bool      `json:"accepted"`
}

// ExpiresAt returns when the token stops being usable.
func (t *InviteToken) ExpiresAt(ttl time.Duration) time.Time {
	return t.CreatedAt.Add(ttl)
}

// IsExpired reports whether ttl has fully elapsed since creation.
// A token exactly ttl old is expired.
func (t *InviteToken) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) >= ttl
}

// IsValid reports whether the token can still be consumed.
func (t *InviteToken) IsValid(now time.Time, ttl time.Duration) bool {
	return !t.Accepted && !t.IsExpired(now, ttl)
}

// Status derives the lifecycle state. Consumption wins over expiry.
func (t *InviteToken) Status(now time.Time, ttl time.Duration) InviteStatus {
	if t.Accepted {
		return InviteConsumed
	}
	if t.IsExpired(now, ttl) {
		return InviteExpired
	}
	return InviteIssued
}
