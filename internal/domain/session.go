package domain

import "time"

// Session is a login session backing a rotating refresh token.
// Sessions live in the key-value store and expire on their own TTL.
type Session struct {
	ID               string    `json:"id"`
	UserID           int64     `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TTL returns the time left before expiry, or zero if already expired.
func (s *Session) TTL() time.Duration {
	return max(time.Until(s.ExpiresAt), 0)
}

// Landing is where a user starts after login.
type Landing string

const (
	LandingAddClub    Landing = "add_club"
	LandingClubBooks  Landing = "club_books"
	LandingChooseClub Landing = "choose_club"
)
