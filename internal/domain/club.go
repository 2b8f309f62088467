package domain

import (
	"time"

	"github.com/buddyread/buddyread-server/internal/util"
)

// BookClub is a named group of users sharing a reading list.
// Slug is the route identifier and is always derived from Name.
type BookClub struct {
	Timestamps
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// NewBookClub builds an unsaved club with its slug derived from name.
func NewBookClub(name string) *BookClub {
	c := &BookClub{}
	c.InitTimestamps()
	c.SetName(name)
	return c
}

// SetName renames the club and recomputes the slug.
// Links built from the previous slug stop resolving after the rename is saved.
func (c *BookClub) SetName(name string) {
	c.Name = name
	c.Slug = util.Slugify(name)
	c.Touch()
}

// Membership binds a user to a club.
type Membership struct {
	ID        int64     `json:"id"`
	ClubID    int64     `json:"club_id"`
	UserID    int64     `json:"user_id"`
	IsMod     bool      `json:"is_mod"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberDetail is a membership joined with the member's username.
type MemberDetail struct {
	Membership
	Username string `json:"username"`
}

// ClubMembership is a membership joined with its club, used for a user's overview.
type ClubMembership struct {
	Membership
	Club BookClub `json:"club"`
}
