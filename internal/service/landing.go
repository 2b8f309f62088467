package service

import (
	"context"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

// LandingService decides where a signed-in user starts.
type LandingService struct {
	store store.Store
}

// NewLandingService creates a new landing service.
func NewLandingService(store store.Store) *LandingService {
	return &LandingService{store: store}
}

// Landing names the start page and, for a single club, its slug.
type Landing struct {
	Next     domain.Landing `json:"next"`
	ClubSlug string         `json:"club_slug,omitempty"`
}

// Resolve picks the landing page: create a club when the user has none, go
// straight to the reading list when there is exactly one, otherwise choose.
func (s *LandingService) Resolve(ctx context.Context, userID int64) (*Landing, error) {
	memberships, err := s.store.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch len(memberships) {
	case 0:
		return &Landing{Next: domain.LandingAddClub}, nil
	case 1:
		return &Landing{Next: domain.LandingClubBooks, ClubSlug: memberships[0].Club.Slug}, nil
	default:
		return &Landing{Next: domain.LandingChooseClub}, nil
	}
}
