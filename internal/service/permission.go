package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buddyread/buddyread-server/internal/domain"
	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/store"
)

const msgAccessDenied = "access denied for the selected book club"

// PermissionService answers membership and moderator questions for clubs.
// It is the only place club access is decided.
type PermissionService struct {
	store store.Store
}

// NewPermissionService creates a new permission service.
func NewPermissionService(store store.Store) *PermissionService {
	return &PermissionService{store: store}
}

// IsMember reports whether the user belongs to the club.
func (s *PermissionService) IsMember(ctx context.Context, clubID, userID int64) (bool, error) {
	m, err := s.membership(ctx, clubID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// IsModerator reports whether the user belongs to the club as a moderator.
func (s *PermissionService) IsModerator(ctx context.Context, clubID, userID int64) (bool, error) {
	m, err := s.membership(ctx, clubID, userID)
	if err != nil || m == nil {
		return false, err
	}
	return m.IsMod, nil
}

// membership returns the user's membership, or nil without error if there is none.
func (s *PermissionService) membership(ctx context.Context, clubID, userID int64) (*domain.Membership, error) {
	m, err := s.store.GetMembership(ctx, clubID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// RequireMember resolves the club by slug and checks the caller belongs to it.
// Returns NotFound for an unknown slug and Forbidden for a non-member.
func (s *PermissionService) RequireMember(ctx context.Context, slug string, userID int64) (*domain.BookClub, *domain.Membership, error) {
	club, err := s.store.GetClubBySlug(ctx, slug)
	if err != nil {
		return nil, nil, mapStoreError(err, "book club not found")
	}

	m, err := s.membership(ctx, club.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, domainerrors.Forbidden(msgAccessDenied)
	}
	return club, m, nil
}

// RequireModerator is RequireMember that additionally demands moderator status.
func (s *PermissionService) RequireModerator(ctx context.Context, slug string, userID int64) (*domain.BookClub, *domain.Membership, error) {
	club, m, err := s.RequireMember(ctx, slug, userID)
	if err != nil {
		return nil, nil, err
	}
	if !m.IsMod {
		return nil, nil, domainerrors.Forbidden(msgAccessDenied)
	}
	return club, m, nil
}
