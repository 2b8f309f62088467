package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buddyread/buddyread-server/internal/domain"
	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/store"
)

const (
	msgClubNameTaken   = "a book club with this name already exists"
	msgClubNameNoSlug  = "name must contain at least one letter or digit"
	msgMemberNotFound  = "member not found"
	msgClubNotFound    = "book club not found"
	reasonModProtected = "moderators cannot be removed"
	reasonAlreadyMod   = "member is already a moderator"
)

// ClubService manages the club lifecycle and club membership administration.
type ClubService struct {
	store   store.Store
	perms   *PermissionService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClubService creates a new club service.
func NewClubService(
	store store.Store,
	perms *PermissionService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ClubService {
	return &ClubService{
		store:   store,
		perms:   perms,
		metrics: m,
		logger:  defaultLogger(logger),
	}
}

// ClubRequest is the payload for creating or renaming a club.
type ClubRequest struct {
	Name string `json:"name" validate:"notblank,max=255"`
}

// MemberActionResult describes the effect of a moderator action on a member.
type MemberActionResult struct {
	Outcome Outcome              `json:"outcome"`
	Reason  string               `json:"reason,omitempty"`
	Member  *domain.MemberDetail `json:"member,omitempty"`
}

// ClubAdmin is the moderator's view of a club.
type ClubAdmin struct {
	Club    *domain.BookClub        `json:"club"`
	Members []domain.MemberDetail   `json:"members"`
	Books   []domain.ClubBookDetail `json:"books"`
}

// checkName validates a club name and its derived slug against existing clubs.
// excludeID skips the club being renamed.
func (s *ClubService) checkName(ctx context.Context, club *domain.BookClub, excludeID int64) error {
	if err := validate.Validate(ClubRequest{Name: club.Name}); err != nil {
		return err
	}
	if club.Slug == "" {
		return domainerrors.FieldError("name", msgClubNameNoSlug)
	}

	taken, err := s.store.ClubNameOrSlugTaken(ctx, club.Name, club.Slug, excludeID)
	if err != nil {
		return fmt.Errorf("check club name: %w", err)
	}
	if taken {
		return domainerrors.FieldError("name", msgClubNameTaken)
	}
	return nil
}

// Create starts a new club with the caller as its first moderator.
func (s *ClubService) Create(ctx context.Context, callerID int64, name string) (*domain.BookClub, error) {
	club := domain.NewBookClub(strings.TrimSpace(name))
	if err := s.checkName(ctx, club, 0); err != nil {
		return nil, err
	}

	if _, err := s.store.CreateClub(ctx, club, callerID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent create; the UNIQUE constraints decided.
			return nil, domainerrors.FieldError("name", msgClubNameTaken).WithCause(err)
		}
		return nil, fmt.Errorf("create club: %w", err)
	}

	s.metrics.ClubEvent(metrics.ClubCreated)
	s.logger.Info("Club created",
		"club_id", club.ID,
		"slug", club.Slug,
		"created_by", callerID,
	)
	return club, nil
}

// Rename changes a club's name and slug. Moderator only.
// Links built with the old slug stop resolving.
func (s *ClubService) Rename(ctx context.Context, slug string, callerID int64, newName string) (*domain.BookClub, error) {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	oldSlug := club.Slug
	club.SetName(strings.TrimSpace(newName))
	if err := s.checkName(ctx, club, club.ID); err != nil {
		return nil, err
	}

	if err := s.store.UpdateClub(ctx, club); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("name", msgClubNameTaken).WithCause(err)
		}
		return nil, mapStoreError(err, msgClubNotFound)
	}

	s.metrics.ClubEvent(metrics.ClubRenamed)
	s.logger.Info("Club renamed",
		"club_id", club.ID,
		"old_slug", oldSlug,
		"new_slug", club.Slug,
		"renamed_by", callerID,
	)
	return club, nil
}

// Delete removes a club together with its memberships, reading list and
// invites. Books and reviews are kept. Moderator only.
func (s *ClubService) Delete(ctx context.Context, slug string, callerID int64) error {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteClub(ctx, club.ID); err != nil {
		return mapStoreError(err, msgClubNotFound)
	}

	s.metrics.ClubEvent(metrics.ClubDeleted)
	s.logger.Info("Club deleted",
		"club_id", club.ID,
		"slug", club.Slug,
		"deleted_by", callerID,
	)
	return nil
}

// Overview lists every club the caller belongs to.
func (s *ClubService) Overview(ctx context.Context, callerID int64) ([]domain.ClubMembership, error) {
	memberships, err := s.store.ListUserMemberships(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return memberships, nil
}

// Admin returns the club with its members and reading list. Moderator only.
func (s *ClubService) Admin(ctx context.Context, slug string, callerID int64) (*ClubAdmin, error) {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListClubMembers(ctx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	books, err := s.store.ListClubBooks(ctx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("list club books: %w", err)
	}

	return &ClubAdmin{Club: club, Members: members, Books: books}, nil
}

// memberDetail loads a membership of the club with its username.
func (s *ClubService) memberDetail(ctx context.Context, clubID, membershipID int64) (*domain.MemberDetail, error) {
	m, err := s.store.GetMembershipByID(ctx, clubID, membershipID)
	if err != nil {
		return nil, mapStoreError(err, msgMemberNotFound)
	}
	user, err := s.store.GetUser(ctx, m.UserID)
	if err != nil {
		return nil, mapStoreError(err, msgMemberNotFound)
	}
	return &domain.MemberDetail{Membership: *m, Username: user.Username}, nil
}

// RemoveMember removes a non-moderator from the club. Moderator only.
//
// Moderators, including the caller, are protected: the request succeeds
// with OutcomeUnchanged and nothing is deleted.
func (s *ClubService) RemoveMember(ctx context.Context, slug string, callerID, membershipID int64) (*MemberActionResult, error) {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	target, err := s.memberDetail(ctx, club.ID, membershipID)
	if err != nil {
		return nil, err
	}

	if target.IsMod {
		s.logger.Info("Member removal skipped",
			"club_id", club.ID,
			"membership_id", membershipID,
			"reason", reasonModProtected,
		)
		return &MemberActionResult{Outcome: OutcomeUnchanged, Reason: reasonModProtected, Member: target}, nil
	}

	if err := s.store.DeleteMembership(ctx, target.ID); err != nil {
		return nil, mapStoreError(err, msgMemberNotFound)
	}

	s.metrics.ClubEvent(metrics.MemberRemoved)
	s.logger.Info("Member removed",
		"club_id", club.ID,
		"user_id", target.UserID,
		"removed_by", callerID,
	)
	return &MemberActionResult{Outcome: OutcomeApplied, Member: target}, nil
}

// GrantModerator promotes a member to moderator. Moderator only.
// Promoting an existing moderator is a no-op reported as OutcomeUnchanged.
func (s *ClubService) GrantModerator(ctx context.Context, slug string, callerID, membershipID int64) (*MemberActionResult, error) {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	target, err := s.memberDetail(ctx, club.ID, membershipID)
	if err != nil {
		return nil, err
	}

	if target.IsMod {
		return &MemberActionResult{Outcome: OutcomeUnchanged, Reason: reasonAlreadyMod, Member: target}, nil
	}

	if err := s.store.SetModerator(ctx, target.ID, true); err != nil {
		return nil, mapStoreError(err, msgMemberNotFound)
	}
	target.IsMod = true

	s.metrics.ClubEvent(metrics.ModeratorGranted)
	s.logger.Info("Moderator granted",
		"club_id", club.ID,
		"user_id", target.UserID,
		"granted_by", callerID,
	)
	return &MemberActionResult{Outcome: OutcomeApplied, Member: target}, nil
}
