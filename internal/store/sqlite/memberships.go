package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

const membershipColumns = `m.id, m.club_id, m.user_id, m.is_mod, m.created_at`

var (
	errMembershipNotFound = store.ErrNotFound.WithMessage("membership not found")
	errAlreadyMember      = store.ErrAlreadyExists.WithMessage("user is already a member of this club")
)

func scanMembership(sc scanner, extra ...any) (*domain.Membership, error) {
	var (
		m         domain.Membership
		createdAt string
	)
	dest := append([]any{&m.ID, &m.ClubID, &m.UserID, &m.IsMod, &createdAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func insertMembership(ctx context.Context, db execer, m *domain.Membership) error {
	m.CreatedAt = nowOr(m.CreatedAt)

	res, err := db.ExecContext(ctx, `
		INSERT INTO memberships (club_id, user_id, is_mod, created_at)
		VALUES (?, ?, ?, ?)`,
		m.ClubID, m.UserID, m.IsMod, formatTime(m.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errAlreadyMember.WithCause(err)
		}
		return fmt.Errorf("insert membership: %w", err)
	}

	m.ID, err = res.LastInsertId()
	return err
}

// CreateMembership adds a user to a club.
// Returns store.ErrAlreadyExists if the user is already a member.
func (s *Store) CreateMembership(ctx context.Context, m *domain.Membership) error {
	return insertMembership(ctx, s.db, m)
}

// GetMembership looks up the membership binding userID to clubID.
func (s *Store) GetMembership(ctx context.Context, clubID, userID int64) (*domain.Membership, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+` FROM memberships m
		WHERE m.club_id = ? AND m.user_id = ?`, clubID, userID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errMembershipNotFound
	}
	return m, err
}

// GetMembershipByID looks up a membership by ID, scoped to clubID so IDs from
// other clubs resolve as not found.
func (s *Store) GetMembershipByID(ctx context.Context, clubID, membershipID int64) (*domain.Membership, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+` FROM memberships m
		WHERE m.club_id = ? AND m.id = ?`, clubID, membershipID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errMembershipNotFound
	}
	return m, err
}

// ListClubMembers returns the club's members with usernames, moderators first.
func (s *Store) ListClubMembers(ctx context.Context, clubID int64) ([]domain.MemberDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+membershipColumns+`, u.username
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = ?
		ORDER BY m.is_mod DESC, u.username COLLATE NOCASE`, clubID)
	if err != nil {
		return nil, fmt.Errorf("list club members: %w", err)
	}
	defer rows.Close()

	var members []domain.MemberDetail
	for rows.Next() {
		var username string
		m, err := scanMembership(rows, &username)
		if err != nil {
			return nil, err
		}
		members = append(members, domain.MemberDetail{Membership: *m, Username: username})
	}
	return members, rows.Err()
}

// ListUserMemberships returns every club the user belongs to, ordered by club name.
func (s *Store) ListUserMemberships(ctx context.Context, userID int64) ([]domain.ClubMembership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+membershipColumns+`,
			c.id, c.slug, c.name, c.created_at, c.updated_at
		FROM memberships m
		JOIN book_clubs c ON c.id = m.club_id
		WHERE m.user_id = ?
		ORDER BY c.name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user memberships: %w", err)
	}
	defer rows.Close()

	var out []domain.ClubMembership
	for rows.Next() {
		var (
			c                    domain.BookClub
			createdAt, updatedAt string
		)
		m, err := scanMembership(rows, &c.ID, &c.Slug, &c.Name, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, domain.ClubMembership{Membership: *m, Club: c})
	}
	return out, rows.Err()
}

// SetModerator sets or clears the moderator flag.
func (s *Store) SetModerator(ctx context.Context, membershipID int64, isMod bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memberships SET is_mod = ? WHERE id = ?`, isMod, membershipID)
	if err != nil {
		return fmt.Errorf("set moderator: %w", err)
	}
	return requireAffected(res, errMembershipNotFound)
}

// DeleteMembership removes a user from a club.
func (s *Store) DeleteMembership(ctx context.Context, membershipID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = ?`, membershipID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return requireAffected(res, errMembershipNotFound)
}
