package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

const clubColumns = `id, slug, name, created_at, updated_at`

var (
	errClubNotFound = store.ErrNotFound.WithMessage("book club not found")
	errClubExists   = store.ErrAlreadyExists.WithMessage("a book club with this name already exists")
)

func scanClub(sc scanner) (*domain.BookClub, error) {
	var (
		c                    domain.BookClub
		createdAt, updatedAt string
	)
	if err := sc.Scan(&c.ID, &c.Slug, &c.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClub inserts the club and the owner's moderator membership in one
// transaction. Returns store.ErrAlreadyExists if the name or slug is taken.
func (s *Store) CreateClub(ctx context.Context, club *domain.BookClub, ownerID int64) (*domain.Membership, error) {
	club.CreatedAt = nowOr(club.CreatedAt)
	club.UpdatedAt = nowOr(club.UpdatedAt)
	m := &domain.Membership{UserID: ownerID, IsMod: true, CreatedAt: club.CreatedAt}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO book_clubs (slug, name, created_at, updated_at)
			VALUES (?, ?, ?, ?)`,
			club.Slug, club.Name, formatTime(club.CreatedAt), formatTime(club.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errClubExists.WithCause(err)
			}
			return fmt.Errorf("insert club: %w", err)
		}
		if club.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		m.ClubID = club.ID
		return insertMembership(ctx, tx, m)
	})
	if err != nil {
		club.ID = 0
		return nil, err
	}
	return m, nil
}

// GetClub retrieves a club by ID.
func (s *Store) GetClub(ctx context.Context, id int64) (*domain.BookClub, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM book_clubs WHERE id = ?`, id)
	c, err := scanClub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errClubNotFound
	}
	return c, err
}

// GetClubBySlug retrieves a club by its current slug.
func (s *Store) GetClubBySlug(ctx context.Context, slug string) (*domain.BookClub, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM book_clubs WHERE slug = ?`, slug)
	c, err := scanClub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errClubNotFound
	}
	return c, err
}

// UpdateClub saves the club's name and slug.
func (s *Store) UpdateClub(ctx context.Context, club *domain.BookClub) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE book_clubs SET slug = ?, name = ?, updated_at = ? WHERE id = ?`,
		club.Slug, club.Name, formatTime(nowOr(club.UpdatedAt)), club.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errClubExists.WithCause(err)
		}
		return fmt.Errorf("update club: %w", err)
	}
	return requireAffected(res, errClubNotFound)
}

// DeleteClub removes the club. Memberships, club books and invite tokens
// go with it through ON DELETE CASCADE; books and reviews are untouched.
func (s *Store) DeleteClub(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM book_clubs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	return requireAffected(res, errClubNotFound)
}

// ClubNameOrSlugTaken reports whether a club other than excludeID already
// uses name or slug.
func (s *Store) ClubNameOrSlugTaken(ctx context.Context, name, slug string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM book_clubs
		WHERE (name = ? OR slug = ?) AND id != ?`,
		name, slug, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check club name: %w", err)
	}
	return n > 0, nil
}
