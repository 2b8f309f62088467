package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

var errInviteNotFound = store.ErrNotFound.WithMessage("invite not found")

// CreateInvite inserts a new invite token.
func (s *Store) CreateInvite(ctx context.Context, token *domain.InviteToken) error {
	token.CreatedAt = nowOr(token.CreatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invite_tokens (id, club_id, created_at, accepted)
		VALUES (?, ?, ?, ?)`,
		token.ID, token.ClubID, formatTime(token.CreatedAt), token.Accepted,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

// GetInvite retrieves an invite token by ID.
func (s *Store) GetInvite(ctx context.Context, id string) (*domain.InviteToken, error) {
	var (
		t         domain.InviteToken
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, club_id, created_at, accepted FROM invite_tokens WHERE id = ?`, id,
	).Scan(&t.ID, &t.ClubID, &createdAt, &t.Accepted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// ConsumeInvite accepts the token and signs up user as a regular member of
// the token's club, all in one transaction.
//
// The token is claimed with a compare-and-swap on accepted, so of two
// concurrent callers exactly one succeeds; the other gets store.ErrInviteSpent
// and no account is created. A taken username rolls back the claim.
func (s *Store) ConsumeInvite(ctx context.Context, tokenID string, user *domain.User) (*domain.Membership, error) {
	var m *domain.Membership

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE invite_tokens SET accepted = 1 WHERE id = ? AND accepted = 0`, tokenID)
		if err != nil {
			return fmt.Errorf("claim invite: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrInviteSpent
		}

		var clubID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT club_id FROM invite_tokens WHERE id = ?`, tokenID).Scan(&clubID); err != nil {
			return fmt.Errorf("load invite club: %w", err)
		}

		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		m = &domain.Membership{ClubID: clubID, UserID: user.ID, IsMod: false}
		return insertMembership(ctx, tx, m)
	})
	if err != nil {
		user.ID = 0
		return nil, err
	}

	s.logger.Debug("invite consumed", "token_id", tokenID, "user_id", user.ID, "club_id", m.ClubID)
	return m, nil
}
