package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

const reviewColumns = `r.id, r.user_id, r.book_id, r.score, r.comment, r.created_at, r.updated_at`

var errReviewNotFound = store.ErrNotFound.WithMessage("review not found")

func scanReview(sc scanner, extra ...any) (*domain.Review, error) {
	var (
		r                    domain.Review
		score                string
		createdAt, updatedAt string
	)
	dest := append([]any{&r.ID, &r.UserID, &r.BookID, &score, &r.Comment, &createdAt, &updatedAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	r.Score = domain.Score(score)

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReview returns the user's review of a book.
func (s *Store) GetReview(ctx context.Context, userID, bookID int64) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews r
		WHERE r.user_id = ? AND r.book_id = ?`, userID, bookID)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errReviewNotFound
	}
	return r, err
}

// UpsertReview creates the user's review of a book or overwrites the score
// and comment of the existing one. review is refreshed from the stored row.
func (s *Store) UpsertReview(ctx context.Context, review *domain.Review) error {
	if !review.Score.Valid() {
		return store.ErrInvalidInput.WithMessage(fmt.Sprintf("invalid score %q", review.Score))
	}
	now := formatTime(nowOr(review.UpdatedAt))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (user_id, book_id, score, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			score = excluded.score,
			comment = excluded.comment,
			updated_at = excluded.updated_at`,
		review.UserID, review.BookID, string(review.Score), review.Comment, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}

	saved, err := s.GetReview(ctx, review.UserID, review.BookID)
	if err != nil {
		return err
	}
	*review = *saved
	return nil
}
