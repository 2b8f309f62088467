package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

const bookColumns = `id, title, author, created_at`

var (
	errBookNotFound     = store.ErrNotFound.WithMessage("book not found")
	errClubBookNotFound = store.ErrNotFound.WithMessage("book is not on this club's list")
)

func scanBook(sc scanner, extra ...any) (*domain.Book, error) {
	var (
		b         domain.Book
		createdAt string
	)
	dest := append([]any{&b.ID, &b.Title, &b.Author, &createdAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetOrCreateBook returns the book identified by (title, author), inserting
// it if needed. The bool result reports whether this call created it.
// Concurrent callers converge on the same row via the UNIQUE constraint.
func (s *Store) GetOrCreateBook(ctx context.Context, title, author string) (*domain.Book, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO books (title, author, created_at) VALUES (?, ?, ?)
		ON CONFLICT (title, author) DO NOTHING`,
		title, author, formatTime(time.Now()),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title = ? AND author = ?`, title, author)
	b, err := scanBook(row)
	if err != nil {
		return nil, false, fmt.Errorf("select book: %w", err)
	}
	return b, n > 0, nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errBookNotFound
	}
	return b, err
}

// ListBooks returns the whole catalog ordered by ID.
func (s *Store) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// AddClubBook puts a book on a club's reading list.
func (s *Store) AddClubBook(ctx context.Context, cb *domain.ClubBook) error {
	cb.DateAdded = nowOr(cb.DateAdded)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO club_books (club_id, book_id, selected_by, date_added)
		VALUES (?, ?, ?, ?)`,
		cb.ClubID, cb.BookID, cb.SelectedBy, formatTime(cb.DateAdded),
	)
	if err != nil {
		return fmt.Errorf("insert club book: %w", err)
	}
	cb.ID, err = res.LastInsertId()
	return err
}

// GetClubBook looks up a reading-list entry scoped to clubID.
func (s *Store) GetClubBook(ctx context.Context, clubID, clubBookID int64) (*domain.ClubBook, error) {
	var (
		cb        domain.ClubBook
		dateAdded string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, club_id, book_id, selected_by, date_added
		FROM club_books WHERE club_id = ? AND id = ?`, clubID, clubBookID,
	).Scan(&cb.ID, &cb.ClubID, &cb.BookID, &cb.SelectedBy, &dateAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errClubBookNotFound
	}
	if err != nil {
		return nil, err
	}
	if cb.DateAdded, err = parseTime(dateAdded); err != nil {
		return nil, err
	}
	return &cb, nil
}

// ListClubBooks returns the club's reading list, newest first. Each entry
// carries only the reviews written by users who are currently members.
func (s *Store) ListClubBooks(ctx context.Context, clubID int64) ([]domain.ClubBookDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cb.id, cb.club_id, cb.book_id, cb.selected_by, cb.date_added, u.username,
			b.id, b.title, b.author, b.created_at
		FROM club_books cb
		JOIN books b ON b.id = cb.book_id
		JOIN users u ON u.id = cb.selected_by
		WHERE cb.club_id = ?
		ORDER BY cb.date_added DESC, cb.id DESC`, clubID)
	if err != nil {
		return nil, fmt.Errorf("list club books: %w", err)
	}
	defer rows.Close()

	var (
		out     []domain.ClubBookDetail
		bookIDs []any
		seen    = make(map[int64]bool)
	)
	for rows.Next() {
		var (
			d         domain.ClubBookDetail
			dateAdded string
			createdAt string
		)
		err := rows.Scan(&d.ID, &d.ClubID, &d.BookID, &d.SelectedBy, &dateAdded, &d.SelectedByName,
			&d.Book.ID, &d.Book.Title, &d.Book.Author, &createdAt)
		if err != nil {
			return nil, err
		}
		if d.DateAdded, err = parseTime(dateAdded); err != nil {
			return nil, err
		}
		if d.Book.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		d.Reviews = []domain.ReviewDetail{}
		out = append(out, d)

		if !seen[d.BookID] {
			seen[d.BookID] = true
			bookIDs = append(bookIDs, d.BookID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookIDs) == 0 {
		return out, nil
	}

	reviews, err := s.memberReviews(ctx, clubID, bookIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if r, ok := reviews[out[i].BookID]; ok {
			out[i].Reviews = r
		}
	}
	return out, nil
}

// memberReviews loads reviews of bookIDs written by current members of clubID.
func (s *Store) memberReviews(ctx context.Context, clubID int64, bookIDs []any) (map[int64][]domain.ReviewDetail, error) {
	args := append([]any{clubID}, bookIDs...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`, u.username
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN memberships m ON m.user_id = r.user_id AND m.club_id = ?
		WHERE r.book_id IN (`+placeholders(len(bookIDs))+`)
		ORDER BY r.updated_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list member reviews: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.ReviewDetail)
	for rows.Next() {
		var username string
		r, err := scanReview(rows, &username)
		if err != nil {
			return nil, err
		}
		out[r.BookID] = append(out[r.BookID], domain.ReviewDetail{
			Review:   *r,
			Username: username,
			Stars:    r.Score.Stars(),
		})
	}
	return out, rows.Err()
}

// DeleteClubBook removes an entry from a reading list. The book itself stays.
func (s *Store) DeleteClubBook(ctx context.Context, clubBookID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM club_books WHERE id = ?`, clubBookID)
	if err != nil {
		return fmt.Errorf("delete club book: %w", err)
	}
	return requireAffected(res, errClubBookNotFound)
}
