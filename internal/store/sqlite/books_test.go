package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

func TestGetOrCreateBook_SharedAcrossClubs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mod := insertTestUser(t, s, "mod")
	a := insertTestClub(t, s, "Club A", mod)
	b := insertTestClub(t, s, "Club B", mod)

	first, created, err := s.GetOrCreateBook(ctx, "Dune", "Herbert")
	if err != nil {
		t.Fatalf("GetOrCreateBook: %v", err)
	}
	if !created {
		t.Error("first call should create the book")
	}
	second, created, err := s.GetOrCreateBook(ctx, "Dune", "Herbert")
	if err != nil {
		t.Fatalf("GetOrCreateBook: %v", err)
	}
	if created {
		t.Error("second call should reuse the book")
	}
	if first.ID != second.ID {
		t.Fatalf("expected same book, got %d and %d", first.ID, second.ID)
	}

	for _, c := range []*domain.BookClub{a, b} {
		if err := s.AddClubBook(ctx, &domain.ClubBook{ClubID: c.ID, BookID: first.ID, SelectedBy: mod.ID}); err != nil {
			t.Fatalf("AddClubBook: %v", err)
		}
	}

	if n := countRows(t, s, "SELECT COUNT(*) FROM books"); n != 1 {
		t.Errorf("books: got %d, want 1", n)
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM club_books WHERE book_id = ?", first.ID); n != 2 {
		t.Errorf("club_books: got %d, want 2", n)
	}
}

func TestGetOrCreateBook_AuthorDistinguishes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _, _ := s.GetOrCreateBook(ctx, "Emma", "Austen")
	b, created, err := s.GetOrCreateBook(ctx, "Emma", "Someone Else")
	if err != nil {
		t.Fatalf("GetOrCreateBook: %v", err)
	}
	if !created || a.ID == b.ID {
		t.Errorf("same title by a different author must be a new book")
	}
}

func TestListClubBooks_NewestFirstWithMemberReviews(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mod := insertTestUser(t, s, "mod")
	reader := insertTestUser(t, s, "reader")
	outsider := insertTestUser(t, s, "outsider")
	club := insertTestClub(t, s, "Bookclub", mod)
	if err := s.CreateMembership(ctx, &domain.Membership{ClubID: club.ID, UserID: reader.ID}); err != nil {
		t.Fatalf("CreateMembership: %v", err)
	}

	dune, _, _ := s.GetOrCreateBook(ctx, "Dune", "Herbert")
	emma, _, _ := s.GetOrCreateBook(ctx, "Emma", "Austen")
	base := time.Now().Add(-time.Hour)
	if err := s.AddClubBook(ctx, &domain.ClubBook{ClubID: club.ID, BookID: dune.ID, SelectedBy: mod.ID, DateAdded: base}); err != nil {
		t.Fatalf("AddClubBook: %v", err)
	}
	if err := s.AddClubBook(ctx, &domain.ClubBook{ClubID: club.ID, BookID: emma.ID, SelectedBy: reader.ID, DateAdded: base.Add(time.Minute)}); err != nil {
		t.Fatalf("AddClubBook: %v", err)
	}

	for _, r := range []*domain.Review{
		{UserID: reader.ID, BookID: dune.ID, Score: "4.5", Comment: "spice"},
		{UserID: outsider.ID, BookID: dune.ID, Score: "1"},
	} {
		if err := s.UpsertReview(ctx, r); err != nil {
			t.Fatalf("UpsertReview: %v", err)
		}
	}

	list, err := s.ListClubBooks(ctx, club.ID)
	if err != nil {
		t.Fatalf("ListClubBooks: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 books, got %d", len(list))
	}
	if list[0].Book.Title != "Emma" || list[1].Book.Title != "Dune" {
		t.Errorf("expected newest first, got %s then %s", list[0].Book.Title, list[1].Book.Title)
	}
	if list[0].SelectedByName != "reader" {
		t.Errorf("SelectedByName = %q", list[0].SelectedByName)
	}
	if len(list[0].Reviews) != 0 {
		t.Errorf("Emma should have no reviews, got %d", len(list[0].Reviews))
	}
	if len(list[1].Reviews) != 1 || list[1].Reviews[0].Username != "reader" {
		t.Fatalf("Dune should only carry the member review, got %+v", list[1].Reviews)
	}
	if list[1].Reviews[0].Stars.Half != 1 {
		t.Errorf("expected half star for 4.5, got %+v", list[1].Reviews[0].Stars)
	}
}

func TestListClubBooks_SubSecondOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mod := insertTestUser(t, s, "mod")
	club := insertTestClub(t, s, "Bookclub", mod)

	older, _, _ := s.GetOrCreateBook(ctx, "Older", "A")
	newer, _, _ := s.GetOrCreateBook(ctx, "Newer", "B")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.AddClubBook(ctx, &domain.ClubBook{ClubID: club.ID, BookID: older.ID, SelectedBy: mod.ID, DateAdded: base.Add(100 * time.Millisecond)}); err != nil {
		t.Fatalf("AddClubBook: %v", err)
	}
	if err := s.AddClubBook(ctx, &domain.ClubBook{ClubID: club.ID, BookID: newer.ID, SelectedBy: mod.ID, DateAdded: base.Add(120 * time.Millisecond)}); err != nil {
		t.Fatalf("AddClubBook: %v", err)
	}

	list, err := s.ListClubBooks(ctx, club.ID)
	if err != nil {
		t.Fatalf("ListClubBooks: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 books, got %d", len(list))
	}
	if list[0].Book.Title != "Newer" || list[1].Book.Title != "Older" {
		t.Errorf("expected Newer then Older, got %s then %s", list[0].Book.Title, list[1].Book.Title)
	}
	if !list[0].DateAdded.Equal(base.Add(120 * time.Millisecond)) {
		t.Errorf("DateAdded round trip = %v", list[0].DateAdded)
	}
}

func TestFormatTime_SortsLikeTime(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
		base.Add(time.Second),
	}
	for i := 1; i < len(times); i++ {
		a, b := formatTime(times[i-1]), formatTime(times[i])
		if a >= b {
			t.Errorf("%q should sort before %q", a, b)
		}
		if len(a) != len(b) {
			t.Errorf("width differs: %q vs %q", a, b)
		}
	}

	parsed, err := parseTime(formatTime(times[2]))
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(times[2]) {
		t.Errorf("round trip = %v, want %v", parsed, times[2])
	}
}

func TestDeleteClubBook_KeepsBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mod := insertTestUser(t, s, "mod")
	club := insertTestClub(t, s, "Bookclub", mod)
	book, _, _ := s.GetOrCreateBook(ctx, "Dune", "Herbert")

	cb := &domain.ClubBook{ClubID: club.ID, BookID: book.ID, SelectedBy: mod.ID}
	if err := s.AddClubBook(ctx, cb); err != nil {
		t.Fatalf("AddClubBook: %v", err)
	}
	if _, err := s.GetClubBook(ctx, club.ID+1, cb.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("club book scoped to another club should not resolve, got %v", err)
	}
	if err := s.DeleteClubBook(ctx, cb.ID); err != nil {
		t.Fatalf("DeleteClubBook: %v", err)
	}
	if _, err := s.GetBook(ctx, book.ID); err != nil {
		t.Errorf("book should survive: %v", err)
	}
}

func TestUpsertReview_UpdatesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := insertTestUser(t, s, "reader")
	book, _, _ := s.GetOrCreateBook(ctx, "Dune", "Herbert")

	first := &domain.Review{UserID: u.ID, BookID: book.ID, Score: "3", Comment: "ok"}
	if err := s.UpsertReview(ctx, first); err != nil {
		t.Fatalf("UpsertReview: %v", err)
	}
	second := &domain.Review{UserID: u.ID, BookID: book.ID, Score: domain.ScoreDNF, Comment: "gave up"}
	if err := s.UpsertReview(ctx, second); err != nil {
		t.Fatalf("UpsertReview: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected the same row, got %d and %d", first.ID, second.ID)
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM reviews"); n != 1 {
		t.Errorf("reviews: got %d, want 1", n)
	}
	got, err := s.GetReview(ctx, u.ID, book.ID)
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if got.Score != domain.ScoreDNF || got.Comment != "gave up" {
		t.Errorf("got %+v", got)
	}
}

func TestUpsertReview_RejectsInvalidScore(t *testing.T) {
	s := newTestStore(t)
	err := s.UpsertReview(context.Background(), &domain.Review{UserID: 1, BookID: 1, Score: "7"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
