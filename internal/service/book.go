package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/search"
	"github.com/buddyread/buddyread-server/internal/store"
)

const msgClubBookNotFound = "book not found in this book club"

// BookSearcher runs full-text queries over the book catalog.
type BookSearcher interface {
	Search(ctx context.Context, q string, limit int) (*search.Result, error)
}

// BookService manages club reading lists and the shared book catalog.
type BookService struct {
	store    store.Store
	perms    *PermissionService
	indexer  store.SearchIndexer
	searcher BookSearcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewBookService creates a new book service.
// indexer and searcher may be nil when search is disabled.
func NewBookService(
	store store.Store,
	perms *PermissionService,
	indexer store.SearchIndexer,
	searcher BookSearcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BookService {
	if indexer == nil {
		indexer = storeNoopIndexer
	}
	return &BookService{
		store:    store,
		perms:    perms,
		indexer:  indexer,
		searcher: searcher,
		metrics:  m,
		logger:   defaultLogger(logger),
	}
}

var storeNoopIndexer store.SearchIndexer = store.NoopSearchIndexer{}

// AddBookRequest identifies a book by title and author.
type AddBookRequest struct {
	Title  string `json:"title" validate:"notblank,max=255"`
	Author string `json:"author" validate:"notblank,max=255"`
}

// ClubBooks is a club's reading list together with the caller's other clubs.
type ClubBooks struct {
	Club       *domain.BookClub        `json:"club"`
	Membership *domain.Membership      `json:"membership"`
	Books      []domain.ClubBookDetail `json:"books"`
	OtherClubs []domain.BookClub       `json:"other_clubs"`
}

// AddToClub puts a book on the club's reading list, creating the catalog
// entry on first use. Member only.
func (s *BookService) AddToClub(ctx context.Context, slug string, callerID int64, req AddBookRequest) (*domain.ClubBookDetail, error) {
	club, _, err := s.perms.RequireMember(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, created, err := s.store.GetOrCreateBook(ctx, req.Title, req.Author)
	if err != nil {
		return nil, fmt.Errorf("get or create book: %w", err)
	}

	cb := &domain.ClubBook{
		ClubID:     club.ID,
		BookID:     book.ID,
		SelectedBy: callerID,
	}
	if err := s.store.AddClubBook(ctx, cb); err != nil {
		return nil, mapStoreError(err, msgClubNotFound)
	}

	if created {
		// The reindex job repairs a missed document, so this is not fatal.
		if err := s.indexer.IndexBook(ctx, book); err != nil {
			s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
		}
	}

	s.metrics.BookEvent(metrics.BookAdded)
	s.logger.Info("Book added to club",
		"club_id", club.ID,
		"book_id", book.ID,
		"new_book", created,
		"selected_by", callerID,
	)
	return &domain.ClubBookDetail{ClubBook: *cb, Book: *book}, nil
}

// ListClubBooks returns the club's reading list, newest first, each with the
// reviews of current members. Member only.
func (s *BookService) ListClubBooks(ctx context.Context, slug string, callerID int64) (*ClubBooks, error) {
	club, membership, err := s.perms.RequireMember(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	books, err := s.store.ListClubBooks(ctx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("list club books: %w", err)
	}

	memberships, err := s.store.ListUserMemberships(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	others := make([]domain.BookClub, 0, len(memberships))
	for _, m := range memberships {
		if m.ClubID != club.ID {
			others = append(others, m.Club)
		}
	}

	return &ClubBooks{
		Club:       club,
		Membership: membership,
		Books:      books,
		OtherClubs: others,
	}, nil
}

// RemoveFromClub takes a book off the club's reading list. The book and its
// reviews stay in the catalog. Moderator only.
func (s *BookService) RemoveFromClub(ctx context.Context, slug string, callerID, clubBookID int64) error {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return err
	}

	cb, err := s.store.GetClubBook(ctx, club.ID, clubBookID)
	if err != nil {
		return mapStoreError(err, msgClubBookNotFound)
	}
	if err := s.store.DeleteClubBook(ctx, cb.ID); err != nil {
		return mapStoreError(err, msgClubBookNotFound)
	}

	s.metrics.BookEvent(metrics.BookRemoved)
	s.logger.Info("Book removed from club",
		"club_id", club.ID,
		"club_book_id", cb.ID,
		"book_id", cb.BookID,
		"removed_by", callerID,
	)
	return nil
}

// Search queries the shared catalog. Any signed-in user may search.
func (s *BookService) Search(ctx context.Context, callerID int64, q string, limit int) (*search.Result, error) {
	if s.searcher == nil {
		return &search.Result{Query: q, Hits: []search.Hit{}}, nil
	}

	res, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	s.logger.Debug("Book search",
		"user_id", callerID,
		"query", q,
		"hits", len(res.Hits),
	)
	return res, nil
}
