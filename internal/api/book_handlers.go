package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/search"
	"github.com/buddyread/buddyread-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listClubBooks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/clubs/{slug}/books",
		Summary:     "Club reading list",
		Description: "Returns the club's books, newest first, with the reviews of current members. Members only.",
		Tags:        []string{tagBooks},
		Security:    bearerSecurity,
	}, s.handleListClubBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addClubBook",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/clubs/{slug}/books",
		Summary:       "Add book to club",
		Description:   "Adds a book to the reading list. A (title, author) pair already in the catalog is reused. Members only.",
		Tags:          []string{tagBooks},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddClubBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeClubBook",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/clubs/{slug}/books/{clubBookID}",
		Summary:     "Remove book from club",
		Description: "Removes a reading-list entry. The catalog book and its reviews are kept. Moderators only.",
		Tags:        []string{tagBooks},
		Security:    bearerSecurity,
	}, s.handleRemoveClubBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/search",
		Summary:     "Search the catalog",
		Description: "Full-text search over book titles and authors",
		Tags:        []string{tagBooks},
		Security:    bearerSecurity,
	}, s.handleSearchBooks)
}

// === DTOs ===

// ClubBooksOutput wraps the reading list for Huma.
type ClubBooksOutput struct {
	Body *service.ClubBooks
}

// AddClubBookRequest is the request body for adding a book.
type AddClubBookRequest struct {
	Title  string `json:"title" required:"false" doc:"Book title"`
	Author string `json:"author" required:"false" doc:"Book author"`
}

// AddClubBookInput wraps the add request for Huma.
type AddClubBookInput struct {
	Slug string `path:"slug" doc:"Club slug"`
	Body AddClubBookRequest
}

// ClubBookResponse is a reading-list entry plus a navigation hint.
type ClubBookResponse struct {
	ClubBook *domain.ClubBookDetail `json:"club_book" doc:"The new reading-list entry"`
	Next     string                 `json:"next" doc:"Where the client should go next"`
}

// ClubBookOutput wraps a reading-list entry for Huma.
type ClubBookOutput struct {
	Body ClubBookResponse
}

// ClubBookPathInput identifies a reading-list entry.
type ClubBookPathInput struct {
	Slug       string `path:"slug" doc:"Club slug"`
	ClubBookID int64  `path:"clubBookID" doc:"Reading-list entry ID"`
}

// SearchBooksInput holds the search query parameters.
type SearchBooksInput struct {
	Query string `query:"q" doc:"Search text; empty lists the newest books"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Maximum hits"`
}

// SearchBooksOutput wraps search results for Huma.
type SearchBooksOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleListClubBooks(ctx context.Context, input *ClubPathInput) (*ClubBooksOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Books.ListClubBooks(ctx, input.Slug, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &ClubBooksOutput{Body: books}, nil
}

func (s *Server) handleAddClubBook(ctx context.Context, input *AddClubBookInput) (*ClubBookOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	added, err := s.services.Books.AddToClub(ctx, input.Slug, principal.UserID, service.AddBookRequest{
		Title:  input.Body.Title,
		Author: input.Body.Author,
	})
	if err != nil {
		return nil, err
	}
	return &ClubBookOutput{Body: ClubBookResponse{ClubBook: added, Next: clubBooksPath(input.Slug)}}, nil
}

func (s *Server) handleRemoveClubBook(ctx context.Context, input *ClubBookPathInput) (*MessageOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Books.RemoveFromClub(ctx, input.Slug, principal.UserID, input.ClubBookID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Book removed from club", Next: clubAdminPath(input.Slug)}}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Books.Search(ctx, principal.UserID, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchBooksOutput{Body: result}, nil
}
