package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getReview",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/clubs/{slug}/books/{bookID}/review",
		Summary:     "Get my review",
		Description: "Returns the caller's review of a book. Members only.",
		Tags:        []string{tagReviews},
		Security:    bearerSecurity,
	}, s.handleGetReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveReview",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/clubs/{slug}/books/{bookID}/review",
		Summary:     "Save my review",
		Description: "Creates or replaces the caller's review. HTML comments are stored as Markdown. Members only.",
		Tags:        []string{tagReviews},
		Security:    bearerSecurity,
	}, s.handleSaveReview)
}

// ReviewPathInput identifies a book within a club.
type ReviewPathInput struct {
	Slug   string `path:"slug" doc:"Club slug"`
	BookID int64  `path:"bookID" doc:"Catalog book ID"`
}

// SaveReviewRequest is the request body for saving a review.
type SaveReviewRequest struct {
	Score   string `json:"score" required:"false" doc:"1 to 5 in half steps, or dnf"`
	Comment string `json:"comment,omitempty" doc:"Free text; HTML is converted to Markdown"`
}

// SaveReviewInput wraps the review for Huma.
type SaveReviewInput struct {
	Slug   string `path:"slug" doc:"Club slug"`
	BookID int64  `path:"bookID" doc:"Catalog book ID"`
	Body   SaveReviewRequest
}

// ReviewResponse is a review plus a navigation hint.
type ReviewResponse struct {
	Review *domain.ReviewDetail `json:"review" doc:"The review"`
	Next   string               `json:"next,omitempty" doc:"Where the client should go next"`
}

// ReviewOutput wraps a review for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

func (s *Server) handleGetReview(ctx context.Context, input *ReviewPathInput) (*ReviewOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.Get(ctx, input.Slug, principal.UserID, input.BookID)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: ReviewResponse{Review: review}}, nil
}

func (s *Server) handleSaveReview(ctx context.Context, input *SaveReviewInput) (*ReviewOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.Save(ctx, input.Slug, principal.UserID, input.BookID, service.ReviewRequest{
		Score:   input.Body.Score,
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: ReviewResponse{Review: review, Next: clubBooksPath(input.Slug)}}, nil
}
