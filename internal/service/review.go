package service

import (
	"context"
	"log/slog"

	"github.com/buddyread/buddyread-server/internal/domain"
	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/store"
	"github.com/buddyread/buddyread-server/internal/util"
)

// ReviewService reads and writes a member's review of a book.
type ReviewService struct {
	store   store.Store
	perms   *PermissionService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, perms *PermissionService, m *metrics.Metrics, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:   store,
		perms:   perms,
		metrics: m,
		logger:  defaultLogger(logger),
	}
}

// ReviewRequest is a score with an optional comment. The comment may be
// HTML and is stored as Markdown.
type ReviewRequest struct {
	Score   string `json:"score" validate:"required,score"`
	Comment string `json:"comment" validate:"max=10000"`
}

// Get returns the caller's review of a book. Member only.
func (s *ReviewService) Get(ctx context.Context, slug string, callerID, bookID int64) (*domain.ReviewDetail, error) {
	if _, _, err := s.perms.RequireMember(ctx, slug, callerID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, mapStoreError(err, "book not found")
	}

	review, err := s.store.GetReview(ctx, callerID, bookID)
	if err != nil {
		return nil, mapStoreError(err, "review not found")
	}
	return s.detail(ctx, review)
}

// Save creates or replaces the caller's review of a book. Member only.
func (s *ReviewService) Save(ctx context.Context, slug string, callerID, bookID int64, req ReviewRequest) (*domain.ReviewDetail, error) {
	club, _, err := s.perms.RequireMember(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	score, err := domain.ParseScore(req.Score)
	if err != nil {
		return nil, domainerrors.FieldError("score", err.Error())
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, mapStoreError(err, "book not found")
	}

	review := &domain.Review{
		UserID:  callerID,
		BookID:  bookID,
		Score:   score,
		Comment: util.HTMLToMarkdown(req.Comment),
	}
	review.InitTimestamps()
	if err := s.store.UpsertReview(ctx, review); err != nil {
		return nil, mapStoreError(err, "book not found")
	}

	s.metrics.BookEvent(metrics.ReviewSaved)
	s.logger.Info("Review saved",
		"club_id", club.ID,
		"book_id", bookID,
		"user_id", callerID,
		"score", score,
	)
	return s.detail(ctx, review)
}

func (s *ReviewService) detail(ctx context.Context, review *domain.Review) (*domain.ReviewDetail, error) {
	user, err := s.store.GetUser(ctx, review.UserID)
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	return &domain.ReviewDetail{
		Review:   *review,
		Username: user.Username,
		Stars:    review.Score.Stars(),
	}, nil
}
