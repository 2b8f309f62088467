package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buddyread/buddyread-server/internal/auth"
	"github.com/buddyread/buddyread-server/internal/domain"
	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/store"
)

const msgInviteExpired = "invite has expired"

// InviteService issues single-use signup links and redeems them.
//
// An invite is Issued until it is Consumed (accepted) or Expired (older than
// the TTL). Expiry is computed on read; tokens are never swept and only
// disappear with their club.
type InviteService struct {
	store          store.Store
	perms          *PermissionService
	sessionService *SessionService
	metrics        *metrics.Metrics
	logger         *slog.Logger
	baseURL        string // Base URL for generating invite links
	ttl            time.Duration
	now            Clock
}

// NewInviteService creates a new invite service.
// A non-positive ttl falls back to domain.DefaultInviteTTL.
func NewInviteService(
	store store.Store,
	perms *PermissionService,
	sessionService *SessionService,
	m *metrics.Metrics,
	logger *slog.Logger,
	baseURL string,
	ttl time.Duration,
) *InviteService {
	if ttl <= 0 {
		ttl = domain.DefaultInviteTTL
	}
	return &InviteService{
		store:          store,
		perms:          perms,
		sessionService: sessionService,
		metrics:        m,
		logger:         defaultLogger(logger),
		baseURL:        strings.TrimRight(baseURL, "/"),
		ttl:            ttl,
		now:            time.Now,
	}
}

// IssuedInvite is returned to the moderator who created the invite.
type IssuedInvite struct {
	Token     *domain.InviteToken `json:"token"`
	URL       string              `json:"url"`
	ExpiresAt time.Time           `json:"expires_at"`
	ClubName  string              `json:"club_name"`
}

// InvitePreview is the public view of a usable invite.
type InvitePreview struct {
	ClubName  string    `json:"club_name"`
	ClubSlug  string    `json:"club_slug"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupRequest is the new member's chosen credentials.
type SignupRequest struct {
	Username       string `json:"username" validate:"notblank,max=150"`
	Password       string `json:"password" validate:"required,max=1024"`
	PasswordRepeat string `json:"password_repeat" validate:"required"`
}

// SignupResponse is the new account, its membership and a login session.
type SignupResponse struct {
	User       domain.UserProfile `json:"user"`
	Membership *domain.Membership `json:"membership"`
	Club       *domain.BookClub   `json:"club"`
	SessionResponse
}

// Issue creates a new invite for the club. Moderator only.
// There is no cap on outstanding invites.
func (s *InviteService) Issue(ctx context.Context, slug string, callerID int64) (*IssuedInvite, error) {
	club, _, err := s.perms.RequireModerator(ctx, slug, callerID)
	if err != nil {
		return nil, err
	}

	token := &domain.InviteToken{
		ID:        uuid.NewString(),
		ClubID:    club.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateInvite(ctx, token); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	s.metrics.InviteEvent(metrics.InviteIssued)
	s.logger.Info("Invite issued",
		"club_id", club.ID,
		"issued_by", callerID,
		"expires_at", token.ExpiresAt(s.ttl),
	)
	return &IssuedInvite{
		Token:     token,
		URL:       s.baseURL + "/join/" + token.ID,
		ExpiresAt: token.ExpiresAt(s.ttl),
		ClubName:  club.Name,
	}, nil
}

// resolve loads a token and its club, rejecting spent or expired tokens.
func (s *InviteService) resolve(ctx context.Context, tokenID string) (*domain.InviteToken, *domain.BookClub, error) {
	if _, err := uuid.Parse(tokenID); err != nil {
		return nil, nil, domainerrors.NotFound("invite not found")
	}

	token, err := s.store.GetInvite(ctx, tokenID)
	if err != nil {
		return nil, nil, mapStoreError(err, "invite not found")
	}

	if !token.IsValid(s.now(), s.ttl) {
		s.metrics.InviteEvent(metrics.InviteRejected)
		s.logger.Info("Invite rejected",
			"club_id", token.ClubID,
			"status", token.Status(s.now(), s.ttl),
		)
		return nil, nil, domainerrors.Forbidden(msgInviteExpired)
	}

	club, err := s.store.GetClub(ctx, token.ClubID)
	if err != nil {
		return nil, nil, mapStoreError(err, msgClubNotFound)
	}
	return token, club, nil
}

// Resolve previews an invite. Returns NotFound for an unknown token and
// Forbidden once it is accepted or expired.
func (s *InviteService) Resolve(ctx context.Context, tokenID string) (*InvitePreview, error) {
	token, club, err := s.resolve(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &InvitePreview{
		ClubName:  club.Name,
		ClubSlug:  club.Slug,
		ExpiresAt: token.ExpiresAt(s.ttl),
	}, nil
}

// Consume redeems an invite: it creates the account, joins it to the club as
// a regular member and logs it in.
//
// The store claims the token with a compare-and-swap inside the same
// transaction that creates the user, so of two concurrent redemptions only
// one creates an account. The loser gets Forbidden.
func (s *InviteService) Consume(ctx context.Context, tokenID string, req SignupRequest, client ClientInfo) (*SignupResponse, error) {
	_, club, err := s.resolve(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Password != req.PasswordRepeat {
		return nil, domainerrors.FieldError("password_repeat", msgPasswordMismatch)
	}

	taken, err := s.store.UsernameTaken(ctx, req.Username, 0)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, domainerrors.FieldError("username", msgUsernameTaken)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.FieldError("password", err.Error())
	}
	user := &domain.User{Username: req.Username, PasswordHash: hash}
	user.InitTimestamps()

	membership, err := s.store.ConsumeInvite(ctx, tokenID, user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInviteSpent):
			s.metrics.InviteEvent(metrics.InviteRejected)
			return nil, domainerrors.Forbidden(msgInviteExpired).WithCause(err)
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.FieldError("username", msgUsernameTaken).WithCause(err)
		default:
			return nil, fmt.Errorf("consume invite: %w", err)
		}
	}

	s.metrics.InviteEvent(metrics.InviteConsumed)
	s.logger.Info("Invite consumed",
		"club_id", club.ID,
		"user_id", user.ID,
		"username", user.Username,
	)

	session, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	return &SignupResponse{
		User:            user.Profile(),
		Membership:      membership,
		Club:            club,
		SessionResponse: *session,
	}, nil
}
