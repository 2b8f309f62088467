package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buddyread/buddyread-server/internal/auth"
	"github.com/buddyread/buddyread-server/internal/domain"
	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/store"
)

const (
	msgUsernameTaken     = "a user with that username already exists"
	msgPasswordMismatch  = "the two password fields didn't match"
	msgCurrentPwdInvalid = "current password is incorrect"
	msgBadLogin          = "invalid username or password"
)

// AuthService handles accounts: login, token verification and credential
// changes. Session bookkeeping is delegated to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		logger:         defaultLogger(logger),
	}
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank,max=150"`
	Password string `json:"password" validate:"required,max=1024"`
}

// ChangeCredentialsRequest updates the username and optionally the password.
// An empty NewPassword keeps the current password.
type ChangeCredentialsRequest struct {
	Username          string `json:"username" validate:"notblank,max=150"`
	CurrentPassword   string `json:"current_password" validate:"required"`
	NewPassword       string `json:"new_password" validate:"max=1024"`
	NewPasswordRepeat string `json:"new_password_repeat" validate:"max=1024"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User domain.UserProfile `json:"user"`
	SessionResponse
}

// Principal is the authenticated caller behind an access token.
type Principal struct {
	UserID    int64
	Username  string
	SessionID string
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Hash anyway so response time does not reveal which usernames exist.
			_, _ = auth.HashPassword(req.Password)
			return nil, domainerrors.InvalidCredentials(msgBadLogin)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Info("Login failed", "username", req.Username, "ip", client.IPAddress)
		return nil, domainerrors.InvalidCredentials(msgBadLogin)
	}

	session, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "session_id", session.SessionID)
	return &AuthResponse{User: user.Profile(), SessionResponse: *session}, nil
}

// Refresh rotates the refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domainerrors.FieldError("refresh_token", "refresh_token is required")
	}
	session, user, err := s.sessionService.RefreshSession(ctx, refreshToken, client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user.Profile(), SessionResponse: *session}, nil
}

// Logout ends the session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken authenticates a bearer token. The token must be valid
// and its session must still exist.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired access token").WithCause(err)
	}
	if _, err := s.sessionService.ValidateSession(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	return &Principal{
		UserID:    claims.UserID,
		Username:  claims.Username,
		SessionID: claims.SessionID,
	}, nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	p := user.Profile()
	return &p, nil
}

// ChangeCredentials updates the caller's username and, when given, password.
// The current password must verify. Other sessions are ended when the
// password changes; keepSessionID stays signed in.
func (s *AuthService) ChangeCredentials(ctx context.Context, userID int64, keepSessionID string, req ChangeCredentialsRequest) (*domain.UserProfile, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return nil, domainerrors.FieldError("current_password", msgCurrentPwdInvalid)
	}
	if req.NewPassword != req.NewPasswordRepeat {
		return nil, domainerrors.FieldError("new_password_repeat", msgPasswordMismatch)
	}

	if req.Username != user.Username {
		taken, err := s.store.UsernameTaken(ctx, req.Username, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, domainerrors.FieldError("username", msgUsernameTaken)
		}
		user.Username = req.Username
	}

	passwordChanged := req.NewPassword != ""
	if passwordChanged {
		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return nil, domainerrors.FieldError("new_password", err.Error())
		}
		user.PasswordHash = hash
	}

	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("username", msgUsernameTaken).WithCause(err)
		}
		return nil, mapStoreError(err, "user not found")
	}

	if passwordChanged {
		if err := s.sessionService.DeleteUserSessions(ctx, user.ID, keepSessionID); err != nil {
			s.logger.Warn("failed to revoke sessions after password change", "user_id", user.ID, "error", err)
		}
	}

	s.logger.Info("Credentials changed",
		"user_id", user.ID,
		"password_changed", passwordChanged,
	)
	p := user.Profile()
	return &p, nil
}

// CreateUser creates an account directly. It is the operator bootstrap path
// used by buddyctl; members otherwise join through invites.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	req := LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.FieldError("password", err.Error())
	}

	user := &domain.User{Username: req.Username, PasswordHash: hash}
	user.InitTimestamps()
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("username", msgUsernameTaken).WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}
