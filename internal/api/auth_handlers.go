package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{tagAuth},
		Middlewares: huma.Middlewares{s.rateLimited(s.loginLimiter)},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens. The presented refresh token stops working.",
		Tags:        []string{tagAuth},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/auth/logout",
		Summary:     "Logout",
		Description: "Ends the session behind the access token",
		Tags:        []string{tagAuth},
		Security:    bearerSecurity,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{tagAuth},
		Security:    bearerSecurity,
	}, s.handleMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeCredentials",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/auth/credentials",
		Summary:     "Change username or password",
		Description: "Updates the username and optionally the password. Changing the password ends every other session.",
		Tags:        []string{tagAuth},
		Security:    bearerSecurity,
	}, s.handleChangeCredentials)

	huma.Register(s.api, huma.Operation{
		OperationID: "home",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/home",
		Summary:     "Landing decision",
		Description: "Tells the client where to start: create a club, the only club's books, or the club picker",
		Tags:        []string{tagAuth},
		Security:    bearerSecurity,
	}, s.handleHome)
}

// === DTOs ===

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" doc:"Username"`
	Password string `json:"password" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body RefreshRequest
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string             `json:"access_token" doc:"PASETO access token"`
	RefreshToken string             `json:"refresh_token" doc:"Refresh token"`
	SessionID    string             `json:"session_id" doc:"Session identifier"`
	TokenType    string             `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int                `json:"expires_in" doc:"Token expiry in seconds"`
	User         domain.UserProfile `json:"user" doc:"Authenticated user"`
	Next         string             `json:"next,omitempty" doc:"Where the client should go next"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// ChangeCredentialsRequest is the request body for credential changes.
type ChangeCredentialsRequest struct {
	Username          string `json:"username" doc:"New or unchanged username"`
	CurrentPassword   string `json:"current_password" doc:"Current password, always required"`
	NewPassword       string `json:"new_password,omitempty" doc:"New password; empty keeps the current one"`
	NewPasswordRepeat string `json:"new_password_repeat,omitempty" doc:"New password again"`
}

// ChangeCredentialsInput wraps the credential change for Huma.
type ChangeCredentialsInput struct {
	Body ChangeCredentialsRequest
}

// UserOutput wraps a user profile for Huma.
type UserOutput struct {
	Body domain.UserProfile
}

// HomeResponse is the landing decision.
type HomeResponse struct {
	Landing  domain.Landing `json:"landing" enum:"add_club,club_books,choose_club" doc:"Landing decision"`
	ClubSlug string         `json:"club_slug,omitempty" doc:"The only club, when landing is club_books"`
	Next     string         `json:"next" doc:"Path of the resource to show"`
}

// HomeOutput wraps the landing decision for Huma.
type HomeOutput struct {
	Body HomeResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
	Next    string `json:"next,omitempty" doc:"Where the client should go next"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
	}, clientInfo(ctx))
	if err != nil {
		return nil, err
	}

	body := mapAuthResponse(resp.User, &resp.SessionResponse)
	if landing, err := s.services.Landing.Resolve(ctx, resp.User.ID); err == nil {
		body.Next = landingPath(landing)
	}
	return &AuthOutput{Body: body}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Refresh(ctx, input.Body.RefreshToken, clientInfo(ctx))
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp.User, &resp.SessionResponse)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Auth.Logout(ctx, principal.SessionID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Logged out"}}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.services.Auth.Me(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: *profile}, nil
}

func (s *Server) handleChangeCredentials(ctx context.Context, input *ChangeCredentialsInput) (*UserOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Auth.ChangeCredentials(ctx, principal.UserID, principal.SessionID, service.ChangeCredentialsRequest{
		Username:          input.Body.Username,
		CurrentPassword:   input.Body.CurrentPassword,
		NewPassword:       input.Body.NewPassword,
		NewPasswordRepeat: input.Body.NewPasswordRepeat,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: *profile}, nil
}

func (s *Server) handleHome(ctx context.Context, _ *struct{}) (*HomeOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	landing, err := s.services.Landing.Resolve(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &HomeOutput{Body: HomeResponse{
		Landing:  landing.Next,
		ClubSlug: landing.ClubSlug,
		Next:     landingPath(landing),
	}}, nil
}

// mapAuthResponse converts service types to the API response.
func mapAuthResponse(user domain.UserProfile, session *service.SessionResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		SessionID:    session.SessionID,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		User:         user,
	}
}
