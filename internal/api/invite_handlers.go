package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/service"
)

func (s *Server) registerInviteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "issueInvite",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/clubs/{slug}/invites",
		Summary:       "Issue invite",
		Description:   "Creates a single-use invite link for the club. Moderators only.",
		Tags:          []string{tagInvites},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleIssueInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInvite",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/invites/{token}",
		Summary:     "Resolve invite",
		Description: "Returns the club an invite leads to. Used or expired invites answer 403.",
		Tags:        []string{tagInvites},
	}, s.handleGetInvite)

	huma.Register(s.api, huma.Operation{
		OperationID:   "claimInvite",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/invites/{token}/claim",
		Summary:       "Claim invite",
		Description:   "Creates an account, joins the invite's club and signs the new user in. Each invite works once.",
		Tags:          []string{tagInvites},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimited(s.claimLimiter)},
	}, s.handleClaimInvite)
}

// === DTOs ===

// InviteTokenInput identifies an invite.
type InviteTokenInput struct {
	Token string `path:"token" doc:"Invite token"`
}

// IssueInviteOutput wraps an issued invite for Huma.
type IssueInviteOutput struct {
	Body *service.IssuedInvite
}

// InvitePreviewOutput wraps an invite preview for Huma.
type InvitePreviewOutput struct {
	Body *service.InvitePreview
}

// ClaimInviteRequest is the request body for claiming an invite.
type ClaimInviteRequest struct {
	Username       string `json:"username" required:"false" doc:"New username"`
	Password       string `json:"password" required:"false" doc:"New password"`
	PasswordRepeat string `json:"password_repeat" required:"false" doc:"Password again"`
}

// ClaimInviteInput wraps the claim request for Huma.
type ClaimInviteInput struct {
	Token string `path:"token" doc:"Invite token"`
	Body  ClaimInviteRequest
}

// ClaimInviteResponse signs the new member in.
type ClaimInviteResponse struct {
	AuthResponse
	Club       *domain.BookClub   `json:"club" doc:"The club joined"`
	Membership *domain.Membership `json:"membership" doc:"The new membership"`
}

// ClaimInviteOutput wraps the claim response for Huma.
type ClaimInviteOutput struct {
	Body ClaimInviteResponse
}

// === Handlers ===

func (s *Server) handleIssueInvite(ctx context.Context, input *ClubPathInput) (*IssueInviteOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	issued, err := s.services.Invites.Issue(ctx, input.Slug, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &IssueInviteOutput{Body: issued}, nil
}

func (s *Server) handleGetInvite(ctx context.Context, input *InviteTokenInput) (*InvitePreviewOutput, error) {
	preview, err := s.services.Invites.Resolve(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	return &InvitePreviewOutput{Body: preview}, nil
}

func (s *Server) handleClaimInvite(ctx context.Context, input *ClaimInviteInput) (*ClaimInviteOutput, error) {
	resp, err := s.services.Invites.Consume(ctx, input.Token, service.SignupRequest{
		Username:       input.Body.Username,
		Password:       input.Body.Password,
		PasswordRepeat: input.Body.PasswordRepeat,
	}, clientInfo(ctx))
	if err != nil {
		return nil, err
	}

	body := ClaimInviteResponse{
		AuthResponse: mapAuthResponse(resp.User, &resp.SessionResponse),
		Club:         resp.Club,
		Membership:   resp.Membership,
	}
	body.Next = clubBooksPath(resp.Club.Slug)
	return &ClaimInviteOutput{Body: body}, nil
}
