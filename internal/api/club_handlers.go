package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/service"
)

func (s *Server) registerClubRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listClubs",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/clubs",
		Summary:     "List my clubs",
		Description: "Returns every club the caller belongs to, with the caller's role in each",
		Tags:        []string{tagClubs},
		Security:    bearerSecurity,
	}, s.handleListClubs)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createClub",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/clubs",
		Summary:       "Create club",
		Description:   "Creates a club with the caller as its first moderator",
		Tags:          []string{tagClubs},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameClub",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/clubs/{slug}",
		Summary:     "Rename club",
		Description: "Renames the club and moves it to the new slug. Moderators only.",
		Tags:        []string{tagClubs},
		Security:    bearerSecurity,
	}, s.handleRenameClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteClub",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/clubs/{slug}",
		Summary:     "Delete club",
		Description: "Deletes the club with its memberships, reading list and invites. Books and reviews are kept. Moderators only.",
		Tags:        []string{tagClubs},
		Security:    bearerSecurity,
	}, s.handleDeleteClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "getClubAdmin",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/clubs/{slug}/admin",
		Summary:     "Club admin view",
		Description: "Returns the club's members and reading list. Moderators only.",
		Tags:        []string{tagClubs},
		Security:    bearerSecurity,
	}, s.handleClubAdmin)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeMember",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/clubs/{slug}/members/{memberID}",
		Summary:     "Remove member",
		Description: "Removes a regular member. Moderators cannot be removed; that request succeeds with outcome \"unchanged\".",
		Tags:        []string{tagClubs},
		Security:    bearerSecurity,
	}, s.handleRemoveMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "grantModerator",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/clubs/{slug}/members/{memberID}/moderator",
		Summary:     "Grant moderator",
		Description: "Makes a member a moderator. Granting twice is a no-op.",
		Tags:        []string{tagClubs},
		Security:    bearerSecurity,
	}, s.handleGrantModerator)
}

// === DTOs ===

// ClubPathInput identifies a club by slug.
type ClubPathInput struct {
	Slug string `path:"slug" doc:"Club slug"`
}

// ClubNameRequest carries a club name.
type ClubNameRequest struct {
	Name string `json:"name" required:"false" doc:"Club name; the slug is derived from it"`
}

// CreateClubInput wraps the create request for Huma.
type CreateClubInput struct {
	Body ClubNameRequest
}

// RenameClubInput wraps the rename request for Huma.
type RenameClubInput struct {
	Slug string `path:"slug" doc:"Current club slug"`
	Body ClubNameRequest
}

// ClubResponse is a club plus a navigation hint.
type ClubResponse struct {
	Club *domain.BookClub `json:"club" doc:"The club"`
	Next string           `json:"next" doc:"Where the client should go next"`
}

// ClubOutput wraps a club for Huma.
type ClubOutput struct {
	Body ClubResponse
}

// ClubListOutput wraps the caller's clubs for Huma.
type ClubListOutput struct {
	Body struct {
		Clubs []domain.ClubMembership `json:"clubs" doc:"Clubs with the caller's membership"`
	}
}

// ClubAdminOutput wraps the admin view for Huma.
type ClubAdminOutput struct {
	Body *service.ClubAdmin
}

// MemberPathInput identifies a membership within a club.
type MemberPathInput struct {
	Slug     string `path:"slug" doc:"Club slug"`
	MemberID int64  `path:"memberID" doc:"Membership ID"`
}

// MemberActionResponse reports the outcome of a moderator action.
type MemberActionResponse struct {
	Outcome service.Outcome      `json:"outcome" enum:"applied,unchanged" doc:"Whether the action changed anything"`
	Reason  string               `json:"reason,omitempty" doc:"Why nothing changed"`
	Member  *domain.MemberDetail `json:"member,omitempty" doc:"The affected member"`
	Next    string               `json:"next" doc:"Where the client should go next"`
}

func mapMemberAction(result *service.MemberActionResult, slug string) MemberActionResponse {
	return MemberActionResponse{
		Outcome: result.Outcome,
		Reason:  result.Reason,
		Member:  result.Member,
		Next:    clubAdminPath(slug),
	}
}

// MemberActionOutput wraps a member action result for Huma.
type MemberActionOutput struct {
	Body MemberActionResponse
}

// === Handlers ===

func (s *Server) handleListClubs(ctx context.Context, _ *struct{}) (*ClubListOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	clubs, err := s.services.Clubs.Overview(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if clubs == nil {
		clubs = []domain.ClubMembership{}
	}

	out := &ClubListOutput{}
	out.Body.Clubs = clubs
	return out, nil
}

func (s *Server) handleCreateClub(ctx context.Context, input *CreateClubInput) (*ClubOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	club, err := s.services.Clubs.Create(ctx, principal.UserID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &ClubOutput{Body: ClubResponse{Club: club, Next: clubBooksPath(club.Slug)}}, nil
}

func (s *Server) handleRenameClub(ctx context.Context, input *RenameClubInput) (*ClubOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	club, err := s.services.Clubs.Rename(ctx, input.Slug, principal.UserID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &ClubOutput{Body: ClubResponse{Club: club, Next: clubAdminPath(club.Slug)}}, nil
}

func (s *Server) handleDeleteClub(ctx context.Context, input *ClubPathInput) (*MessageOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Clubs.Delete(ctx, input.Slug, principal.UserID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Club deleted", Next: homePath()}}, nil
}

func (s *Server) handleClubAdmin(ctx context.Context, input *ClubPathInput) (*ClubAdminOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	admin, err := s.services.Clubs.Admin(ctx, input.Slug, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &ClubAdminOutput{Body: admin}, nil
}

func (s *Server) handleRemoveMember(ctx context.Context, input *MemberPathInput) (*MemberActionOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Clubs.RemoveMember(ctx, input.Slug, principal.UserID, input.MemberID)
	if err != nil {
		return nil, err
	}
	return &MemberActionOutput{Body: mapMemberAction(result, input.Slug)}, nil
}

func (s *Server) handleGrantModerator(ctx context.Context, input *MemberPathInput) (*MemberActionOutput, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Clubs.GrantModerator(ctx, input.Slug, principal.UserID, input.MemberID)
	if err != nil {
		return nil, err
	}
	return &MemberActionOutput{Body: mapMemberAction(result, input.Slug)}, nil
}
