package api

import "github.com/buddyread/buddyread-server/internal/service"

// Services groups the business services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth    *service.AuthService
	Clubs   *service.ClubService
	Books   *service.BookService
	Reviews *service.ReviewService
	Invites *service.InviteService
	Landing *service.LandingService
}
