package api

import (
	"net/url"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/service"
)

// Navigation hints. Where a browser flow would redirect, responses carry
// the path of the resource the client should show next.

func clubsPath() string {
	return apiPrefix + "/clubs"
}

func clubBooksPath(slug string) string {
	return apiPrefix + "/clubs/" + url.PathEscape(slug) + "/books"
}

func clubAdminPath(slug string) string {
	return apiPrefix + "/clubs/" + url.PathEscape(slug) + "/admin"
}

func homePath() string {
	return apiPrefix + "/home"
}

// landingPath maps a landing decision to the path the client opens.
func landingPath(l *service.Landing) string {
	if l.Next == domain.LandingClubBooks {
		return clubBooksPath(l.ClubSlug)
	}
	return clubsPath()
}
