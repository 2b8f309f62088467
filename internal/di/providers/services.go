package providers

import (
	"github.com/samber/do/v2"

	"github.com/buddyread/buddyread-server/internal/auth"
	"github.com/buddyread/buddyread-server/internal/config"
	"github.com/buddyread/buddyread-server/internal/logger"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/service"
)

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvidePermissionService provides the club permission checks.
func ProvidePermissionService(i do.Injector) (*service.PermissionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewPermissionService(storeHandle.Store), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	sessionsHandle := do.MustInvoke[*SessionStoreHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(sessionsHandle.Store, storeHandle.Store, tokenService, log.Component("sessions")), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Component("auth")), nil
}

// ProvideClubService provides the club lifecycle service.
func ProvideClubService(i do.Injector) (*service.ClubService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	perms := do.MustInvoke[*service.PermissionService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewClubService(storeHandle.Store, perms, m, log.Component("clubs")), nil
}

// ProvideBookService provides the reading list service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	perms := do.MustInvoke[*service.PermissionService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(
		storeHandle.Store,
		perms,
		indexHandle.Index,
		indexHandle.Index,
		m,
		log.Component("books"),
	), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	perms := do.MustInvoke[*service.PermissionService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, perms, m, log.Component("reviews")), nil
}

// ProvideInviteService provides the invite service.
func ProvideInviteService(i do.Injector) (*service.InviteService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	perms := do.MustInvoke[*service.PermissionService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInviteService(
		storeHandle.Store,
		perms,
		sessionService,
		m,
		log.Component("invites"),
		cfg.Server.BaseURL,
		cfg.Invite.TTL,
	), nil
}

// ProvideLandingService provides the post-login landing resolver.
func ProvideLandingService(i do.Injector) (*service.LandingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewLandingService(storeHandle.Store), nil
}
