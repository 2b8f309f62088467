package api

import "time"

// Route prefix for every versioned operation.
const apiPrefix = "/api/v1"

// Rate limits for the unauthenticated credential endpoints, per client IP.
const (
	rateLimitInterval     = time.Minute
	defaultLoginPerMinute = 10
	defaultLoginBurst     = 5
	defaultClaimPerMinute = 5
	defaultClaimBurst     = 3
)

// OpenAPI tags.
const (
	tagHealth  = "Health"
	tagAuth    = "Authentication"
	tagClubs   = "Clubs"
	tagBooks   = "Books"
	tagReviews = "Reviews"
	tagInvites = "Invites"
)
