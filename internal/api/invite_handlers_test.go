package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddyread/buddyread-server/internal/service"
)

func TestIssueInvite(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createUser(t, "alice")
	slug := ts.createClub(t, token, "Invite Club")

	resp := ts.api.Post(apiPrefix+"/clubs/"+slug+"/invites", bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	issued := decode[service.IssuedInvite](t, resp).Data
	require.NotNil(t, issued.Token)
	assert.Equal(t, "http://buddyread.test/join/"+issued.Token.ID, issued.URL)
	assert.Equal(t, "Invite Club", issued.ClubName)
	assert.False(t, issued.Token.Accepted)
	assert.True(t, issued.ExpiresAt.After(issued.Token.CreatedAt))
}

func TestGetInvite(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createUser(t, "alice")
	slug := ts.createClub(t, token, "Preview Club")

	resp := ts.api.Post(apiPrefix+"/clubs/"+slug+"/invites", bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code)
	issued := decode[service.IssuedInvite](t, resp).Data

	resp = ts.api.Get(apiPrefix + "/invites/" + issued.Token.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	preview := decode[service.InvitePreview](t, resp).Data
	assert.Equal(t, "Preview Club", preview.ClubName)
	assert.Equal(t, slug, preview.ClubSlug)

	t.Run("unknown token", func(t *testing.T) {
		resp := ts.api.Get(apiPrefix + "/invites/00000000-0000-0000-0000-000000000000")
		assertError(t, resp, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("malformed token", func(t *testing.T) {
		resp := ts.api.Get(apiPrefix + "/invites/not-a-uuid")
		assertError(t, resp, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestClaimInvite_SingleUse(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createUser(t, "alice")
	slug := ts.createClub(t, token, "One Shot")

	resp := ts.api.Post(apiPrefix+"/clubs/"+slug+"/invites", bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code)
	inviteID := decode[service.IssuedInvite](t, resp).Data.Token.ID
	claimPath := apiPrefix + "/invites/" + inviteID + "/claim"

	resp = ts.api.Post(claimPath, map[string]any{
		"username":        "bob",
		"password":        "secret-bob",
		"password_repeat": "secret-bob",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	claim := decode[ClaimInviteResponse](t, resp).Data
	assert.Equal(t, "bob", claim.User.Username)
	assert.Equal(t, slug, claim.Club.Slug)
	assert.NotEmpty(t, claim.AccessToken)

	// The new member is signed in and lands on the club.
	resp = ts.api.Get(apiPrefix+"/home", bearer(claim.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, slug, decode[HomeResponse](t, resp).Data.ClubSlug)

	resp = ts.api.Post(claimPath, map[string]any{
		"username":        "carol",
		"password":        "secret-carol",
		"password_repeat": "secret-carol",
	})
	assertError(t, resp, http.StatusForbidden, "FORBIDDEN")

	// A spent token is rejected before the body is looked at.
	resp = ts.api.Post(claimPath, map[string]any{"username": "dave"})
	assertError(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = ts.api.Get(apiPrefix + "/invites/" + inviteID)
	assertError(t, resp, http.StatusForbidden, "FORBIDDEN")
}

func TestClaimInvite_Validation(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createUser(t, "alice")
	slug := ts.createClub(t, token, "Careful Club")

	resp := ts.api.Post(apiPrefix+"/clubs/"+slug+"/invites", bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code)
	claimPath := apiPrefix + "/invites/" + decode[service.IssuedInvite](t, resp).Data.Token.ID + "/claim"

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"password mismatch", map[string]any{"username": "bob", "password": "one", "password_repeat": "two"}, "password_repeat"},
		{"username taken", map[string]any{"username": "alice", "password": "pw", "password_repeat": "pw"}, "username"},
		{"blank username", map[string]any{"username": " ", "password": "pw", "password_repeat": "pw"}, "username"},
		{"missing password repeat", map[string]any{"username": "bob", "password": "pw"}, "password_repeat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(claimPath, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Contains(t, decode[any](t, resp).Details, tt.field)
		})
	}

	// Failed attempts leave the invite usable.
	resp = ts.api.Post(claimPath, map[string]any{"username": "bob", "password": "pw", "password_repeat": "pw"})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestClaimInvite_ClubDeleted(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createUser(t, "alice")
	slug := ts.createClub(t, token, "Short Lived")

	resp := ts.api.Post(apiPrefix+"/clubs/"+slug+"/invites", bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code)
	inviteID := decode[service.IssuedInvite](t, resp).Data.Token.ID

	resp = ts.api.Delete(apiPrefix+"/clubs/"+slug, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get(apiPrefix + "/invites/" + inviteID)
	assertError(t, resp, http.StatusNotFound, "NOT_FOUND")
}
