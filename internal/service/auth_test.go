package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddyread/buddyread-server/internal/domain"
	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
)

func TestAuthService_Login(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice")

	t.Run("success", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"}, ClientInfo{UserAgent: "test"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.User.Username)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int((15 * time.Minute).Seconds()), resp.ExpiresIn)

		principal, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.SessionID, principal.SessionID)

		session, err := env.sessions.GetSession(ctx, resp.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "test", session.UserAgent)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "nope"}, ClientInfo{})
		assertCode(t, err, domainerrors.CodeInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Username: "ghost", Password: "nope"}, ClientInfo{})
		assertCode(t, err, domainerrors.CodeInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{}, ClientInfo{})
		assertCode(t, err, domainerrors.CodeValidation)
	})
}

func TestAuthService_RefreshRotates(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice")

	login, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"}, ClientInfo{})
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, login.RefreshToken, ClientInfo{IPAddress: "10.0.0.2"})
	require.NoError(t, err)
	assert.Equal(t, login.SessionID, refreshed.SessionID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = env.auth.Refresh(ctx, login.RefreshToken, ClientInfo{})
	assertCode(t, err, domainerrors.CodeTokenExpired)

	_, err = env.auth.Refresh(ctx, "", ClientInfo{})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestAuthService_LogoutEndsAccess(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice")

	login, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"}, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, login.SessionID))

	_, err = env.auth.VerifyAccessToken(ctx, login.AccessToken)
	assertCode(t, err, domainerrors.CodeUnauthorized)

	_, err = env.auth.Refresh(ctx, login.RefreshToken, ClientInfo{})
	assertCode(t, err, domainerrors.CodeTokenExpired)
}

func TestAuthService_VerifyAccessToken_Garbage(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	assertCode(t, err, domainerrors.CodeUnauthorized)
}

func TestAuthService_ChangeCredentials(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	env.createUser(t, "bob")

	current, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"}, ClientInfo{})
	require.NoError(t, err)
	otherDevice, err := env.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"}, ClientInfo{})
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		_, err := env.auth.ChangeCredentials(ctx, alice.ID, current.SessionID, ChangeCredentialsRequest{
			Username:        "alice",
			CurrentPassword: "wrong",
		})
		assertCode(t, err, domainerrors.CodeValidation)
		assert.Contains(t, err.Error(), msgCurrentPwdInvalid)
	})

	t.Run("repeat mismatch", func(t *testing.T) {
		_, err := env.auth.ChangeCredentials(ctx, alice.ID, current.SessionID, ChangeCredentialsRequest{
			Username:          "alice",
			CurrentPassword:   "secret-alice",
			NewPassword:       "new",
			NewPasswordRepeat: "other",
		})
		assertCode(t, err, domainerrors.CodeValidation)
	})

	t.Run("username taken", func(t *testing.T) {
		_, err := env.auth.ChangeCredentials(ctx, alice.ID, current.SessionID, ChangeCredentialsRequest{
			Username:        "bob",
			CurrentPassword: "secret-alice",
		})
		assertCode(t, err, domainerrors.CodeValidation)
		assert.Contains(t, err.Error(), msgUsernameTaken)
	})

	t.Run("rename keeps password", func(t *testing.T) {
		profile, err := env.auth.ChangeCredentials(ctx, alice.ID, current.SessionID, ChangeCredentialsRequest{
			Username:        "alicia",
			CurrentPassword: "secret-alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "alicia", profile.Username)

		_, err = env.auth.Login(ctx, LoginRequest{Username: "alicia", Password: "secret-alice"}, ClientInfo{})
		assert.NoError(t, err)

		_, err = env.auth.VerifyAccessToken(ctx, otherDevice.AccessToken)
		assert.NoError(t, err, "no password change, other sessions stay")
	})

	t.Run("password change ends other sessions", func(t *testing.T) {
		_, err := env.auth.ChangeCredentials(ctx, alice.ID, current.SessionID, ChangeCredentialsRequest{
			Username:          "alicia",
			CurrentPassword:   "secret-alice",
			NewPassword:       "fresh",
			NewPasswordRepeat: "fresh",
		})
		require.NoError(t, err)

		_, err = env.auth.Login(ctx, LoginRequest{Username: "alicia", Password: "secret-alice"}, ClientInfo{})
		assertCode(t, err, domainerrors.CodeInvalidCredentials)
		_, err = env.auth.Login(ctx, LoginRequest{Username: "alicia", Password: "fresh"}, ClientInfo{})
		assert.NoError(t, err)

		_, err = env.auth.VerifyAccessToken(ctx, current.AccessToken)
		assert.NoError(t, err, "the session that made the change survives")
		_, err = env.auth.VerifyAccessToken(ctx, otherDevice.AccessToken)
		assertCode(t, err, domainerrors.CodeUnauthorized)
	})
}

func TestAuthService_CreateUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.CreateUser(ctx, " admin ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.NotEqual(t, "pw", user.PasswordHash)

	_, err = env.auth.CreateUser(ctx, "admin", "pw")
	assertCode(t, err, domainerrors.CodeValidation)

	me, err := env.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserProfile{ID: user.ID, Username: "admin"}, *me)
}

func TestLandingService_Resolve(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mod := env.createUser(t, "mod")

	landing, err := env.landing.Resolve(ctx, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LandingAddClub, landing.Next)

	env.createClub(t, mod, "Bookclub")
	landing, err = env.landing.Resolve(ctx, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LandingClubBooks, landing.Next)
	assert.Equal(t, "bookclub", landing.ClubSlug)

	env.createClub(t, mod, "Second")
	landing, err = env.landing.Resolve(ctx, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LandingChooseClub, landing.Next)
	assert.Empty(t, landing.ClubSlug)
}

func TestPermissionService(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mod := env.createUser(t, "mod")
	club := env.createClub(t, mod, "Bookclub")
	alice := env.join(t, club, mod, "alice")
	eve := env.createUser(t, "eve")

	tests := []struct {
		name       string
		userID     int64
		wantMember bool
		wantMod    bool
	}{
		{"moderator", mod.ID, true, true},
		{"member", alice.ID, true, false},
		{"outsider", eve.ID, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member, err := env.perms.IsMember(ctx, club.ID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMember, member)

			isMod, err := env.perms.IsModerator(ctx, club.ID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMod, isMod)
		})
	}

	_, _, err := env.perms.RequireMember(ctx, club.Slug, eve.ID)
	assertCode(t, err, domainerrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgAccessDenied)

	_, _, err = env.perms.RequireModerator(ctx, club.Slug, alice.ID)
	assertCode(t, err, domainerrors.CodeForbidden)

	_, _, err = env.perms.RequireMember(ctx, "missing", mod.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	gotClub, m, err := env.perms.RequireModerator(ctx, club.Slug, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, club.ID, gotClub.ID)
	assert.True(t, m.IsMod)
}
