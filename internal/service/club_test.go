package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/metrics"
	"github.com/buddyread/buddyread-server/internal/util"
)

func TestClubService_Create(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "mod")

	club, err := env.clubs.Create(ctx, owner.ID, "  Bookclub ")
	require.NoError(t, err)
	assert.Equal(t, "Bookclub", club.Name)
	assert.Equal(t, "bookclub", club.Slug)
	assert.Equal(t, util.Slugify(club.Name), club.Slug)

	isMod, err := env.perms.IsModerator(ctx, club.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isMod, "creator should moderate the new club")
}

func TestClubService_Create_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "mod")
	env.createClub(t, owner, "De Leesclub")

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"blank", "   ", "validation failed"},
		{"no slug characters", "!!!", msgClubNameNoSlug},
		{"duplicate name", "De Leesclub", msgClubNameTaken},
		{"duplicate slug only", "de leesclub!", msgClubNameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.clubs.Create(ctx, owner.ID, tt.input)
			assertCode(t, err, domainerrors.CodeValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClubService_Rename(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mod := env.createUser(t, "mod")
	club := env.createClub(t, mod, "Bookclub")
	env.createClub(t, mod, "Other Club")
	member := env.join(t, club, mod, "alice")

	t.Run("member cannot rename", func(t *testing.T) {
		_, err := env.clubs.Rename(ctx, "bookclub", member.ID, "Alice's Club")
		assertCode(t, err, domainerrors.CodeForbidden)
	})

	t.Run("name taken by another club", func(t *testing.T) {
		_, err := env.clubs.Rename(ctx, "bookclub", mod.ID, "Other Club")
		assertCode(t, err, domainerrors.CodeValidation)
	})

	t.Run("keeping own name is allowed", func(t *testing.T) {
		renamed, err := env.clubs.Rename(ctx, "bookclub", mod.ID, "Bookclub")
		require.NoError(t, err)
		assert.Equal(t, "bookclub", renamed.Slug)
	})

	t.Run("rename moves the slug", func(t *testing.T) {
		renamed, err := env.clubs.Rename(ctx, "bookclub", mod.ID, "Sci-Fi Readers")
		require.NoError(t, err)
		assert.Equal(t, "sci-fi-readers", renamed.Slug)

		_, _, err = env.perms.RequireMember(ctx, "bookclub", mod.ID)
		assertCode(t, err, domainerrors.CodeNotFound)

		_, _, err = env.perms.RequireMember(ctx, "sci-fi-readers", member.ID)
		assert.NoError(t, err)
	})
}

func TestClubService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mod := env.createUser(t, "mod")
	club := env.createClub(t, mod, "Bookclub")
	alice := env.join(t, club, mod, "alice")

	added, err := env.books.AddToClub(ctx, club.Slug, alice.ID, AddBookRequest{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	_, err = env.reviews.Save(ctx, club.Slug, alice.ID, added.Book.ID, ReviewRequest{Score: "4.5"})
	require.NoError(t, err)
	pending, err := env.invites.Issue(ctx, club.Slug, mod.ID)
	require.NoError(t, err)

	err = env.clubs.Delete(ctx, club.Slug, alice.ID)
	assertCode(t, err, domainerrors.CodeForbidden)

	require.NoError(t, env.clubs.Delete(ctx, club.Slug, mod.ID))

	_, _, err = env.perms.RequireMember(ctx, club.Slug, mod.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.invites.Resolve(ctx, pending.Token.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	overview, err := env.clubs.Overview(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, overview)

	// Catalog and reviews survive.
	book, err := env.store.GetBook(ctx, added.Book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	review, err := env.store.GetReview(ctx, alice.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.5", string(review.Score))
}

func TestClubService_OverviewAndAdmin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mod := env.createUser(t, "mod")
	a := env.createClub(t, mod, "Alpha")
	env.createClub(t, mod, "Beta")
	bob := env.join(t, a, mod, "bob")

	overview, err := env.clubs.Overview(ctx, mod.ID)
	require.NoError(t, err)
	require.Len(t, overview, 2)
	assert.Equal(t, "Alpha", overview[0].Club.Name)
	assert.True(t, overview[0].IsMod)

	_, err = env.clubs.Admin(ctx, a.Slug, bob.ID)
	assertCode(t, err, domainerrors.CodeForbidden)

	admin, err := env.clubs.Admin(ctx, a.Slug, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, admin.Club.ID)
	require.Len(t, admin.Members, 2)
	assert.Equal(t, "mod", admin.Members[0].Username, "moderators are listed first")
	assert.Equal(t, "bob", admin.Members[1].Username)
	assert.Empty(t, admin.Books)
}

func TestClubService_RemoveMember(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mod := env.createUser(t, "mod")
	club := env.createClub(t, mod, "Bookclub")
	alice := env.join(t, club, mod, "alice")
	bob := env.join(t, club, mod, "bob")

	modMembership, err := env.store.GetMembership(ctx, club.ID, mod.ID)
	require.NoError(t, err)
	aliceMembership, err := env.store.GetMembership(ctx, club.ID, alice.ID)
	require.NoError(t, err)

	t.Run("non-moderator cannot remove", func(t *testing.T) {
		_, err := env.clubs.RemoveMember(ctx, club.Slug, bob.ID, aliceMembership.ID)
		assertCode(t, err, domainerrors.CodeForbidden)
	})

	t.Run("unknown membership", func(t *testing.T) {
		_, err := env.clubs.RemoveMember(ctx, club.Slug, mod.ID, 9999)
		assertCode(t, err, domainerrors.CodeNotFound)
	})

	t.Run("moderator removing self is a no-op", func(t *testing.T) {
		res, err := env.clubs.RemoveMember(ctx, club.Slug, mod.ID, modMembership.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, res.Outcome)
		assert.Equal(t, reasonModProtected, res.Reason)

		ok, err := env.perms.IsModerator(ctx, club.ID, mod.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("removes regular member", func(t *testing.T) {
		res, err := env.clubs.RemoveMember(ctx, club.Slug, mod.ID, aliceMembership.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, res.Outcome)
		assert.Equal(t, "alice", res.Member.Username)

		ok, err := env.perms.IsMember(ctx, club.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.Equal(t, 1.0, counterValue(t, env.metrics, metrics.MemberRemoved))
}

func TestClubService_GrantModeratorThenSelfDelete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	m := env.createUser(t, "m")
	club := env.createClub(t, m, "Bookclub")
	x := env.join(t, club, m, "x")

	xMembership, err := env.store.GetMembership(ctx, club.ID, x.ID)
	require.NoError(t, err)
	mMembership, err := env.store.GetMembership(ctx, club.ID, m.ID)
	require.NoError(t, err)

	res, err := env.clubs.GrantModerator(ctx, club.Slug, m.ID, xMembership.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.True(t, res.Member.IsMod)

	res, err = env.clubs.GrantModerator(ctx, club.Slug, m.ID, xMembership.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome, "granting twice changes nothing")

	res, err = env.clubs.RemoveMember(ctx, club.Slug, m.ID, mMembership.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)

	// The new moderator cannot remove the old one either.
	res, err = env.clubs.RemoveMember(ctx, club.Slug, x.ID, mMembership.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)

	_, err = env.store.GetMembership(ctx, club.ID, m.ID)
	assert.NoError(t, err, "M's membership still exists")
}
