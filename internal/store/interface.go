// Package store defines the persistence interfaces for the BuddyRead server.
package store

import (
	"context"

	"github.com/buddyread/buddyread-server/internal/domain"
)

// Store defines the relational persistence operations.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)

	// Book clubs
	CreateClub(ctx context.Context, club *domain.BookClub, ownerID int64) (*domain.Membership, error)
	GetClub(ctx context.Context, id int64) (*domain.BookClub, error)
	GetClubBySlug(ctx context.Context, slug string) (*domain.BookClub, error)
	UpdateClub(ctx context.Context, club *domain.BookClub) error
	DeleteClub(ctx context.Context, id int64) error
	ClubNameOrSlugTaken(ctx context.Context, name, slug string, excludeID int64) (bool, error)

	// Memberships
	CreateMembership(ctx context.Context, m *domain.Membership) error
	GetMembership(ctx context.Context, clubID, userID int64) (*domain.Membership, error)
	GetMembershipByID(ctx context.Context, clubID, membershipID int64) (*domain.Membership, error)
	ListClubMembers(ctx context.Context, clubID int64) ([]domain.MemberDetail, error)
	ListUserMemberships(ctx context.Context, userID int64) ([]domain.ClubMembership, error)
	SetModerator(ctx context.Context, membershipID int64, isMod bool) error
	DeleteMembership(ctx context.Context, membershipID int64) error

	// Books
	GetOrCreateBook(ctx context.Context, title, author string) (*domain.Book, bool, error)
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// Club reading lists
	AddClubBook(ctx context.Context, cb *domain.ClubBook) error
	GetClubBook(ctx context.Context, clubID, clubBookID int64) (*domain.ClubBook, error)
	ListClubBooks(ctx context.Context, clubID int64) ([]domain.ClubBookDetail, error)
	DeleteClubBook(ctx context.Context, clubBookID int64) error

	// Reviews
	GetReview(ctx context.Context, userID, bookID int64) (*domain.Review, error)
	UpsertReview(ctx context.Context, review *domain.Review) error

	// Invites
	CreateInvite(ctx context.Context, token *domain.InviteToken) error
	GetInvite(ctx context.Context, id string) (*domain.InviteToken, error)
	ConsumeInvite(ctx context.Context, tokenID string, user *domain.User) (*domain.Membership, error)
}

// SessionStore persists login sessions keyed by ID and refresh-token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListUserSessionIDs(ctx context.Context, userID int64) ([]string, error)
	DeleteAllUserSessions(ctx context.Context, userID int64) error
}

// SearchIndexer keeps the book search index in sync with the catalog.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }
