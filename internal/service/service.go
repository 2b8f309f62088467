// Package service implements BuddyRead's business operations: club
// membership and permissions, the invite lifecycle, the club lifecycle,
// reading lists and reviews, and accounts.
//
// Every operation takes the caller's user ID explicitly and returns
// *errors.Error values for expected failures. The API layer maps their codes
// to HTTP statuses and never re-checks permissions itself.
package service

import (
	"errors"
	"log/slog"
	"time"

	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/store"
	"github.com/buddyread/buddyread-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// Outcome reports whether a guarded mutation was applied.
// Self-protection rules turn some requests into no-ops rather than errors.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeUnchanged Outcome = "unchanged"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// mapStoreError translates store sentinels into domain errors.
// notFound is the message used when the record does not exist.
// Unrecognized errors are returned unchanged.
func mapStoreError(err error, notFound string) error {
	if err == nil {
		return nil
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound).WithCause(err)
	case errors.Is(err, store.ErrInviteSpent):
		return domainerrors.Forbidden(msgInviteExpired).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Validation(storeErr.Message).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(storeErr.Message).WithCause(err)
	default:
		return err
	}
}
