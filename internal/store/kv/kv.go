// Package kv implements the session store on Badger.
//
// Sessions are short-lived and written on every refresh, which suits an LSM
// key-value store better than the relational database. Every key carries the
// session's TTL so Badger drops expired sessions without a sweep.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/buddyread/buddyread-server/internal/domain"
	"github.com/buddyread/buddyread-server/internal/store"
)

const (
	sessionPrefix        = "session:"
	sessionByTokenPrefix = "idx:sessions:token:"
	sessionByUserPrefix  = "idx:sessions:user:"
)

var _ store.SessionStore = (*Store)(nil)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Options configures the session store.
type Options struct {
	// Path is the directory for Badger's files. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// Open opens (or creates) the session store.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // Sessions must survive a crash
	bopts.CompactL0OnClose = true // Faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Session store opened", "path", opts.Path, "in_memory", opts.InMemory)

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.logger.Info("Closing session store")
	return s.db.Close()
}

// RunGC reclaims space from the value log. It loops while Badger reports a
// rewrite happened and returns how many files were rewritten.
func (s *Store) RunGC(discardRatio float64) (int, error) {
	var rewritten int
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) ||
			errors.Is(err, badger.ErrGCInMemoryMode) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, err
		}
		rewritten++
	}
}

func userIndexKey(userID int64, sessionID string) []byte {
	return []byte(sessionByUserPrefix + strconv.FormatInt(userID, 10) + ":" + sessionID)
}

// setWithTTL writes key with the time left on session. Keys of an already
// expired session are not written at all.
func setWithTTL(txn *badger.Txn, key, value []byte, session *domain.Session) error {
	ttl := session.TTL()
	if ttl <= 0 {
		return store.ErrSessionExpired
	}
	return txn.SetEntry(badger.NewEntry(key, value).WithTTL(ttl))
}

// CreateSession stores a new session and its lookup indexes.
func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	key := []byte(sessionPrefix + session.ID)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return errors.New("session already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setWithTTL(txn, key, data, session); err != nil {
			return err
		}
		if err := setWithTTL(txn, []byte(sessionByTokenPrefix+session.RefreshTokenHash), []byte(session.ID), session); err != nil {
			return err
		}
		return setWithTTL(txn, userIndexKey(session.UserID, session.ID), []byte{}, session)
	})
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired() {
		return nil, store.ErrSessionExpired
	}
	return &session, nil
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionByTokenPrefix + tokenHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}

	return s.GetSession(ctx, sessionID)
}

// UpdateSession saves a session, moving the token index when the refresh
// token was rotated.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	old, err := s.GetSession(ctx, session.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setWithTTL(txn, []byte(sessionPrefix+session.ID), data, session); err != nil {
			return err
		}
		if err := setWithTTL(txn, userIndexKey(session.UserID, session.ID), []byte{}, session); err != nil {
			return err
		}

		if old.RefreshTokenHash != session.RefreshTokenHash {
			oldKey := []byte(sessionByTokenPrefix + old.RefreshTokenHash)
			if err := txn.Delete(oldKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return setWithTTL(txn, []byte(sessionByTokenPrefix+session.RefreshTokenHash), []byte(session.ID), session)
	})
}

// DeleteSession removes a session and its indexes. Missing sessions are not an error.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	key := []byte(sessionPrefix + id)

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		if err != nil {
			return err
		}

		var session domain.Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}

		for _, k := range [][]byte{
			key,
			[]byte(sessionByTokenPrefix + session.RefreshTokenHash),
			userIndexKey(session.UserID, id),
		} {
			if err := txn.Delete(k); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// ListUserSessionIDs returns the IDs of the user's live sessions.
func (s *Store) ListUserSessionIDs(_ context.Context, userID int64) ([]string, error) {
	prefix := []byte(sessionByUserPrefix + strconv.FormatInt(userID, 10) + ":")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return ids, nil
}

// DeleteAllUserSessions logs the user out everywhere.
// Used when credentials change.
func (s *Store) DeleteAllUserSessions(ctx context.Context, userID int64) error {
	ids, err := s.ListUserSessionIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	if len(ids) > 0 {
		s.logger.Info("Revoked user sessions", "user_id", userID, "count", len(ids))
	}
	return nil
}
