package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Config holds configuration for the session store.
type Config struct {
	// Storage is the durable backend. Required.
	Storage Storage

	// Logger for persistence and migration events.
	Logger zerolog.Logger
}

// Store is the single source of truth for the client's session. It is safe
// for concurrent use; every mutating operation replaces or clears its full
// field set under one lock acquisition, so readers never observe a half
// applied login or logout, and writes reach storage in call order.
type Store struct {
	// opMu serializes whole mutate-and-persist operations, so blobs reach
	// storage in the order their mutations happened even when Save itself
	// is slow: a stalled login write can never land after a later logout's
	// empty blob. Readers only wait on mu, never on storage.
	opMu    sync.Mutex
	mu      sync.RWMutex
	state   Session
	storage Storage
	logger  zerolog.Logger
}

// New creates a session store. The store starts empty; call Load to pick up
// previously persisted state.
func New(cfg Config) *Store {
	return &Store{
		storage: cfg.Storage,
		logger:  cfg.Logger,
	}
}

// Load reads the persisted blob, migrates it to the current schema and
// installs it as the in-memory state. A missing blob yields the empty
// session. A corrupt or future-versioned blob is discarded and replaced by
// the empty session: a bad blob forces a re-login, never a crash.
func (s *Store) Load(ctx context.Context) error {
	blob, err := s.storage.Load(ctx)
	if err != nil {
		// An unreadable blob gets the same treatment as a corrupt one.
		s.logger.Warn().Err(err).Msg("cannot read persisted session, starting empty")
		blob = nil
	}
	if blob == nil {
		return nil
	}

	p, err := Migrate(blob)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding persisted session")
		if delErr := s.storage.Delete(ctx); delErr != nil {
			s.logger.Error().Err(delErr).Msg("failed to delete corrupt session blob")
		}
		s.mu.Lock()
		s.state = Session{}
		s.mu.Unlock()
		return nil
	}

	// Write back immediately so later loads skip already applied steps.
	s.mutate(ctx, func(state *Session) {
		*state = fromPersisted(p)
	})
	return nil
}

// SetAuthData atomically replaces the whole session with the result of a
// successful login.
func (s *Store) SetAuthData(ctx context.Context, sess Session) {
	s.mutate(ctx, func(state *Session) {
		*state = sess
	})
}

// Logout clears every session field back to its zero default. Calling it
// with no active session is a no-op that still ends in the logged-out state.
func (s *Store) Logout(ctx context.Context) {
	s.mutate(ctx, func(state *Session) {
		*state = Session{}
	})
}

// UpdateUser shallow-merges the patch into the current user record. Other
// session fields are untouched.
func (s *Store) UpdateUser(ctx context.Context, patch UserPatch) {
	s.mutate(ctx, func(state *Session) {
		u := &state.User
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.FirstName != nil {
			u.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			u.LastName = *patch.LastName
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.Status != nil {
			u.Status = *patch.Status
		}
		if patch.AllPermission != nil {
			u.AllPermission = *patch.AllPermission
		}
		if patch.Structures != nil {
			u.Structures = patch.Structures
		}
		if patch.Roles != nil {
			u.Roles = patch.Roles
		}
	})
}

// UpdateModules replaces the module list wholesale. Modules are never
// merged by id.
func (s *Store) UpdateModules(ctx context.Context, modules []Module) {
	s.mutate(ctx, func(state *Session) {
		state.Modules = modules
	})
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated()
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// mutate applies fn to the state under the write lock, then persists the
// result. opMu is held across both steps, which keeps the durable record in
// the same order as the in-memory transitions. A write failure keeps the
// in-memory update and is logged, not retried.
func (s *Store) mutate(ctx context.Context, fn func(state *Session)) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	p := toPersisted(s.state)
	s.mu.Unlock()

	blob, err := json.Marshal(p)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode session for persistence")
		return
	}
	if err := s.storage.Save(ctx, blob); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session")
	}
}
