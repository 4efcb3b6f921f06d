package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is the schema version written by this build.
// Bump it together with a new entry in migrations.
const CurrentSchemaVersion = 1

// ErrCorrupt is returned by Migrate when the persisted blob cannot be
// brought to the current schema. Callers must fall back to the empty
// session rather than propagate it to the user.
var ErrCorrupt = errors.New("persisted session is corrupt")

// PersistedSession is the statically declared subset of session state that
// goes to durable storage. It is a separate type from Session so the
// persisted shape cannot drift silently when in-memory fields are added.
type PersistedSession struct {
	SchemaVersion int        `json:"schema_version"`
	Token         string     `json:"token"`
	User          User       `json:"user"`
	Modules       []Module   `json:"modules"`
	ClientID      int64      `json:"id_client"`
	ClientUID     string     `json:"uid_client"`
	InstanceID    int64      `json:"id_instance"`
	Version       APIVersion `json:"version"`
}

// toPersisted maps in-memory state to the persisted shape.
func toPersisted(s Session) PersistedSession {
	return PersistedSession{
		SchemaVersion: CurrentSchemaVersion,
		Token:         s.Token,
		User:          s.User,
		Modules:       s.Modules,
		ClientID:      s.ClientID,
		ClientUID:     s.ClientUID,
		InstanceID:    s.InstanceID,
		Version:       s.Version,
	}
}

// fromPersisted maps a persisted record back to in-memory state.
func fromPersisted(p PersistedSession) Session {
	return Session{
		Token:      p.Token,
		User:       p.User,
		Modules:    p.Modules,
		ClientID:   p.ClientID,
		ClientUID:  p.ClientUID,
		InstanceID: p.InstanceID,
		Version:    p.Version,
	}
}

// Migration upgrades a persisted blob written at FromVersion to the shape
// expected by FromVersion+1. Apply operates on the decoded JSON object and
// must be total: the blob may be stale or partially written, so missing or
// malformed fields are handled, not assumed.
type Migration struct {
	FromVersion int
	Apply       func(state map[string]any) (map[string]any, error)
}

// migrations is ordered by FromVersion, one step per version bump.
var migrations = []Migration{
	{
		// v0 blobs predate the backend version record.
		FromVersion: 0,
		Apply: func(state map[string]any) (map[string]any, error) {
			if _, ok := state["version"].(map[string]any); !ok {
				state["version"] = map[string]any{"api": "", "oauth": ""}
			}
			return state, nil
		},
	},
}

// Migrate decodes a persisted blob and applies, in ascending order, every
// migration step between the blob's schema version and
// CurrentSchemaVersion. A blob that cannot be decoded, reports a version
// newer than this build understands, or fails any step yields ErrCorrupt.
func Migrate(blob []byte) (PersistedSession, error) {
	var state map[string]any
	if err := json.Unmarshal(blob, &state); err != nil {
		return PersistedSession{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if state == nil {
		return PersistedSession{}, fmt.Errorf("%w: null blob", ErrCorrupt)
	}

	version := 0
	if v, ok := state["schema_version"].(float64); ok {
		version = int(v)
	}
	if version > CurrentSchemaVersion {
		// No forward migration is defined; a downgrade install reads a
		// blob from the future. Treat it the same as corruption.
		return PersistedSession{}, fmt.Errorf("%w: schema version %d is newer than %d", ErrCorrupt, version, CurrentSchemaVersion)
	}

	for _, m := range migrations {
		if m.FromVersion < version {
			continue
		}
		next, err := m.Apply(state)
		if err != nil {
			return PersistedSession{}, fmt.Errorf("%w: migration from v%d: %v", ErrCorrupt, m.FromVersion, err)
		}
		state = next
	}
	state["schema_version"] = CurrentSchemaVersion

	upgraded, err := json.Marshal(state)
	if err != nil {
		return PersistedSession{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var p PersistedSession
	if err := json.Unmarshal(upgraded, &p); err != nil {
		return PersistedSession{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	p.SchemaVersion = CurrentSchemaVersion
	return p, nil
}
