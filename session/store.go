package session

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// StorageKey is the single well-known key the session record is
	// written under.
	StorageKey = "debtwise.session"

	// LegacyStorageKey is checked on reads only. Earlier releases stored
	// the session under the auth SDK's own key; this fallback is a
	// migration shim and is never written to.
	LegacyStorageKey = "supabase.auth.token"
)

// KV is the minimal key/value persistence the session store needs.
// Implementations must return (nil, nil) for missing keys.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Store reads and writes the single persisted session record. It owns the
// serialization contract: every reader and writer of the session key goes
// through this codec, so the on-disk layout cannot drift between the
// callback resolver (writer) and the bearer transport (reader).
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the current session, or nil when no usable record exists.
// Malformed or missing data reads as absent - a corrupt record must never
// escalate into an error that signs the user out.
func (s *Store) Load() *Session {
	for _, key := range []string{StorageKey, LegacyStorageKey} {
		raw, err := s.kv.Get(key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Session store read failed")
			continue
		}
		if len(raw) == 0 {
			continue
		}
		var sess Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Discarding malformed session record")
			continue
		}
		if !sess.Valid() {
			continue
		}
		return &sess
	}
	return nil
}

// Save persists the session under the well-known key. The stored record
// never embeds the profile.
func (s *Store) Save(sess *Session) error {
	if !sess.Valid() {
		return errors.New("[Store.Save] refusing to persist a session without an access token")
	}
	record := *sess
	record.User = nil
	raw, err := json.Marshal(&record)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal session")
	}
	if err := s.kv.Put(StorageKey, raw); err != nil {
		return errors.Wrap(err, "[Store.Save] write session record")
	}
	return nil
}

// Clear removes the session record, including any legacy copy.
func (s *Store) Clear() error {
	if err := s.kv.Delete(StorageKey); err != nil {
		return errors.Wrap(err, "[Store.Clear] delete session record")
	}
	if err := s.kv.Delete(LegacyStorageKey); err != nil {
		return errors.Wrap(err, "[Store.Clear] delete legacy session record")
	}
	return nil
}
