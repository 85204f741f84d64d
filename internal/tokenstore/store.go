// Package tokenstore persists the session token pair between runs.
//
// A pair is either fully present (all three fields set) or fully absent:
// no store implementation ever exposes a partial state.
package tokenstore

import "time"

// Pair of tokens issued by the backend on authentication.
type Pair struct {
	// Bearer material attached to authenticated requests
	AccessToken string

	// Longer-lived credential exchanged for a new pair
	RefreshToken string

	// Access token expiry
	ExpiresAt time.Time
}

type Store interface {
	// Save persists the whole pair. Readers observe either the previous
	// pair or the new one, never a mix.
	Save(pair Pair) error

	// Load returns the stored pair and whether one is present.
	Load() (Pair, bool, error)

	// Clear removes the pair. Idempotent.
	Clear() error

	// Valid reports whether a pair is present and not expired at 'now'.
	// A pair expires exactly at its expiry instant.
	Valid(now time.Time) bool
}

// Nop is the store used when no persistent state is configured.
// It never holds a pair, so every session built on it stays anonymous.
type Nop struct{}

func (Nop) Save(Pair) error           { return nil }
func (Nop) Load() (Pair, bool, error) { return Pair{}, false, nil }
func (Nop) Clear() error              { return nil }
func (Nop) Valid(time.Time) bool      { return false }
