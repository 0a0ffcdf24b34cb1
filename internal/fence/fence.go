// Package fence implements a stale-response guard for asynchronous
// operations.
//
// A Fence mints monotonically increasing tokens for one logical slot (e.g.
// "the watcher for project X"). A caller mints a token before starting an
// asynchronous operation and checks it is still the latest before committing
// the result, so that only the most recently started operation ever wins,
// regardless of completion order.
package fence

import "sync/atomic"

// Token identifies one operation attempt within a slot. Tokens are strictly
// increasing: a token is valid only while it equals the slot's current value.
type Token uint64

// Fence guards one logical slot. The zero value is ready to use.
//
// A Fence is safe for concurrent use. Each slot should own its own Fence
// instance, tied to the lifetime of the owning component.
type Fence struct {
	current atomic.Uint64
}

// Start mints a new token, invalidating all previously minted ones.
func (f *Fence) Start() Token {
	return Token(f.current.Add(1))
}

// IsLatest returns true if the token is still the most recently minted one.
// It has no side effects.
func (f *Fence) IsLatest(t Token) bool {
	return uint64(t) == f.current.Load()
}

// Invalidate discards all in-flight tokens without minting a new one.
// Used on teardown so no pending operation can commit afterwards.
func (f *Fence) Invalidate() {
	f.current.Add(1)
}
