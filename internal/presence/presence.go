// Package presence tracks realtime online/offline status per user.
package presence

import (
	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

// Keeper holds the latest presence map and republishes it on change.
// The backend integration layer is the single writer; everyone else
// subscribes.
type Keeper struct {
	statuses *stream.Value[map[string]types.PresenceStatus]
}

// NewKeeper creates an empty presence keeper.
func NewKeeper() *Keeper {
	return &Keeper{
		statuses: stream.New(map[string]types.PresenceStatus{}),
	}
}

// Statuses returns the live presence snapshot stream.
func (k *Keeper) Statuses() *stream.Value[map[string]types.PresenceStatus] {
	return k.statuses
}

// Status returns the current status for a user, defaulting to offline.
func (k *Keeper) Status(userID string) types.PresenceStatus {
	if st, ok := k.statuses.Get()[userID]; ok {
		return st
	}
	return types.PresenceOffline
}

// SetStatus updates one user's status. Unchanged statuses do not publish.
func (k *Keeper) SetStatus(userID string, status types.PresenceStatus) {
	current := k.statuses.Get()
	if current[userID] == status {
		return
	}
	next := make(map[string]types.PresenceStatus, len(current)+1)
	for id, st := range current {
		next[id] = st
	}
	next[userID] = status
	k.statuses.Set(next)
}

// Replace swaps in a full presence snapshot, as delivered by the backend.
func (k *Keeper) Replace(snapshot map[string]types.PresenceStatus) {
	next := make(map[string]types.PresenceStatus, len(snapshot))
	for id, st := range snapshot {
		next[id] = st
	}
	k.statuses.Set(next)
}
