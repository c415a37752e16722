// Package store provides the document-store contract the client core sits
// on, plus a SQLite-backed implementation used as the local backend.
//
// Each collection is exposed two ways: single-shot reads by id, and a
// push-based snapshot stream that always carries the full current contents
// of the collection. Consumers never mutate snapshots; they derive views.
package store

import (
	"context"

	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

// Collection names used by the client.
const (
	CollectionUsers    = "users"
	CollectionChannels = "channels"
	CollectionMessages = "userMessages"
)

// Store is the narrow backend contract the core consumes.
//
// Reads return (nil, nil) when the document does not exist; callers treat
// that as a silent abort, not an error.
type Store interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetChannel(ctx context.Context, id string) (*types.Channel, error)

	AddMessage(ctx context.Context, msg types.Message) (types.Message, error)
	PutUser(ctx context.Context, user types.User) (types.User, error)
	PutChannel(ctx context.Context, channel types.Channel) (types.Channel, error)
	PatchDoc(ctx context.Context, collection, id string, fields map[string]any) error

	Messages() *stream.Value[[]types.Message]
	Users() *stream.Value[[]types.User]
	Channels() *stream.Value[[]types.Channel]

	Close() error
}
