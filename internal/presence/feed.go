package presence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openclack/clack/internal/types"
)

const (
	feedReadLimit       = 1 << 16
	feedPongWait        = 60 * time.Second
	reconnectBackoff    = 2 * time.Second
	reconnectBackoffMax = 30 * time.Second
)

// feedEvent is one presence update on the wire.
type feedEvent struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Feed consumes the backend's realtime presence endpoint and pushes
// updates into a Keeper. It reconnects with backoff until its context is
// cancelled.
type Feed struct {
	url    string
	keeper *Keeper
	log    *zap.SugaredLogger
}

// NewFeed creates a feed for the given websocket URL.
func NewFeed(url string, keeper *Keeper, log *zap.SugaredLogger) *Feed {
	return &Feed{url: url, keeper: keeper, log: log}
}

// Run blocks, consuming presence events until ctx is cancelled. Connection
// failures are logged and retried; they never propagate.
func (f *Feed) Run(ctx context.Context) {
	backoff := reconnectBackoff
	for {
		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			f.log.Warnw("presence feed disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectBackoffMax {
			backoff = reconnectBackoffMax
		}
	}
}

func (f *Feed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Tear the connection down when the context ends so ReadMessage
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))

		var event feedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			f.log.Warnw("undecodable presence event", "error", err)
			continue
		}
		status := types.PresenceOffline
		if event.Status == string(types.PresenceOnline) {
			status = types.PresenceOnline
		}
		f.keeper.SetStatus(event.UserID, status)
	}
}
