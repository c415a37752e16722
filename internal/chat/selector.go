// Package chat holds the conversation-level state machines: which
// conversation is active, which thread is open, and the notification and
// rendering helpers that hang off the active message list.
package chat

import (
	"context"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/openclack/clack/internal/store"
	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

// SelectionKind discriminates the selector states.
type SelectionKind string

const (
	SelectionIdle          SelectionKind = "idle"
	SelectionChannel       SelectionKind = "channel"
	SelectionDirectMessage SelectionKind = "directMessage"
	SelectionComposeNew    SelectionKind = "composeNew"
)

// Selection is the current conversation. Exactly one of Channel/Peer is
// populated, matching Kind; selecting one clears the others.
type Selection struct {
	Kind      SelectionKind
	ChannelID string
	Channel   *types.Channel
	PeerID    string
	Peer      *types.User
}

// Selector owns the active-conversation state and republishes the
// conversation's message list, filtered and sorted by time ascending.
//
// All state mutation goes through its public operations; per the
// single-event-loop model, operations are not called concurrently.
type Selector struct {
	store    store.Store
	viewerID string
	log      *zap.SugaredLogger

	selection   *stream.Value[Selection]
	messageList *stream.Value[[]types.Message]

	// pendingReveal carries a search-result message id the UI still has to
	// scroll to; cleared when a send completes.
	pendingReveal *stream.Value[string]
	sendCompleted *stream.Value[int]

	cancelMessages func()
}

// NewSelector creates a selector for the given viewer over the store.
func NewSelector(st store.Store, viewerID string, log *zap.SugaredLogger) *Selector {
	return &Selector{
		store:         st,
		viewerID:      viewerID,
		log:           log,
		selection:     stream.New(Selection{Kind: SelectionIdle}),
		messageList:   stream.New([]types.Message{}),
		pendingReveal: stream.New(""),
		sendCompleted: stream.New(0),
	}
}

// Selection returns the live selection state stream.
func (s *Selector) Selection() *stream.Value[Selection] { return s.selection }

// MessageList returns the live message list of the active conversation.
func (s *Selector) MessageList() *stream.Value[[]types.Message] { return s.messageList }

// PendingReveal carries the message id of a search result awaiting reveal;
// empty when none.
func (s *Selector) PendingReveal() *stream.Value[string] { return s.pendingReveal }

// SendCompleted increments once per completed send.
func (s *Selector) SendCompleted() *stream.Value[int] { return s.sendCompleted }

// SelectChannel makes the channel the active conversation. Selecting the
// already-active channel is a no-op. A missing channel document leaves the
// previous state authoritative.
func (s *Selector) SelectChannel(ctx context.Context, id string) error {
	current := s.selection.Get()
	if current.Kind == SelectionChannel && current.ChannelID == id {
		return nil
	}

	channel, err := s.store.GetChannel(ctx, id)
	if err != nil {
		s.log.Warnw("channel fetch failed", "channel", id, "error", err)
		return nil
	}
	if channel == nil {
		s.log.Warnw("channel does not exist", "channel", id)
		return nil
	}

	s.selection.Set(Selection{
		Kind:      SelectionChannel,
		ChannelID: id,
		Channel:   channel,
	})
	s.resubscribe(func(m types.Message) bool {
		return m.ChannelID != nil && *m.ChannelID == id
	})
	return nil
}

// SelectDirectMessage makes the DM conversation with peerID active. The
// viewer's own id routes to the self-chat. A missing user document leaves
// the previous state authoritative.
func (s *Selector) SelectDirectMessage(ctx context.Context, peerID string) error {
	current := s.selection.Get()
	if current.Kind == SelectionDirectMessage && current.PeerID == peerID {
		return nil
	}

	peer, err := s.store.GetUser(ctx, peerID)
	if err != nil {
		s.log.Warnw("user fetch failed", "user", peerID, "error", err)
		return nil
	}
	if peer == nil {
		s.log.Warnw("user does not exist", "user", peerID)
		return nil
	}

	s.selection.Set(Selection{
		Kind:   SelectionDirectMessage,
		PeerID: peerID,
		Peer:   peer,
	})

	viewer := s.viewerID
	s.resubscribe(func(m types.Message) bool {
		if m.DirectUserID == nil {
			return false
		}
		// Exact pair, covering the self-chat when peerID == viewer.
		return (m.AuthorID == viewer && *m.DirectUserID == peerID) ||
			(m.AuthorID == peerID && *m.DirectUserID == viewer)
	})
	return nil
}

// ToggleNewMessage enters compose mode, clearing any active conversation.
func (s *Selector) ToggleNewMessage() {
	s.unsubscribe()
	s.selection.Set(Selection{Kind: SelectionComposeNew})
	s.messageList.Set([]types.Message{})
}

// SetPendingReveal records a search-result message id awaiting reveal.
func (s *Selector) SetPendingReveal(messageID string) {
	s.pendingReveal.Set(messageID)
}

// MessageSent signals that a send completed: compose mode and any pending
// search-result selection are cleared, and observers are notified.
func (s *Selector) MessageSent() {
	if s.selection.Get().Kind == SelectionComposeNew {
		s.selection.Set(Selection{Kind: SelectionIdle})
	}
	s.pendingReveal.Set("")
	s.sendCompleted.Set(s.sendCompleted.Get() + 1)
}

// Close releases the message stream subscription.
func (s *Selector) Close() {
	s.unsubscribe()
}

func (s *Selector) unsubscribe() {
	if s.cancelMessages != nil {
		s.cancelMessages()
		s.cancelMessages = nil
	}
}

// resubscribe swaps the message stream subscription for the new filter.
// Equivalent consecutive snapshots from the backend are dropped before
// re-sorting so observers don't re-render on no-op pushes.
func (s *Selector) resubscribe(keep func(types.Message) bool) {
	s.unsubscribe()
	s.cancelMessages = s.store.Messages().Subscribe(func(all []types.Message) {
		filtered := make([]types.Message, 0, len(all))
		for _, m := range all {
			if keep(m) {
				filtered = append(filtered, m)
			}
		}
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].Time != filtered[j].Time {
				return filtered[i].Time < filtered[j].Time
			}
			return filtered[i].ID < filtered[j].ID
		})
		s.messageList.SetIfChanged(filtered, func(a, b []types.Message) bool {
			return reflect.DeepEqual(a, b)
		})
	})
}
