package chat

import (
	"context"
	"testing"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/search"
	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

func strptr(s string) *string { return &s }

// fakeStore serves canned documents and hand-pushed snapshots.
type fakeStore struct {
	users    map[string]types.User
	channels map[string]types.Channel

	messages        *stream.Value[[]types.Message]
	userSnapshots   *stream.Value[[]types.User]
	channelSnapshot *stream.Value[[]types.Channel]
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:           map[string]types.User{},
		channels:        map[string]types.Channel{},
		messages:        stream.New([]types.Message{}),
		userSnapshots:   stream.New([]types.User{}),
		channelSnapshot: stream.New([]types.Channel{}),
	}
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*types.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeStore) GetChannel(_ context.Context, id string) (*types.Channel, error) {
	if c, ok := f.channels[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) AddMessage(_ context.Context, msg types.Message) (types.Message, error) {
	all := append(append([]types.Message{}, f.messages.Get()...), msg)
	f.messages.Set(all)
	return msg, nil
}

func (f *fakeStore) PutUser(_ context.Context, u types.User) (types.User, error) {
	f.users[u.LocalID] = u
	return u, nil
}

func (f *fakeStore) PutChannel(_ context.Context, c types.Channel) (types.Channel, error) {
	f.channels[c.ID] = c
	return c, nil
}

func (f *fakeStore) PatchDoc(context.Context, string, string, map[string]any) error { return nil }

func (f *fakeStore) Messages() *stream.Value[[]types.Message] { return f.messages }
func (f *fakeStore) Users() *stream.Value[[]types.User]       { return f.userSnapshots }
func (f *fakeStore) Channels() *stream.Value[[]types.Channel] { return f.channelSnapshot }
func (f *fakeStore) Close() error                             { return nil }

func testSelector(t *testing.T) (*Selector, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	fs.channels["c1"] = types.Channel{ID: "c1", Name: "general", Members: map[string]bool{"u1": true}}
	fs.users["u2"] = types.User{LocalID: "u2", Username: "bob"}
	fs.users["u1"] = types.User{LocalID: "u1", Username: "alice"}

	sel := NewSelector(fs, "u1", logger.Nop())
	t.Cleanup(sel.Close)
	return sel, fs
}

func TestSelectChannelFiltersAndSorts(t *testing.T) {
	sel, fs := testSelector(t)
	ctx := context.Background()

	fs.messages.Set([]types.Message{
		{ID: "m2", ChannelID: strptr("c1"), AuthorID: "u2", Time: 200},
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Time: 100},
		{ID: "dm", DirectUserID: strptr("u1"), AuthorID: "u2", Time: 50},
	})

	if err := sel.SelectChannel(ctx, "c1"); err != nil {
		t.Fatalf("SelectChannel: %v", err)
	}

	state := sel.Selection().Get()
	if state.Kind != SelectionChannel || state.ChannelID != "c1" {
		t.Fatalf("unexpected selection: %+v", state)
	}
	if state.Channel == nil || state.Channel.Name != "general" {
		t.Errorf("channel doc not attached: %+v", state.Channel)
	}

	list := sel.MessageList().Get()
	if len(list) != 2 {
		t.Fatalf("expected 2 channel messages, got %d", len(list))
	}
	if list[0].ID != "m1" || list[1].ID != "m2" {
		t.Errorf("messages not sorted ascending by time: %v, %v", list[0].ID, list[1].ID)
	}
}

func TestSelectChannelIdempotent(t *testing.T) {
	sel, fs := testSelector(t)
	ctx := context.Background()

	if err := sel.SelectChannel(ctx, "c1"); err != nil {
		t.Fatalf("SelectChannel: %v", err)
	}
	subsAfterFirst := fs.messages.SubscriberCount()

	selectionChanges := 0
	cancel := sel.Selection().Subscribe(func(Selection) { selectionChanges++ })
	defer cancel()
	selectionChanges = 0

	if err := sel.SelectChannel(ctx, "c1"); err != nil {
		t.Fatalf("SelectChannel: %v", err)
	}
	if selectionChanges != 0 {
		t.Errorf("second select of same channel mutated state %d times", selectionChanges)
	}
	if fs.messages.SubscriberCount() != subsAfterFirst {
		t.Errorf("second select changed subscriptions: %d -> %d", subsAfterFirst, fs.messages.SubscriberCount())
	}
}

func TestSelectMissingChannelKeepsPreviousState(t *testing.T) {
	sel, _ := testSelector(t)
	ctx := context.Background()

	if err := sel.SelectChannel(ctx, "c1"); err != nil {
		t.Fatalf("SelectChannel: %v", err)
	}
	if err := sel.SelectChannel(ctx, "ghost"); err != nil {
		t.Fatalf("SelectChannel(ghost): %v", err)
	}

	state := sel.Selection().Get()
	if state.Kind != SelectionChannel || state.ChannelID != "c1" {
		t.Errorf("missing channel should leave previous selection, got %+v", state)
	}
}

func TestSelectDirectMessageExactPair(t *testing.T) {
	sel, fs := testSelector(t)
	ctx := context.Background()

	fs.messages.Set([]types.Message{
		{ID: "a", AuthorID: "u1", DirectUserID: strptr("u2"), Time: 1},
		{ID: "b", AuthorID: "u2", DirectUserID: strptr("u1"), Time: 2},
		{ID: "c", AuthorID: "u2", DirectUserID: strptr("u3"), Time: 3}, // other pair
		{ID: "d", AuthorID: "u3", DirectUserID: strptr("u1"), Time: 4}, // u3's DM to viewer
	})

	if err := sel.SelectDirectMessage(ctx, "u2"); err != nil {
		t.Fatalf("SelectDirectMessage: %v", err)
	}

	list := sel.MessageList().Get()
	if len(list) != 2 {
		t.Fatalf("expected exactly the u1/u2 pair, got %d messages", len(list))
	}
	if list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("unexpected pair messages: %v", list)
	}
}

func TestSelectDirectMessageSelfChat(t *testing.T) {
	sel, fs := testSelector(t)
	ctx := context.Background()

	fs.messages.Set([]types.Message{
		{ID: "note", AuthorID: "u1", DirectUserID: strptr("u1"), Time: 1},
		{ID: "dm", AuthorID: "u1", DirectUserID: strptr("u2"), Time: 2},
	})

	if err := sel.SelectDirectMessage(ctx, "u1"); err != nil {
		t.Fatalf("SelectDirectMessage(self): %v", err)
	}

	list := sel.MessageList().Get()
	if len(list) != 1 || list[0].ID != "note" {
		t.Errorf("self-chat should only hold self-addressed messages, got %v", list)
	}
}

func TestMessageListDedupsEqualSnapshots(t *testing.T) {
	sel, fs := testSelector(t)
	ctx := context.Background()

	snapshot := []types.Message{
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Time: 100},
	}
	fs.messages.Set(snapshot)

	if err := sel.SelectChannel(ctx, "c1"); err != nil {
		t.Fatalf("SelectChannel: %v", err)
	}

	publishes := 0
	cancel := sel.MessageList().Subscribe(func([]types.Message) { publishes++ })
	defer cancel()
	publishes = 0

	// Backend re-push of a structurally identical snapshot must not
	// republish the derived list.
	fs.messages.Set([]types.Message{
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Time: 100},
	})
	if publishes != 0 {
		t.Errorf("equal snapshot republished %d times", publishes)
	}

	fs.messages.Set([]types.Message{
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Time: 100},
		{ID: "m2", ChannelID: strptr("c1"), AuthorID: "u2", Time: 200},
	})
	if publishes != 1 {
		t.Errorf("changed snapshot should publish once, got %d", publishes)
	}
}

func TestNavigateToReceivedDirectMessageResult(t *testing.T) {
	sel, fs := testSelector(t)
	ctx := context.Background()

	fs.messages.Set([]types.Message{
		{ID: "dm1", AuthorID: "u2", DirectUserID: strptr("u1"), Body: "ping", Time: 10},
	})

	// Selecting the conversation a search result points at must land in
	// the conversation that contains the found message.
	results := search.Search("ping", fs.messages.Get(), []types.User{
		{LocalID: "u1", Username: "alice"},
		{LocalID: "u2", Username: "bob"},
	}, nil, "u1")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	hit := results[0].(types.MessageResult)

	if err := sel.SelectDirectMessage(ctx, hit.ChannelID); err != nil {
		t.Fatalf("SelectDirectMessage(%q): %v", hit.ChannelID, err)
	}

	list := sel.MessageList().Get()
	found := false
	for _, m := range list {
		if m.ID == "dm1" {
			found = true
		}
	}
	if !found {
		t.Errorf("conversation %q does not contain dm1; list=%v", hit.ChannelID, list)
	}
}

func TestComposeModeAndMessageSent(t *testing.T) {
	sel, _ := testSelector(t)
	ctx := context.Background()

	if err := sel.SelectChannel(ctx, "c1"); err != nil {
		t.Fatalf("SelectChannel: %v", err)
	}
	sel.ToggleNewMessage()

	state := sel.Selection().Get()
	if state.Kind != SelectionComposeNew || state.ChannelID != "" || state.PeerID != "" {
		t.Fatalf("compose mode should clear other slots: %+v", state)
	}

	sel.SetPendingReveal("m42")
	sel.MessageSent()

	if sel.Selection().Get().Kind != SelectionIdle {
		t.Error("MessageSent should leave compose mode")
	}
	if sel.PendingReveal().Get() != "" {
		t.Error("MessageSent should clear the pending reveal")
	}
	if sel.SendCompleted().Get() != 1 {
		t.Errorf("send counter = %d, want 1", sel.SendCompleted().Get())
	}
}
