package search

import (
	"testing"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

func strptr(s string) *string { return &s }

func fixtures() ([]types.Message, []types.User, []types.Channel) {
	messages := []types.Message{
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Body: "hello world", Time: 100},
	}
	users := []types.User{
		{LocalID: "u1", Username: "alice", Email: "alice@example.com", PhotoURL: "alice.png"},
		{LocalID: "u2", Username: "bob", Email: "bob@example.com"},
	}
	channels := []types.Channel{
		{ID: "c1", Name: "general", Members: map[string]bool{"u2": true}},
	}
	return messages, users, channels
}

func TestEmptyQueryReturnsNothing(t *testing.T) {
	messages, users, channels := fixtures()
	for _, q := range []string{"", "   ", "\t\n"} {
		if got := Search(q, messages, users, channels, "u2"); len(got) != 0 {
			t.Errorf("Search(%q) = %d results, want 0", q, len(got))
		}
	}
}

func TestMessageHitRespectsAccess(t *testing.T) {
	messages, users, channels := fixtures()

	got := Search("hello", messages, users, channels, "u2")
	if len(got) != 1 {
		t.Fatalf("member search: got %d results, want 1", len(got))
	}
	hit, ok := got[0].(types.MessageResult)
	if !ok || hit.Kind() != types.ResultKindMessage {
		t.Fatalf("expected a message result, got %T", got[0])
	}
	if hit.AuthorName != "alice" {
		t.Errorf("author name = %q, want alice", hit.AuthorName)
	}
	if hit.ChannelName != "general" {
		t.Errorf("channel name = %q, want general", hit.ChannelName)
	}

	if got := Search("hello", messages, users, channels, "u3"); len(got) != 0 {
		t.Errorf("non-member search: got %d results, want 0", len(got))
	}
}

func TestMatchOnAuthorUsername(t *testing.T) {
	messages, users, channels := fixtures()
	// "alice" matches the author, and u2 is a channel member, so the message
	// surfaces even though its body doesn't contain the term. The user entry
	// for alice also matches.
	got := Search("alice", messages, users, channels, "u2")
	if len(got) != 2 {
		t.Fatalf("got %d results, want message + user", len(got))
	}
	if got[0].Kind() != types.ResultKindMessage {
		t.Errorf("first result kind = %v, want message", got[0].Kind())
	}
	if got[1].Kind() != types.ResultKindUser {
		t.Errorf("second result kind = %v, want user", got[1].Kind())
	}
}

func TestUserHitIndependentOfMessages(t *testing.T) {
	_, users, _ := fixtures()
	got := Search("alice", nil, users, nil, "u9")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.UserResult)
	if hit.Username != "alice" || hit.UserID != "u1" {
		t.Errorf("unexpected user result: %+v", hit)
	}
}

func TestUserHitWithSigil(t *testing.T) {
	_, users, _ := fixtures()
	got := Search("@alice", nil, users, nil, "u9")
	if len(got) != 1 || got[0].Kind() != types.ResultKindUser {
		t.Fatalf("@-search failed: %+v", got)
	}
	if got[0].(types.UserResult).Username != "alice" {
		t.Errorf("unexpected user: %+v", got[0])
	}

	// A bare sigil lists every user.
	if got := Search("@", nil, users, nil, "u9"); len(got) != 2 {
		t.Errorf("bare @ should list all users, got %d", len(got))
	}
}

func TestChannelHitWithSigil(t *testing.T) {
	_, users, channels := fixtures()
	got := Search("#general", nil, users, channels, "u2")
	if len(got) != 1 || got[0].Kind() != types.ResultKindChannel {
		t.Fatalf("#-search failed: %+v", got)
	}
}

func TestUserHitByEmail(t *testing.T) {
	_, users, _ := fixtures()
	got := Search("bob@example", nil, users, nil, "u9")
	if len(got) != 1 || got[0].Kind() != types.ResultKindUser {
		t.Fatalf("email search failed: %+v", got)
	}
}

func TestChannelHitMembersOnly(t *testing.T) {
	messages, users, channels := fixtures()

	if got := Search("general", messages, users, channels, "u1"); len(got) != 0 {
		t.Errorf("non-member should not see channel hits, got %d", len(got))
	}

	got := Search("general", messages, users, channels, "u2")
	if len(got) != 1 {
		t.Fatalf("member channel search: got %d results, want 1", len(got))
	}
	hit := got[0].(types.ChannelResult)
	if len(hit.Members) != 1 {
		t.Fatalf("expected 1 resolved member, got %d", len(hit.Members))
	}
	if hit.Members[0].Username != "bob" {
		t.Errorf("member username = %q, want bob", hit.Members[0].Username)
	}
}

func TestChannelMemberCountMatchesTrueFlags(t *testing.T) {
	channels := []types.Channel{
		{ID: "c1", Name: "dev", Members: map[string]bool{
			"u1": true, "u2": false, "u3": true, "u4": true,
		}},
	}
	got := Search("dev", nil, nil, channels, "u1")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.ChannelResult)
	if len(hit.Members) != 3 {
		t.Errorf("member list length = %d, want 3 (only true flags)", len(hit.Members))
	}
	for _, m := range hit.Members {
		if m.Username != types.UnknownMemberName {
			t.Errorf("unresolvable member should fall back to %q, got %q", types.UnknownMemberName, m.Username)
		}
	}
}

func TestDeletedAuthorFallback(t *testing.T) {
	messages := []types.Message{
		{ID: "m1", AuthorID: "ghost", DirectUserID: strptr("u2"), Body: "hey there", Time: 5},
	}
	got := Search("hey", messages, nil, nil, "u2")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.MessageResult)
	if hit.Kind() != types.ResultKindDirectMessage {
		t.Errorf("kind = %v, want directMessage", hit.Kind())
	}
	if hit.AuthorName != types.DeletedUserName {
		t.Errorf("author fallback = %q, want %q", hit.AuthorName, types.DeletedUserName)
	}
	if hit.AuthorPhoto != types.DeletedUserPhoto {
		t.Errorf("photo fallback = %q", hit.AuthorPhoto)
	}
}

func TestReceivedDirectMessagePointsAtSender(t *testing.T) {
	messages := []types.Message{
		{ID: "dm1", AuthorID: "u2", DirectUserID: strptr("u1"), Body: "ping", Time: 10},
	}
	users := []types.User{
		{LocalID: "u1", Username: "alice"},
		{LocalID: "u2", Username: "bob"},
	}

	got := Search("ping", messages, users, nil, "u1")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.MessageResult)
	if hit.Kind() != types.ResultKindDirectMessage {
		t.Fatalf("kind = %v, want directMessage", hit.Kind())
	}
	// The conversation is the other party, not the viewer's own id.
	if hit.ChannelID != "u2" {
		t.Errorf("conversation id = %q, want the sender u2", hit.ChannelID)
	}
	if hit.ChannelName != "bob" {
		t.Errorf("conversation name = %q, want bob", hit.ChannelName)
	}
}

func TestSelfChatResultKeepsOwnID(t *testing.T) {
	messages := []types.Message{
		{ID: "note", AuthorID: "u1", DirectUserID: strptr("u1"), Body: "remember this", Time: 1},
	}
	users := []types.User{{LocalID: "u1", Username: "alice"}}

	got := Search("remember", messages, users, nil, "u1")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.MessageResult)
	if hit.ChannelID != "u1" || hit.ChannelName != "alice" {
		t.Errorf("self-chat result = (%q, %q), want (u1, alice)", hit.ChannelID, hit.ChannelName)
	}
}

func TestReceivedThreadReplyPointsAtSender(t *testing.T) {
	messages := []types.Message{
		{ID: "m1", AuthorID: "u2", DirectUserID: strptr("u1"), Body: "root", Time: 1, Comments: []string{"r1"}},
		{ID: "r1", AuthorID: "u2", Body: "threaded ping", Time: 2},
	}
	users := []types.User{
		{LocalID: "u1", Username: "alice"},
		{LocalID: "u2", Username: "bob"},
	}

	got := Search("threaded", messages, users, nil, "u1")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.MessageResult)
	if hit.Kind() != types.ResultKindThread {
		t.Fatalf("kind = %v, want thread", hit.Kind())
	}
	if hit.ChannelID != "u2" || hit.ChannelName != "bob" {
		t.Errorf("thread conversation = (%q, %q), want the parent's sender (u2, bob)", hit.ChannelID, hit.ChannelName)
	}
}

func TestThreadReplyEnrichment(t *testing.T) {
	messages := []types.Message{
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Body: "root", Time: 1, Comments: []string{"r1"}},
		{ID: "r1", AuthorID: "u2", Body: "threaded answer", Time: 2},
	}
	users := []types.User{
		{LocalID: "u1", Username: "alice"},
		{LocalID: "u2", Username: "bob"},
	}
	channels := []types.Channel{{ID: "c1", Name: "general", Members: map[string]bool{"u1": true, "u2": true}}}

	got := Search("threaded", messages, users, channels, "u1")
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	hit := got[0].(types.MessageResult)
	if hit.Kind() != types.ResultKindThread {
		t.Errorf("kind = %v, want thread", hit.Kind())
	}
	if hit.ChannelName != "general" {
		t.Errorf("thread reply should inherit parent channel name, got %q", hit.ChannelName)
	}
	if hit.ParentMessageID != "m1" {
		t.Errorf("parent id = %q, want m1", hit.ParentMessageID)
	}
	if hit.RespondentName != "alice" {
		t.Errorf("respondent = %q, want alice", hit.RespondentName)
	}
}

func TestGroupingInvariant(t *testing.T) {
	messages := []types.Message{
		{ID: "m1", ChannelID: strptr("c1"), AuthorID: "u1", Body: "dev talk", Time: 1},
	}
	users := []types.User{
		{LocalID: "u1", Username: "devin"},
	}
	channels := []types.Channel{
		{ID: "c1", Name: "dev", Members: map[string]bool{"u1": true}},
	}

	got := Search("dev", messages, users, channels, "u1")
	rank := map[types.ResultKind]int{
		types.ResultKindMessage:       0,
		types.ResultKindDirectMessage: 0,
		types.ResultKindThread:        0,
		types.ResultKindUser:          1,
		types.ResultKindChannel:       2,
	}
	last := -1
	for i, r := range got {
		if rank[r.Kind()] < last {
			t.Fatalf("result %d (%v) breaks group ordering", i, r.Kind())
		}
		last = rank[r.Kind()]
	}
	if len(got) != 3 {
		t.Errorf("expected message + user + channel, got %d results", len(got))
	}
}

func TestHasResultsIsEdgeTriggered(t *testing.T) {
	messages, users, channels := fixtures()
	agg := New(
		stream.New(messages),
		stream.New(users),
		stream.New(channels),
		"u2",
		logger.Nop(),
	)

	published := 0
	cancel := agg.HasResults().Subscribe(func(bool) { published++ })
	defer cancel()
	published = 0 // drop the replay

	agg.Search("hello")
	agg.Search("hello world")
	if published != 1 {
		t.Errorf("two hit queries should publish once, got %d", published)
	}

	agg.Search("zzz-no-match")
	if published != 2 {
		t.Errorf("transition to no results should publish, got %d", published)
	}
	if agg.HasResults().Get() {
		t.Error("has-results should be false after a miss")
	}
}
