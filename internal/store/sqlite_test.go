package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/openclack/clack/internal/logger"
	"github.com/openclack/clack/internal/types"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clack.db")
	s, err := Open(path, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddMessagePublishesSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var snapshots int
	cancel := s.Messages().Subscribe(func([]types.Message) { snapshots++ })
	defer cancel()

	msg, err := s.AddMessage(ctx, types.Message{AuthorID: "u1", Body: "hello", Time: 100})
	if err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected a generated message id")
	}

	got := s.Messages().Get()
	if len(got) != 1 || got[0].Body != "hello" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if snapshots < 2 {
		t.Errorf("expected replay plus update, got %d publishes", snapshots)
	}
}

func TestGetUserMissingIsNilNil(t *testing.T) {
	s := openTestStore(t)

	user, err := s.GetUser(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestPutAndGetChannel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ch, err := s.PutChannel(ctx, types.Channel{
		Name:    "general",
		Members: map[string]bool{"u1": true, "u2": false},
	})
	if err != nil {
		t.Fatalf("PutChannel: %v", err)
	}

	got, err := s.GetChannel(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if got == nil || got.Name != "general" {
		t.Fatalf("unexpected channel: %+v", got)
	}
	if !got.Members["u1"] || got.Members["u2"] {
		t.Errorf("membership flags not preserved: %+v", got.Members)
	}
}

func TestPatchDocMergesFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	msg, err := s.AddMessage(ctx, types.Message{AuthorID: "u1", Body: "before", Time: 5})
	if err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	if err := s.PatchDoc(ctx, CollectionMessages, msg.ID, map[string]any{
		"emojis": []string{"👍"},
	}); err != nil {
		t.Fatalf("PatchDoc: %v", err)
	}

	got := s.Messages().Get()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Body != "before" || len(got[0].Emojis) != 1 {
		t.Errorf("patch did not merge: %+v", got[0])
	}
}

func TestPatchMissingDocFails(t *testing.T) {
	s := openTestStore(t)
	err := s.PatchDoc(context.Background(), CollectionMessages, "missing", map[string]any{"body": "x"})
	if err == nil {
		t.Error("expected error patching missing document")
	}
}

func TestSnapshotsKeepInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := s.PutUser(ctx, types.User{Username: name}); err != nil {
			t.Fatalf("PutUser(%s): %v", name, err)
		}
	}

	users := s.Users().Get()
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if users[i].Username != want {
			t.Errorf("users[%d] = %q, want %q", i, users[i].Username, want)
		}
	}
}
