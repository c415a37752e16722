package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
`

// SQLite stores one JSON document per row and republishes the full
// collection snapshot after every mutation.
type SQLite struct {
	db   *sql.DB
	path string
	log  *zap.SugaredLogger

	writeMu sync.Mutex

	messages *stream.Value[[]types.Message]
	users    *stream.Value[[]types.User]
	channels *stream.Value[[]types.Channel]

	watcher *watcher
}

// Open opens (creating if needed) the store at path and loads the initial
// snapshots.
func Open(path string, log *zap.SugaredLogger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLite{
		db:       conn,
		path:     path,
		log:      log,
		messages: stream.New([]types.Message{}),
		users:    stream.New([]types.User{}),
		channels: stream.New([]types.Channel{}),
	}
	s.RefreshAll()
	return s, nil
}

// Close stops the watcher, if any, and closes the database.
func (s *SQLite) Close() error {
	if s.watcher != nil {
		s.watcher.stop()
	}
	return s.db.Close()
}

// Messages returns the live snapshot stream of the userMessages collection.
func (s *SQLite) Messages() *stream.Value[[]types.Message] { return s.messages }

// Users returns the live snapshot stream of the users collection.
func (s *SQLite) Users() *stream.Value[[]types.User] { return s.users }

// Channels returns the live snapshot stream of the channels collection.
func (s *SQLite) Channels() *stream.Value[[]types.Channel] { return s.channels }

// GetUser reads one user document. Returns (nil, nil) when absent.
func (s *SQLite) GetUser(ctx context.Context, id string) (*types.User, error) {
	raw, ok, err := s.getDoc(ctx, CollectionUsers, id)
	if err != nil || !ok {
		return nil, err
	}
	var user types.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return &user, nil
}

// GetChannel reads one channel document. Returns (nil, nil) when absent.
func (s *SQLite) GetChannel(ctx context.Context, id string) (*types.Channel, error) {
	raw, ok, err := s.getDoc(ctx, CollectionChannels, id)
	if err != nil || !ok {
		return nil, err
	}
	var channel types.Channel
	if err := json.Unmarshal(raw, &channel); err != nil {
		return nil, fmt.Errorf("decode channel %s: %w", id, err)
	}
	return &channel, nil
}

// AddMessage writes a new message document, assigning an id and timestamp
// when unset, and republishes the message snapshot.
func (s *SQLite) AddMessage(ctx context.Context, msg types.Message) (types.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Time == 0 {
		msg.Time = time.Now().Unix()
	}
	if msg.Comments == nil {
		msg.Comments = []string{}
	}
	if msg.Emojis == nil {
		msg.Emojis = []string{}
	}
	if err := s.putDoc(ctx, CollectionMessages, msg.ID, msg); err != nil {
		return types.Message{}, err
	}
	s.refreshMessages()
	return msg, nil
}

// PutUser upserts a user document, assigning a LocalID when unset.
func (s *SQLite) PutUser(ctx context.Context, user types.User) (types.User, error) {
	if user.LocalID == "" {
		user.LocalID = uuid.NewString()
	}
	if err := s.putDoc(ctx, CollectionUsers, user.LocalID, user); err != nil {
		return types.User{}, err
	}
	s.refreshUsers()
	return user, nil
}

// PutChannel upserts a channel document, assigning an id when unset.
func (s *SQLite) PutChannel(ctx context.Context, channel types.Channel) (types.Channel, error) {
	if channel.ID == "" {
		channel.ID = uuid.NewString()
	}
	if channel.Members == nil {
		channel.Members = map[string]bool{}
	}
	if err := s.putDoc(ctx, CollectionChannels, channel.ID, channel); err != nil {
		return types.Channel{}, err
	}
	s.refreshChannels()
	return channel, nil
}

// PatchDoc merges fields into an existing document and republishes the
// collection. Patching a missing document is an error.
func (s *SQLite) PatchDoc(ctx context.Context, collection, id string, fields map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, ok, err := s.getDoc(ctx, collection, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("patch %s/%s: document not found", collection, id)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET fields = ? WHERE collection = ? AND id = ?`,
		string(merged), collection, id)
	if err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, id, err)
	}

	s.refreshCollection(collection)
	return nil
}

// RefreshAll reloads every collection snapshot from disk and republishes.
// Called on open and by the file watcher when another process writes.
func (s *SQLite) RefreshAll() {
	s.refreshMessages()
	s.refreshUsers()
	s.refreshChannels()
}

func (s *SQLite) refreshCollection(collection string) {
	switch collection {
	case CollectionMessages:
		s.refreshMessages()
	case CollectionUsers:
		s.refreshUsers()
	case CollectionChannels:
		s.refreshChannels()
	}
}

func (s *SQLite) getDoc(ctx context.Context, collection, id string) (json.RawMessage, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return json.RawMessage(raw), true, nil
}

func (s *SQLite) putDoc(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields
	`, collection, id, string(data))
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return nil
}

// readAll scans a collection in insertion order. Decode failures and query
// failures degrade to an empty snapshot and are logged, never propagated.
func readAll[T any](s *SQLite, collection string) []T {
	rows, err := s.db.Query(
		`SELECT fields FROM documents WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		s.log.Warnw("collection query failed", "collection", collection, "error", err)
		return []T{}
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			s.log.Warnw("collection scan failed", "collection", collection, "error", err)
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.log.Warnw("skipping undecodable document", "collection", collection, "error", err)
			continue
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		s.log.Warnw("collection iteration failed", "collection", collection, "error", err)
	}
	return out
}

func (s *SQLite) refreshMessages() { s.messages.Set(readAll[types.Message](s, CollectionMessages)) }
func (s *SQLite) refreshUsers()    { s.users.Set(readAll[types.User](s, CollectionUsers)) }
func (s *SQLite) refreshChannels() { s.channels.Set(readAll[types.Channel](s, CollectionChannels)) }
