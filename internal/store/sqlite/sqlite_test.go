package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/lobbychat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateSetsVersion(t *testing.T) {
	s := newTestStore(t)

	version, err := Version(s.DB())
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
}

func TestNewWithSetupAppliesManualSchema(t *testing.T) {
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(`
		CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		`)
		return err
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateUser(context.Background(), "alice", "hash")
	require.NoError(t, err)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Seed users
	for _, u := range []string{"carol", "alice", "bob"} {
		_, err := s.CreateUser(ctx, u, "hash-"+u)
		require.NoError(t, err, "create %s", u)
	}

	t.Run("usernames keep registration order", func(t *testing.T) {
		names, err := s.ListUsernames(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"carol", "alice", "bob"}, names)
	})

	t.Run("list users", func(t *testing.T) {
		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		require.Equal(t, "hash-alice", users[1].PasswordHash)
		require.False(t, users[0].CreatedAt.IsZero())
	})

	t.Run("lookup by username", func(t *testing.T) {
		u, err := s.GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, "bob", u.Username)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.GetUserByUsername(ctx, "dave")
		require.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "alice", "other")
		require.Error(t, err)
	})
}

func TestMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []store.Message{
		{Sender: "alice", Recipient: "Lobby", Body: "hello all"},
		{Sender: "alice", Recipient: "bob", Body: "hi bob"},
		{Sender: "bob", Recipient: "alice", Body: "hi alice"},
		{Sender: "carol", Recipient: "bob", Body: "psst"},
		{Sender: "bob", Recipient: "Lobby", Body: "morning"},
	}
	for i := range seed {
		msg := seed[i]
		msg.SentAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveMessage(ctx, &msg))
		require.NotZero(t, msg.ID)
	}

	t.Run("room", func(t *testing.T) {
		msgs, err := s.ListRoomMessages(ctx, "Lobby")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		require.Equal(t, "hello all", msgs[0].Body)
		require.Equal(t, "morning", msgs[1].Body)
		require.True(t, msgs[0].SentAt.Equal(base))
	})

	t.Run("conversation in both directions", func(t *testing.T) {
		ab, err := s.ListConversation(ctx, "alice", "bob")
		require.NoError(t, err)
		ba, err := s.ListConversation(ctx, "bob", "alice")
		require.NoError(t, err)

		require.Len(t, ab, 2)
		require.Equal(t, "hi bob", ab[0].Body)
		require.Equal(t, "hi alice", ab[1].Body)
		require.Equal(t, ab, ba)
	})

	t.Run("empty conversation", func(t *testing.T) {
		msgs, err := s.ListConversation(ctx, "alice", "carol")
		require.NoError(t, err)
		require.Empty(t, msgs)
	})
}
