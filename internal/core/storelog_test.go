package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/lobbychat/internal/store/sqlite"
)

func TestStoreLogRoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	st, err := sqlite.New(":memory:")
	req.NoError(err)
	t.Cleanup(func() { _ = st.Close() })

	// Given a hub backed by the SQLite log
	h := NewHub(Options{Users: st, Log: NewStoreLog(st)})
	for _, name := range []string{"alice", "bob"} {
		_, err := st.CreateUser(ctx, name, "hash")
		req.NoError(err)
	}
	alice := connectAs(t, h, "a", "alice")
	connectAs(t, h, "b", "bob")

	// When alice writes to bob and the Lobby
	out, err := h.Send(ctx, alice, "bob", "hi")
	req.NoError(err)
	req.NotZero(out.Message.ID)
	_, err = h.Send(ctx, alice, Lobby, "hi-room")
	req.NoError(err)

	// Then both conversations read back from the database
	direct, err := h.History(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal([]string{"hi"}, bodies(direct))

	room, err := h.History(ctx, "bob", Lobby)
	req.NoError(err)
	req.Equal([]string{"hi-room"}, bodies(room))
	req.True(room[0].ToLobby())
}
