package core

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		registered []string
		live       []Binding
		expected   []PresenceEntry
	}{
		{
			name:       "nobody online",
			registered: []string{"alice", "bob"},
			expected: []PresenceEntry{
				{Username: "alice"},
				{Username: "bob"},
			},
		},
		{
			name:       "keeps registration order",
			registered: []string{"bob", "alice"},
			live:       []Binding{{Username: "alice", ConnID: "c1"}},
			expected: []PresenceEntry{
				{Username: "bob"},
				{Username: "alice", Online: true, ConnID: "c1"},
			},
		},
		{
			name:       "unregistered live binding is dropped",
			registered: []string{"alice"},
			live: []Binding{
				{Username: "alice", ConnID: "c1"},
				{Username: "mallory", ConnID: "c2"},
			},
			expected: []PresenceEntry{
				{Username: "alice", Online: true, ConnID: "c1"},
			},
		},
		{
			name:     "no registered users",
			live:     []Binding{{Username: "alice", ConnID: "c1"}},
			expected: []PresenceEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Reconcile(tt.registered, tt.live))
			require.Equal(t, tt.expected, FullReconciler{}.Reconcile(tt.registered, tt.live))
		})
	}
}

func TestReconcile_Online_Iff_Live(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		var registered []string
		var live []Binding
		liveSet := map[string]string{}

		for i := 0; i < rng.Intn(20); i++ {
			name := fmt.Sprintf("user%d", i)
			if rng.Intn(3) > 0 {
				registered = append(registered, name)
			}
			if rng.Intn(2) == 0 {
				id := fmt.Sprintf("conn%d", i)
				live = append(live, Binding{Username: name, ConnID: id})
				liveSet[name] = id
			}
		}

		entries := Reconcile(registered, live)
		require.Len(t, entries, len(registered))
		for i, e := range entries {
			require.Equal(t, registered[i], e.Username)
			id, online := liveSet[e.Username]
			require.Equal(t, online, e.Online, "round %d user %s", round, e.Username)
			require.Equal(t, id, e.ConnID)
		}
	}
}
