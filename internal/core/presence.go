package core

// PresenceEntry is the derived online/offline status of one registered user.
type PresenceEntry struct {
	Username string
	Online   bool
	ConnID   string
}

// Reconciler turns the registered-user set and the live bindings into an
// ordered presence list.
type Reconciler interface {
	Reconcile(registered []string, live []Binding) []PresenceEntry
}

// FullReconciler recomputes the whole list on every call.
type FullReconciler struct{}

// Reconcile implements Reconciler.
func (FullReconciler) Reconcile(registered []string, live []Binding) []PresenceEntry {
	return Reconcile(registered, live)
}

// Reconcile emits one entry per registered user, in input order. Live
// bindings for usernames that are not registered are left out.
func Reconcile(registered []string, live []Binding) []PresenceEntry {
	online := make(map[string]string, len(live))
	for _, b := range live {
		online[b.Username] = b.ConnID
	}

	entries := make([]PresenceEntry, 0, len(registered))
	for _, username := range registered {
		connID, ok := online[username]
		entries = append(entries, PresenceEntry{
			Username: username,
			Online:   ok,
			ConnID:   connID,
		})
	}
	return entries
}

// findEntry returns the index of username in list, or -1.
func findEntry(list []PresenceEntry, username string) int {
	for i := range list {
		if list[i].Username == username {
			return i
		}
	}
	return -1
}

func clonePresence(list []PresenceEntry) []PresenceEntry {
	if list == nil {
		return nil
	}
	out := make([]PresenceEntry, len(list))
	copy(out, list)
	return out
}
