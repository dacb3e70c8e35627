package storage

// Keys of the durable values the client persists between runs. The key
// names are part of the stored-data format and must not change.
const (
	KeyCart          = "lemonadeCart"
	KeyUser          = "currentUser"
	KeyNotifications = "lemonadeNotifications"
	KeyTheme         = "theme"
)

// Store is the durable key-value store surviving restarts. Writes are
// last-write-wins full-value replaces and best-effort: a failing backend
// must never surface an error to the caller, it degrades to in-memory
// operation for that write. JSON encoding of structured values happens
// at the call site, never inside the store.
type Store interface {
	// Get returns the value for key, with ok=false when absent or when
	// the backend is unavailable.
	Get(key string) (value string, ok bool)
	// Set replaces the value for key.
	Set(key, value string)
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)
}
