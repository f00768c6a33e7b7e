package driven

// ConfigStore persists application settings: shared request headers
// and cookies, tag aliases, and finder credentials.
type ConfigStore interface {
	// Get retrieves a value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, "" when absent.
	GetString(key string) string

	// Set stores a value and persists it.
	Set(key string, value any) error

	// Delete removes a key and persists the change.
	Delete(key string) error

	// Keys returns all stored keys.
	Keys() []string

	// Watch invokes fn whenever the backing file changes on disk.
	// Returns a stop function. Implementations that cannot watch
	// return a no-op stop function and never call fn.
	Watch(fn func()) (stop func(), err error)
}
