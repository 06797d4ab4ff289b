package driven

// ConfigStore reads and writes application configuration. The typed
// getters return the zero value when a key is absent or holds another
// type; callers that must distinguish absence use Get.
type ConfigStore interface {
	// Get retrieves a raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value.
	GetString(key string) string

	// GetInt retrieves an integer value. Integer widths the backing
	// format produces (int64 from TOML) convert.
	GetInt(key string) int

	// GetFloat retrieves a floating-point value. Integers convert, so
	// a threshold written as "1" in the file still reads as 1.0.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice value.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save writes the current configuration to the backing store.
	Save() error

	// Load reads configuration from storage, replacing in-memory state.
	Load() error

	// Path names the backing file for log and error output.
	Path() string
}
