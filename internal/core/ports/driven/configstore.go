package driven

// ConfigStore is the flat key/value view of the settings file. Keys are
// dotted paths such as "retrieval.top_k". Typed getters return the zero
// value when a key is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts integer values.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value under key and writes the file.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the backing file; in-memory stores report ":memory:".
	Path() string
}
