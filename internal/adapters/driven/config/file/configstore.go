package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const configFileName = "config.toml"

// ConfigStore persists configuration as TOML in the ansa config
// directory. Keys use dot notation ("retrieval.threshold") and map to
// TOML tables on disk, so the file stays hand-editable:
//
//	[retrieval]
//	threshold = 0.78
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a TOML-backed config store rooted at
// configDir, creating the directory if needed. An empty configDir
// defaults to ~/.ansa.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".ansa")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, configFileName),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value under key and whether it was present.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// lookup returns the raw value under key, nil when absent.
func (s *ConfigStore) lookup(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// GetString returns the string under key, "" when absent or another type.
func (s *ConfigStore) GetString(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// GetInt returns the integer under key. TOML decodes integers as
// int64; values set in-process may be plain int.
func (s *ConfigStore) GetInt(key string) int {
	switch v := s.lookup(key).(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// GetFloat returns the float under key. A value written without a
// decimal point arrives from TOML as an integer, so both widths
// convert.
func (s *ConfigStore) GetFloat(key string) float64 {
	switch v := s.lookup(key).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// GetBool returns the boolean under key, false when absent or another type.
func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.lookup(key).(bool)
	return b
}

// GetStringSlice returns the strings under key. TOML arrays decode as
// []any; non-string elements are skipped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	switch v := s.lookup(key).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores value under key and writes the file immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.save()
}

// Save writes the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the TOML file. Caller must hold the lock.
func (s *ConfigStore) save() error {
	blob, err := toml.Marshal(nestKeys(s.data))
	if err != nil {
		return err
	}
	// The file may hold API keys, so keep it owner-only.
	return os.WriteFile(s.filePath, blob, 0600)
}

// Load reads the TOML file, replacing in-memory state. A missing file
// is not an error: the store starts empty and materialises the file on
// the first Set.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(blob, &loaded); err != nil {
		return err
	}

	s.data = make(map[string]any, len(loaded))
	flattenKeys("", loaded, s.data)
	return nil
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenKeys collapses nested TOML tables into dot-notation keys:
// [retrieval] threshold=0.78 loads as "retrieval.threshold".
func flattenKeys(prefix string, in map[string]any, out map[string]any) {
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flattenKeys(full, table, out)
			continue
		}
		out[full] = value
	}
}

// nestKeys expands dot-notation keys back into nested tables for
// marshalling. Keys are processed in sorted order so a scalar that
// owns a prefix wins deterministically; a longer key colliding with it
// keeps its literal dotted form.
func nestKeys(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		insertNested(root, strings.Split(key, "."), flat[key])
	}
	return root
}

func insertNested(node map[string]any, parts []string, value any) {
	for len(parts) > 1 {
		child, ok := node[parts[0]]
		if !ok {
			table := make(map[string]any)
			node[parts[0]] = table
			node = table
			parts = parts[1:]
			continue
		}
		table, ok := child.(map[string]any)
		if !ok {
			node[strings.Join(parts, ".")] = value
			return
		}
		node = table
		parts = parts[1:]
	}
	node[parts[0]] = value
}
