package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// dbFileName is the database file created under the data directory.
const dbFileName = "ansa.db"

// dsnPragmas tunes the connection at open time: WAL so queries keep
// reading while indexing writes, plus a busy timeout instead of
// immediate SQLITE_BUSY.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store owns the SQLite connection shared by the registry and vector
// index ports.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database under dataDir and brings the
// schema up to date. An empty dataDir means ~/.ansa/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ansa", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the shared connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RegistryStore returns the document registry port backed by this store.
func (s *Store) RegistryStore() driven.RegistryStore {
	return &registryStore{store: s}
}

// VectorIndex returns the vector index port backed by this store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// migrate applies any embedded *.up.sql scripts newer than the version
// recorded in schema_migrations. Each script records its own version as
// its final statement, so a half-applied script is retried next open.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	scripts, err := pendingScripts(current)
	if err != nil {
		return err
	}
	for _, name := range scripts {
		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// pendingScripts lists the *.up.sql files with a version above current,
// in version order. The zero-padded numeric prefix makes lexical order
// the version order.
func pendingScripts(current int) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		if v, ok := scriptVersion(name); !ok || v <= current {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// scriptVersion parses the numeric prefix of a migration file name,
// "001_init.up.sql" being version 1.
func scriptVersion(name string) (int, bool) {
	var v int
	if _, err := fmt.Sscanf(name, "%d_", &v); err != nil {
		return 0, false
	}
	return v, true
}

// bytesPerFloat is the encoded width of one vector component.
const bytesPerFloat = 4

// float32SliceToBytes packs a vector as little-endian float32 for BLOB
// storage. nil in, nil out.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*bytesPerFloat)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*bytesPerFloat:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice unpacks a stored BLOB back into a vector.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/bytesPerFloat)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*bytesPerFloat:]))
	}
	return floats
}
