package sqldb

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"
)

// RawSQLStore maps "group.name" keys to statements in the client's dialect
type RawSQLStore struct {
	stmts map[string]string
}

func NewRawStore() *RawSQLStore {
	return &RawSQLStore{stmts: make(map[string]string)}
}

func (s *RawSQLStore) Set(key string, rawStmt string) {
	s.stmts[key] = rawStmt
}

func (s *RawSQLStore) Get(key string) (string, bool) {
	stmt, exists := s.stmts[key]
	return stmt, exists
}

// MustGet is for statements shipped with the binary, where a miss is a programming error
func (s *RawSQLStore) MustGet(key string) string {
	stmt, ok := s.stmts[key]
	if !ok {
		panic(fmt.Sprintf("sqldb: raw stmt %q not loaded", key))
	}
	return stmt
}

func (s *RawSQLStore) Len() int {
	return len(s.stmts)
}

type StoreGroupedStmtKey struct {
	Group    string
	StmtName string
}

func (k StoreGroupedStmtKey) String() string {
	return k.Group + "." + k.StmtName
}

type GroupFS struct {
	Group string
	FS    fs.FS
}

var RawStoreRegistry []GroupFS

// RegisterGroup registers a filesystem whose `sql` dir holds the statements of a group.
// Packages call it from init() with their embed.FS
func RegisterGroup(fsys fs.FS, group string) {
	RawStoreRegistry = append(RawStoreRegistry, GroupFS{
		FS:    fsys,
		Group: group,
	})
}

// LoadRawStmtsToStore loads every registered group.
// A file with the dbtype extension (e.g. `insert.pgsql`) wins over the standard `.sql` one,
// whose static `?` placeholders get converted for the dialect.
func LoadRawStmtsToStore(store *RawSQLStore, dbtype string, logger *zap.Logger) error {
	placeholderPrefix := PlaceholderPrefixForDBType[dbtype]
	groupCnt := 0
	stmtCnt := 0
	for _, groupFS := range RawStoreRegistry {
		files, err := fs.ReadDir(groupFS.FS, "sql")
		if err != nil {
			return fmt.Errorf("failed to read embedded `sql` dir of %s: %w", groupFS.Group, err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			filename := f.Name()
			ext := path.Ext(filename)
			name := strings.TrimSuffix(filename, ext)
			ext = strings.TrimPrefix(ext, ".")
			if ext != dbtype && ext != "sql" {
				continue
			}
			data, err := fs.ReadFile(groupFS.FS, path.Join("sql", filename))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", filename, err)
			}
			groupedStmtKey := StoreGroupedStmtKey{Group: groupFS.Group, StmtName: name}.String()

			switch ext {
			case dbtype:
				// exact matching file extension -> use it as-is for dialects
				if _, exists := store.Get(groupedStmtKey); !exists {
					stmtCnt++
				}
				store.Set(groupedStmtKey, string(data))
			case "sql":
				// Standard SQL with static `?` placeholders
				if _, exists := store.Get(groupedStmtKey); !exists {
					store.Set(groupedStmtKey, ReplaceStaticPlaceholders(string(data), placeholderPrefix))
					stmtCnt++
				}
			}
		}
		groupCnt++
	}
	logger.Info("sql raw stmts loaded", zap.String("dbtype", dbtype), zap.Int("stmts", stmtCnt), zap.Int("groups", groupCnt))
	return nil
}
