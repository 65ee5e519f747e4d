package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// DefaultAlias is the database alias used when none is given.
const DefaultAlias = "default"

// Store is a read-only connection to a relational database.
type Store struct {
	db *sql.DB
	d  dialect

	mu     sync.Mutex
	tables map[string]tableInfo
}

var _ driven.RecordStore = (*Store)(nil)

// Open connects to the database at dsn using the named driver.
// Supported drivers are sqlite and pgx.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.name, err)
	}

	return &Store{
		db:     db,
		d:      d,
		tables: make(map[string]tableInfo),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Queryset returns a queryset over every row of the model's table.
func (s *Store) Queryset(model domain.ModelDefinition) driven.Queryset {
	return &queryset{store: s, model: model}
}

// table returns the column metadata of table, reading it once.
func (s *Store) table(ctx context.Context, table string) (tableInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.tables[table]; ok {
		return info, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quote(table)+" LIMIT 0")
	if err != nil {
		return tableInfo{}, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return tableInfo{}, fmt.Errorf("reading columns of %s: %w", table, err)
	}

	info := tableInfo{columns: make(map[string]column, len(types))}
	for _, ct := range types {
		info.columns[ct.Name()] = column{name: ct.Name(), kind: kindOf(ct.DatabaseTypeName())}
		info.order = append(info.order, ct.Name())
	}
	logger.Debug("sqlstore: table %s has columns %s", table, strings.Join(info.order, ", "))

	s.tables[table] = info
	return info, nil
}

// Database is the connection settings of one configured database.
type Database struct {
	Driver string
	DSN    string
}

// Opener opens stores by alias from a fixed set of databases.
type Opener struct {
	databases map[string]Database
}

var _ driven.StoreOpener = (*Opener)(nil)

// NewOpener creates an opener over databases keyed by alias.
func NewOpener(databases map[string]Database) *Opener {
	return &Opener{databases: databases}
}

// Open connects to the database registered under alias. An empty alias
// selects "default", or the only database when exactly one is configured.
func (o *Opener) Open(ctx context.Context, alias string) (driven.RecordStore, error) {
	db, name, err := o.lookup(alias)
	if err != nil {
		return nil, err
	}
	logger.Debug("sqlstore: opening database %s (%s)", name, db.Driver)
	return Open(ctx, db.Driver, db.DSN)
}

func (o *Opener) lookup(alias string) (Database, string, error) {
	if alias == "" {
		if db, ok := o.databases[DefaultAlias]; ok {
			return db, DefaultAlias, nil
		}
		if len(o.databases) == 1 {
			for name, db := range o.databases {
				return db, name, nil
			}
		}
		alias = DefaultAlias
	}
	if db, ok := o.databases[alias]; ok {
		return db, alias, nil
	}

	choices := make([]string, 0, len(o.databases))
	for name := range o.databases {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return Database{}, "", fmt.Errorf("%w: database %q, choices are: '%s'",
		domain.ErrNotFound, alias, strings.Join(choices, "', '"))
}
