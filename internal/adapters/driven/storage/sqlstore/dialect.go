package sqlstore

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// dialect captures the SQL differences between supported databases.
type dialect struct {
	name string

	// driver is the database/sql driver name.
	driver string

	// numbered placeholders ($1, $2...) instead of "?".
	numbered bool

	// position is the substring-position function, e.g. instr or strpos.
	position string

	// castText wraps columns and parameters used in string lookups.
	castText bool
}

var (
	sqliteDialect = dialect{
		name:     "sqlite",
		driver:   "sqlite",
		position: "instr",
	}

	postgresDialect = dialect{
		name:     "postgres",
		driver:   "pgx",
		numbered: true,
		position: "strpos",
		castText: true,
	}
)

// dialectFor maps a configured driver to its dialect.
func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "pgx", "postgres", "postgresql":
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: database driver %q (choose from sqlite, pgx)", domain.ErrUnsupportedType, driver)
	}
}

// quote quotes an identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// args accumulates bound parameters and renders their placeholders.
type args struct {
	d      dialect
	values []any
}

// add binds v and returns its placeholder.
func (a *args) add(v any) string {
	a.values = append(a.values, v)
	if a.d.numbered {
		return fmt.Sprintf("$%d", len(a.values))
	}
	return "?"
}

// addText binds v as a text parameter.
func (a *args) addText(v any) string {
	p := a.add(fmt.Sprint(v))
	if a.d.castText {
		return "CAST(" + p + " AS TEXT)"
	}
	return p
}

// textColumn renders a column for string comparison.
func (d dialect) textColumn(col string) string {
	if d.castText {
		return "CAST(" + col + " AS TEXT)"
	}
	return col
}
