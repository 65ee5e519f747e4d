// Package sqlstore reads model records from a relational database.
//
// Two drivers are supported through database/sql:
//
//   - sqlite: modernc.org/sqlite, a pure Go SQLite implementation
//   - pgx: github.com/jackc/pgx/v5/stdlib for PostgreSQL
//
// Querysets compile field lookups such as "title__icontains" or
// "pk__in" into parameterised SQL. Column metadata is read once per
// table and used both to validate lookups and to bind values with the
// column's type.
package sqlstore
