package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

// queryset is an immutable SQL query over one model's table.
type queryset struct {
	store    *Store
	model    domain.ModelDefinition
	filters  []domain.PredicateSet
	excludes []domain.PredicateSet
}

var _ driven.Queryset = (*queryset)(nil)

func (q *queryset) Model() domain.ModelDefinition {
	return q.model
}

func (q *queryset) Filter(set domain.PredicateSet) driven.Queryset {
	if set.Empty() {
		return q
	}
	next := q.clone()
	next.filters = append(next.filters, set)
	return next
}

func (q *queryset) Exclude(set domain.PredicateSet) driven.Queryset {
	if set.Empty() {
		return q
	}
	next := q.clone()
	next.excludes = append(next.excludes, set)
	return next
}

func (q *queryset) clone() *queryset {
	return &queryset{
		store:    q.store,
		model:    q.model,
		filters:  append([]domain.PredicateSet(nil), q.filters...),
		excludes: append([]domain.PredicateSet(nil), q.excludes...),
	}
}

func (q *queryset) Count(ctx context.Context) (int, error) {
	a := &args{d: q.store.d}
	where, _, err := q.where(ctx, a)
	if err != nil {
		return 0, err
	}

	var n int
	query := "SELECT COUNT(*) FROM " + quote(q.model.Table) + where
	if err := q.store.db.QueryRowContext(ctx, query, a.values...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q.model.Name, err)
	}
	return n, nil
}

func (q *queryset) Fetch(ctx context.Context, offset, limit int) ([]domain.Record, error) {
	a := &args{d: q.store.d}
	where, pk, err := q.where(ctx, a)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %s OFFSET %s",
		q.columns(), quote(q.model.Table), where, quote(pk.name), a.add(limit), a.add(offset))
	return q.query(ctx, query, a.values)
}

func (q *queryset) FetchAfter(ctx context.Context, after any, limit int) ([]domain.Record, error) {
	a := &args{d: q.store.d}
	where, pk, err := q.where(ctx, a)
	if err != nil {
		return nil, err
	}
	if after != nil {
		cond := quote(pk.name) + " > " + a.add(after)
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %s",
		q.columns(), quote(q.model.Table), where, quote(pk.name), a.add(limit))
	return q.query(ctx, query, a.values)
}

// where compiles the filters and excludes into a WHERE clause and
// resolves the primary key column.
func (q *queryset) where(ctx context.Context, a *args) (string, column, error) {
	info, err := q.store.table(ctx, q.model.Table)
	if err != nil {
		return "", column{}, err
	}
	c := &compiler{d: q.store.d, args: a, info: info, model: q.model}

	pk, err := c.resolve("pk")
	if err != nil {
		return "", column{}, err
	}
	for _, f := range q.model.Fields {
		if _, err := c.resolve(f.Name); err != nil {
			return "", column{}, err
		}
	}

	var clauses []string
	for _, set := range q.filters {
		sql, err := c.set(set)
		if err != nil {
			return "", column{}, err
		}
		clauses = append(clauses, sql)
	}
	for _, set := range q.excludes {
		sql, err := c.set(set)
		if err != nil {
			return "", column{}, err
		}
		// A NULL comparison inside an exclude counts as no match, so the
		// row is kept.
		clauses = append(clauses, "NOT COALESCE("+sql+", FALSE)")
	}
	if len(clauses) == 0 {
		return "", pk, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), pk, nil
}

// columns renders the select list: the primary key plus configured fields,
// or every column when the model declares none.
func (q *queryset) columns() string {
	if len(q.model.Fields) == 0 {
		return "*"
	}
	cols := []string{quote(q.model.PrimaryKey)}
	for _, f := range q.model.Fields {
		if f.Name == q.model.PrimaryKey {
			continue
		}
		cols = append(cols, quote(f.Name))
	}
	return strings.Join(cols, ", ")
}

func (q *queryset) query(ctx context.Context, query string, values []any) ([]domain.Record, error) {
	rows, err := q.store.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.model.Name, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.model.Name, err)
	}

	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.model.Name, err)
		}

		rec := domain.Record{Fields: make(map[string]any, len(names))}
		for i, name := range names {
			rec.Fields[name] = normalize(values[i])
		}
		rec.PK = rec.Fields[q.model.PrimaryKey]
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", q.model.Name, err)
	}
	return records, nil
}

// normalize converts driver values into plain Go values.
func normalize(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	default:
		return val
	}
}
