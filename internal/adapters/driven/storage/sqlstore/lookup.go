package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// inlineThreshold is the size above which integer IN lists are rendered
// as literals instead of bound parameters, keeping large "missing"
// exclusions under driver parameter limits.
const inlineThreshold = 500

type columnKind int

const (
	kindOther columnKind = iota
	kindInteger
	kindText
)

type column struct {
	name string
	kind columnKind
}

// tableInfo lists the columns of a table in declaration order.
type tableInfo struct {
	columns map[string]column
	order   []string
}

func kindOf(databaseType string) columnKind {
	t := strings.ToUpper(databaseType)
	switch {
	case strings.Contains(t, "INT"):
		return kindInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"),
		strings.Contains(t, "UUID"), strings.Contains(t, "STRING"):
		return kindText
	default:
		return kindOther
	}
}

// compiler renders predicates of one model into SQL.
type compiler struct {
	d     dialect
	args  *args
	info  tableInfo
	model domain.ModelDefinition
}

// resolve maps a field name (or the "pk" alias) to a column.
func (c *compiler) resolve(field string) (column, error) {
	if field == "pk" {
		field = c.model.PrimaryKey
	}
	col, ok := c.info.columns[field]
	if !ok {
		choices := append([]string{"pk"}, c.info.order...)
		return column{}, &domain.FieldError{Field: field, Choices: choices}
	}
	return col, nil
}

// set renders a conjunction, "(a AND b)".
func (c *compiler) set(set domain.PredicateSet) (string, error) {
	parts := make([]string, 0, len(set))
	for _, p := range set {
		sql, err := c.predicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

//nolint:gocyclo // One case per supported lookup
func (c *compiler) predicate(p domain.Predicate) (string, error) {
	col, err := c.resolve(p.Field())
	if err != nil {
		return "", err
	}
	op := p.Operator()
	name := quote(col.name)

	if p.Value == nil && op != "exact" && op != "iexact" && op != "isnull" {
		return "", &domain.FieldError{Field: col.name, Reason: fmt.Sprintf("Cannot use null as a value for lookup '%s'", op)}
	}

	switch op {
	case "exact":
		if p.Value == nil {
			return name + " IS NULL", nil
		}
		v, err := c.scalar(col, p.Value)
		if err != nil {
			return "", err
		}
		return name + " = " + c.args.add(v), nil

	case "iexact":
		if p.Value == nil {
			return name + " IS NULL", nil
		}
		return fmt.Sprintf("lower(%s) = lower(%s)", c.d.textColumn(name), c.args.addText(textValue(p.Value))), nil

	case "contains", "icontains", "startswith", "istartswith":
		target := c.d.textColumn(name)
		param := c.args.addText(textValue(p.Value))
		if strings.HasPrefix(op, "i") {
			target, param = "lower("+target+")", "lower("+param+")"
		}
		pos := fmt.Sprintf("%s(%s, %s)", c.d.position, target, param)
		if strings.HasSuffix(op, "startswith") {
			return pos + " = 1", nil
		}
		return pos + " > 0", nil

	case "endswith", "iendswith":
		target := c.d.textColumn(name)
		value := textValue(p.Value)
		if op == "iendswith" {
			target, value = "lower("+target+")", strings.ToLower(value)
		}
		// Bound twice since numbered placeholders cannot be reused portably.
		return fmt.Sprintf("substr(%s, length(%s) - length(%s) + 1) = %s",
			target, target, c.args.addText(value), c.args.addText(value)), nil

	case "gt", "gte", "lt", "lte":
		v, err := c.scalar(col, p.Value)
		if err != nil {
			return "", err
		}
		return name + " " + comparison[op] + " " + c.args.add(v), nil

	case "in":
		values, ok := p.Value.([]any)
		if !ok {
			values = []any{p.Value}
		}
		return c.in(col, values)

	case "range":
		values, ok := p.Value.([]any)
		if !ok || len(values) != 2 {
			return "", &domain.FieldError{Field: col.name, Reason: fmt.Sprintf("'range' lookup on '%s' requires exactly two values", col.name)}
		}
		lo, err := c.scalar(col, values[0])
		if err != nil {
			return "", err
		}
		hi, err := c.scalar(col, values[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", name, c.args.add(lo), c.args.add(hi)), nil

	case "isnull":
		isNull, ok := truthy(p.Value)
		if !ok {
			return "", &domain.FieldError{Field: col.name, Reason: fmt.Sprintf("'isnull' lookup on '%s' requires a boolean value", col.name)}
		}
		if isNull {
			return name + " IS NULL", nil
		}
		return name + " IS NOT NULL", nil

	default:
		return "", &domain.FieldError{Field: col.name, Lookup: op}
	}
}

var comparison = map[string]string{"gt": ">", "gte": ">=", "lt": "<", "lte": "<="}

func (c *compiler) in(col column, values []any) (string, error) {
	if len(values) == 0 {
		return "1 = 0", nil
	}
	name := quote(col.name)

	if col.kind == kindInteger && len(values) > inlineThreshold {
		literals := make([]string, 0, len(values))
		for _, v := range values {
			n, ok := integer(v)
			if !ok {
				literals = nil
				break
			}
			literals = append(literals, strconv.FormatInt(n, 10))
		}
		if literals != nil {
			return name + " IN (" + strings.Join(literals, ", ") + ")", nil
		}
	}

	placeholders := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		sv, err := c.scalar(col, v)
		if err != nil {
			return "", err
		}
		placeholders = append(placeholders, c.args.add(sv))
	}
	if len(placeholders) == 0 {
		return "1 = 0", nil
	}
	return name + " IN (" + strings.Join(placeholders, ", ") + ")", nil
}

// scalar converts a coerced value into a driver argument for col.
func (c *compiler) scalar(col column, v any) (any, error) {
	switch val := v.(type) {
	case []any:
		return nil, &domain.FieldError{Field: col.name, Reason: fmt.Sprintf("Field '%s' expected a single value but got a list", col.name)}
	case domain.Date:
		return val.String(), nil
	case int64:
		if col.kind == kindText {
			return strconv.FormatInt(val, 10), nil
		}
		return val, nil
	case float64:
		if col.kind == kindText {
			return domain.FormatValue(val), nil
		}
		return val, nil
	case string:
		if n, ok := integer(val); ok && col.kind == kindInteger {
			return n, nil
		}
		return val, nil
	default:
		return val, nil
	}
}

// integer reads v as an int64 when it is one or spells one.
func integer(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func textValue(v any) string {
	return domain.FormatValue(v)
}

func truthy(v any) (value bool, ok bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int64:
		return val != 0, true
	case string:
		switch strings.ToLower(val) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}
