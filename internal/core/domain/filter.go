package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookupSeparator splits a field from its lookup, e.g. "date__gte".
const LookupSeparator = "__"

// Predicate is one lookup=value pair with a coerced value.
type Predicate struct {
	Lookup string
	Value  any
}

// Field returns the field part of the lookup.
func (p Predicate) Field() string {
	field, _, _ := strings.Cut(p.Lookup, LookupSeparator)
	return field
}

// Operator returns the lookup operator, "exact" when none is given.
func (p Predicate) Operator() string {
	_, op, ok := strings.Cut(p.Lookup, LookupSeparator)
	if !ok || op == "" {
		return "exact"
	}
	return op
}

// String renders the predicate back into CLI form.
func (p Predicate) String() string {
	return p.Lookup + "=" + FormatValue(p.Value)
}

// PredicateSet is a conjunction of predicates. Order of insertion is kept
// for rendering but has no effect on the matched set.
type PredicateSet []Predicate

// Empty reports whether the set has no predicates.
func (s PredicateSet) Empty() bool {
	return len(s) == 0
}

// ParseFilter parses a "lookup=value" token.
func ParseFilter(token string) (Predicate, error) {
	lookup, raw, ok := strings.Cut(token, "=")
	if !ok || strings.TrimSpace(lookup) == "" {
		return Predicate{}, &MalformedFilterError{Value: token}
	}
	return Predicate{Lookup: strings.TrimSpace(lookup), Value: CoerceValue(raw)}, nil
}

// ParseFilters parses every token, failing on the first malformed one.
func ParseFilters(tokens []string) (PredicateSet, error) {
	set := make(PredicateSet, 0, len(tokens))
	for _, token := range tokens {
		p, err := ParseFilter(token)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// Date is a calendar date coerced from an ISO "YYYY-MM-DD" value.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// String renders the date in ISO form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// CoerceValue converts a raw CLI value. The first matching rule wins:
// empty is nil, then float, int, ISO date, comma list and finally string.
func CoerceValue(raw string) any {
	if raw == "" {
		return nil
	}
	if f, ok := parseFloatLiteral(raw); ok {
		return f
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		values := make([]any, len(parts))
		for i, part := range parts {
			values[i] = CoerceValue(part)
		}
		return values
	}
	return raw
}

// parseFloatLiteral accepts decimal literals with a fraction or exponent.
// Integer literals are left to the int rule and spellings such as "inf"
// stay strings.
func parseFloatLiteral(raw string) (float64, bool) {
	if !strings.ContainsAny(raw, ".eE") {
		return 0, false
	}
	hasDigit := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-':
		default:
			return 0, false
		}
	}
	if !hasDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatValue renders a coerced value so that CoerceValue(FormatValue(v))
// yields the same value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case Date:
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
