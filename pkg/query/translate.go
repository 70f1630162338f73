package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Reserved request keys that never become field predicates
const (
	KeySelect = "select"
	KeySort   = "sort"
	KeyPage   = "page"
	KeyLimit  = "limit"
)

// Options tunes a translation
type Options struct {
	// AllowedOps restricts the operators a request may use; nil allows all of them
	AllowedOps OperatorSet

	DefaultLimit int
	MaxLimit     int

	// Populate names the relation populated when the request does not filter by one
	Populate string
}

func (o Options) withDefaults() Options {
	if o.AllowedOps == nil {
		o.AllowedOps = NewOperatorSet(Operators...)
	}
	if o.DefaultLimit < 1 {
		o.DefaultLimit = DefaultLimit
	}
	if o.MaxLimit < 1 {
		o.MaxLimit = MaxLimit
	}
	return o
}

// Translate validates raw request parameters against schema and builds a Descriptor.
//
// Parameters are either "field=value" (equality) or "field[op]=value". A relation key
// becomes a required populate-with-match clause. When the schema's range keys are present
// the range predicates replace every other predicate.
func Translate(params map[string]string, schema Schema, opts Options) (Descriptor, error) {
	opts = opts.withDefaults()

	d := Descriptor{Page: DefaultPage, Limit: opts.DefaultLimit}
	var err error

	if d.Page, err = parsePositive(params, KeyPage, DefaultPage); err != nil {
		return Descriptor{}, err
	}
	if d.Limit, err = parsePositive(params, KeyLimit, opts.DefaultLimit); err != nil {
		return Descriptor{}, err
	}
	if d.Limit > opts.MaxLimit {
		d.Limit = opts.MaxLimit
	}

	if d.Fields, err = parseSelect(params[KeySelect], schema); err != nil {
		return Descriptor{}, err
	}
	if d.Sort, err = parseSort(params[KeySort], schema); err != nil {
		return Descriptor{}, err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if isReserved(k, schema) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p, err := parsePredicate(key, params[key], schema, opts.AllowedOps)
		if err != nil {
			return Descriptor{}, err
		}
		d.Predicates = append(d.Predicates, p)
	}

	if d.Populate, err = parseRelationFilter(params, schema); err != nil {
		return Descriptor{}, err
	}
	if d.Populate == nil && opts.Populate != "" {
		if _, ok := schema.Relation(opts.Populate); ok {
			d.Populate = &Populate{Relation: opts.Populate}
		}
	}

	ranged, err := parseRange(params, schema)
	if err != nil {
		return Descriptor{}, err
	}
	if ranged != nil {
		d.Predicates = ranged
	}

	return d, nil
}

func isReserved(key string, schema Schema) bool {
	switch key {
	case KeySelect, KeySort, KeyPage, KeyLimit:
		return true
	}
	if _, ok := schema.Relations[key]; ok {
		return true
	}
	if schema.Range != nil && (key == schema.Range.MinKey || key == schema.Range.MaxKey) {
		return true
	}
	return false
}

func parsePositive(params map[string]string, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidPaginationValue, key, raw)
	}
	return n, nil
}

// splitKey separates "price[gte]" into ("price", "gte", true)
func splitKey(key string) (field, token string, bracketed bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}

func parsePredicate(key, raw string, schema Schema, allowed OperatorSet) (Predicate, error) {
	name, token, bracketed := splitKey(key)

	op := Eq
	if bracketed {
		parsed, ok := ParseOperator(token)
		if !ok {
			return Predicate{}, fmt.Errorf("%w: unsupported operator %q on %q", ErrInvalidFilterKind, token, name)
		}
		op = parsed
	}
	if !allowed.Allows(op) {
		return Predicate{}, fmt.Errorf("%w: operator %q is not allowed", ErrInvalidFilterKind, op)
	}

	field, ok := schema.Field(name)
	if !ok {
		return Predicate{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFilterKind, name)
	}

	value, err := coerceValue(field, op, raw)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Field: field.Name, Op: op, Value: value}, nil
}

func coerceValue(field Field, op Operator, raw string) (interface{}, error) {
	if op != In {
		return coerce(field, raw)
	}

	parts := strings.Split(raw, ",")
	values := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := coerce(field, part)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func coerce(field Field, raw string) (interface{}, error) {
	switch field.Kind {
	case KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number, got %q", ErrInvalidFilterValue, field.Name, raw)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean, got %q", ErrInvalidFilterValue, field.Name, raw)
		}
		return b, nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an RFC 3339 time, got %q", ErrInvalidFilterValue, field.Name, raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}

func parseRelationFilter(params map[string]string, schema Schema) (*Populate, error) {
	var found *Populate
	names := make([]string, 0, len(schema.Relations))
	for name := range schema.Relations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := params[name]
		if !ok {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: only one relation filter is supported, got %q and %q", ErrInvalidFilterKind, found.Relation, name)
		}
		found = &Populate{Relation: name, Match: value, Required: true}
	}
	return found, nil
}

func parseRange(params map[string]string, schema Schema) ([]Predicate, error) {
	if schema.Range == nil {
		return nil, nil
	}
	field, ok := schema.Field(schema.Range.Field)
	if !ok {
		return nil, nil
	}

	var preds []Predicate
	bounds := []struct {
		key string
		op  Operator
	}{
		{schema.Range.MinKey, Gte},
		{schema.Range.MaxKey, Lte},
	}
	for _, b := range bounds {
		raw, ok := params[b.key]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number, got %q", ErrInvalidFilterValue, b.key, raw)
		}
		preds = append(preds, Predicate{Field: field.Name, Op: b.op, Value: n})
	}
	return preds, nil
}

func parseSort(raw string, schema Schema) ([]SortField, error) {
	if strings.TrimSpace(raw) == "" {
		if len(schema.DefaultSort) > 0 {
			return append([]SortField(nil), schema.DefaultSort...), nil
		}
		return nil, nil
	}

	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if _, ok := schema.Field(name); !ok {
			return nil, fmt.Errorf("%w: cannot sort by unknown field %q", ErrInvalidFilterKind, name)
		}
		fields = append(fields, SortField{Field: name, Desc: desc})
	}
	return fields, nil
}

func parseSelect(raw string, schema Schema) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var fields []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		if _, ok := schema.Field(name); !ok {
			return nil, fmt.Errorf("%w: cannot select unknown field %q", ErrInvalidFilterKind, name)
		}
		seen[name] = true
		fields = append(fields, name)
	}
	return fields, nil
}
