package query

import (
	"fmt"
	"sort"
	"strings"
)

// Predicate is a single field comparison
type Predicate struct {
	Field string
	Op    Operator
	Value interface{}
}

// SortField orders results by one field
type SortField struct {
	Field string
	Desc  bool
}

// Populate expands a relation into each result, optionally restricted to targets whose
// match column equals Match. Required excludes rows whose relation is null, dangling or unmatched.
type Populate struct {
	Relation string
	Match    string
	Required bool
}

// Descriptor is the validated form of a list request
type Descriptor struct {
	Predicates []Predicate
	Sort       []SortField
	Fields     []string
	Populate   *Populate
	Page       int
	Limit      int
}

// ByField returns a descriptor matching a single field value, as used for lookups by id
func ByField(field string, value interface{}) Descriptor {
	return Descriptor{
		Predicates: []Predicate{{Field: field, Op: Eq, Value: value}},
		Page:       DefaultPage,
		Limit:      1,
	}
}

// WithPopulate returns a copy of d populating the named relation
func (d Descriptor) WithPopulate(relation string) Descriptor {
	if relation == "" {
		return d
	}
	d.Populate = &Populate{Relation: relation}
	return d
}

// Constrains reports whether any predicate targets field
func (d Descriptor) Constrains(field string) bool {
	for _, p := range d.Predicates {
		if p.Field == field {
			return true
		}
	}
	return false
}

// Offset returns the number of rows skipped before the current page
func (d Descriptor) Offset() int {
	if d.Page < 1 || d.Limit < 1 {
		return 0
	}
	return (d.Page - 1) * d.Limit
}

// CanonicalParams renders raw request parameters in a stable order
func CanonicalParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s=%s", k, params[k])
	}
	return b.String()
}
