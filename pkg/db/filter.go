package db

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ammar0144/catalog4go/pkg/query"

	"gorm.io/gorm"
)

// Filter collects the WHERE, SELECT and ORDER BY parts of a read and applies them to a *gorm.DB.
//
// Column names are interpolated as-is: they must come from a query.Schema, never from
// request input. Values are always bound as parameters.
type Filter struct {
	table string
	conds []condition
	cols  []string
	order []string
}

// Operator is a SQL comparison operator
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "<>"
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpIn             Operator = "IN"
	OpNotNull        Operator = "IS NOT NULL"
)

var sqlOperators = map[query.Operator]Operator{
	query.Eq:  OpEqual,
	query.Ne:  OpNotEqual,
	query.Gt:  OpGreater,
	query.Gte: OpGreaterOrEqual,
	query.Lt:  OpLess,
	query.Lte: OpLessOrEqual,
	query.In:  OpIn,
}

// SQLOperator maps a request operator to its SQL form
func SQLOperator(op query.Operator) (Operator, error) {
	sqlOp, ok := sqlOperators[op]
	if !ok {
		return "", fmt.Errorf("%w: %q", query.ErrInvalidFilterKind, op)
	}
	return sqlOp, nil
}

type condition struct {
	column string
	op     Operator
	value  interface{}
}

// NewFilter creates an empty filter whose bare column names are qualified with table
func NewFilter(table string) *Filter {
	return &Filter{table: table}
}

// Column qualifies name with the filter's table unless it is already qualified
func (f *Filter) Column(name string) string {
	if f.table == "" || strings.Contains(name, ".") {
		return name
	}
	return f.table + "." + name
}

// Where adds a condition; conditions are joined with AND
func (f *Filter) Where(column string, op Operator, value interface{}) *Filter {
	f.conds = append(f.conds, condition{column: column, op: op, value: value})
	return f
}

// Predicate adds a translated request predicate against column
func (f *Filter) Predicate(column string, p query.Predicate) error {
	op, err := SQLOperator(p.Op)
	if err != nil {
		return err
	}
	f.Where(column, op, p.Value)
	return nil
}

// Select restricts the selected columns
func (f *Filter) Select(cols ...string) *Filter {
	f.cols = append(f.cols, cols...)
	return f
}

// OrderBy appends a sort key
func (f *Filter) OrderBy(column string, desc bool) *Filter {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	f.order = append(f.order, column+" "+dir)
	return f
}

// SQL renders the WHERE conditions with positional placeholders
func (f *Filter) SQL() (string, []interface{}) {
	parts := make([]string, 0, len(f.conds))
	var args []interface{}
	for _, c := range f.conds {
		sql, condArgs := c.render()
		parts = append(parts, sql)
		args = append(args, condArgs...)
	}
	return strings.Join(parts, " AND "), args
}

// Scope applies only the WHERE conditions to tx
func (f *Filter) Scope(tx *gorm.DB) *gorm.DB {
	if sql, args := f.SQL(); sql != "" {
		tx = tx.Where(sql, args...)
	}
	return tx
}

// Apply applies WHERE, SELECT and ORDER BY to tx
func (f *Filter) Apply(tx *gorm.DB) *gorm.DB {
	tx = f.Scope(tx)
	if len(f.cols) > 0 {
		tx = tx.Select(f.cols)
	}
	for _, o := range f.order {
		tx = tx.Order(o)
	}
	return tx
}

func (c condition) render() (string, []interface{}) {
	switch c.op {
	case OpNotNull:
		return c.column + " " + string(c.op), nil
	case OpIn:
		return c.renderIn()
	default:
		return c.column + " " + string(c.op) + " ?", []interface{}{c.value}
	}
}

// renderIn expands a slice into one placeholder per element. Any other value,
// e.g. a *gorm.DB subquery, binds to a single placeholder. An empty set never matches.
func (c condition) renderIn() (string, []interface{}) {
	if c.value == nil {
		return "1 = 0", nil
	}

	v := reflect.ValueOf(c.value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return c.column + " IN (?)", []interface{}{c.value}
	}
	if v.Len() == 0 {
		return "1 = 0", nil
	}

	args := make([]interface{}, v.Len())
	for i := range args {
		args[i] = v.Index(i).Interface()
	}
	return c.column + " IN (?" + strings.Repeat(", ?", len(args)-1) + ")", args
}
