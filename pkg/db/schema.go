package db

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ammar0144/catalog4go/pkg/query"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Tombstone columns every soft-deletable table carries
const (
	TombstoneColumn   = "deleted"
	TombstoneAtColumn = "deleted_at"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// SchemaOption customizes a derived query schema
type SchemaOption func(*query.Schema)

// WithRange designates the numeric field filtered by a min/max key pair
func WithRange(field, minKey, maxKey string) SchemaOption {
	return func(s *query.Schema) {
		s.Range = &query.Range{Field: field, MinKey: minKey, MaxKey: maxKey}
	}
}

// WithDefaultSort overrides the default sort order
func WithDefaultSort(fields ...query.SortField) SchemaOption {
	return func(s *query.Schema) {
		s.DefaultSort = fields
	}
}

// SchemaOf derives the query allow-list for a GORM model from its parsed schema.
// Fields are exposed under their json tag names; relations under the json name of
// the association field.
func SchemaOf(gormDB *gorm.DB, model interface{}, opts ...SchemaOption) (query.Schema, error) {
	stmt := &gorm.Statement{DB: gormDB}
	if err := stmt.Parse(model); err != nil {
		return query.Schema{}, fmt.Errorf("failed to parse model schema: %w", err)
	}
	if stmt.Schema == nil {
		return query.Schema{}, fmt.Errorf("model %T has no schema", model)
	}
	parsed := stmt.Schema

	out := query.Schema{
		Table:     parsed.Table,
		Fields:    make(map[string]query.Field),
		Relations: make(map[string]query.Relation),
	}

	for _, f := range parsed.Fields {
		if f.DBName == "" {
			continue
		}
		name := jsonName(f.Tag, f.Name)
		if name == "-" {
			continue
		}

		out.Fields[name] = query.Field{
			Name:     name,
			Column:   f.DBName,
			Kind:     kindOf(f.FieldType),
			Writable: isWritable(f),
		}

		switch {
		case f.PrimaryKey && out.PrimaryKey == "":
			out.PrimaryKey = name
		case f.DBName == TombstoneColumn:
			out.Tombstone = name
		case f.DBName == TombstoneAtColumn:
			out.TombstoneAt = name
		}
	}

	for _, rel := range parsed.Relationships.Relations {
		if r, ok := relationOf(rel); ok {
			out.Relations[r.Name] = r
		}
	}

	if _, ok := out.Fields["createdAt"]; ok {
		out.DefaultSort = []query.SortField{{Field: "createdAt", Desc: true}}
	}

	for _, opt := range opts {
		opt(&out)
	}

	if out.PrimaryKey == "" {
		return query.Schema{}, fmt.Errorf("model %T has no primary key", model)
	}
	if out.Tombstone == "" || out.TombstoneAt == "" {
		return query.Schema{}, fmt.Errorf("model %T is missing the %s/%s tombstone columns", model, TombstoneColumn, TombstoneAtColumn)
	}
	return out, nil
}

func relationOf(rel *schema.Relationship) (query.Relation, bool) {
	if rel == nil || rel.Field == nil || rel.FieldSchema == nil || len(rel.References) != 1 {
		return query.Relation{}, false
	}
	ref := rel.References[0]
	if ref.PrimaryKey == nil || ref.ForeignKey == nil {
		return query.Relation{}, false
	}

	r := query.Relation{
		Name:        jsonName(rel.Field.Tag, rel.Name),
		Preload:     rel.Name,
		TargetTable: rel.FieldSchema.Table,
		MatchColumn: ref.PrimaryKey.DBName,
	}
	if match := rel.FieldSchema.LookUpField("name"); match != nil {
		r.MatchColumn = match.DBName
	}

	switch rel.Type {
	case schema.BelongsTo:
		r.Kind = query.BelongsTo
		r.LocalField = jsonName(ref.ForeignKey.Tag, ref.ForeignKey.Name)
		r.LocalColumn = ref.ForeignKey.DBName
		r.TargetColumn = ref.PrimaryKey.DBName
	case schema.HasOne, schema.HasMany:
		r.Kind = query.HasMany
		if rel.Type == schema.HasOne {
			r.Kind = query.HasOne
		}
		r.LocalColumn = ref.PrimaryKey.DBName
		r.TargetColumn = ref.ForeignKey.DBName
	default:
		return query.Relation{}, false
	}
	return r, true
}

func isWritable(f *schema.Field) bool {
	if f.PrimaryKey || f.AutoCreateTime != 0 || f.AutoUpdateTime != 0 {
		return false
	}
	return f.DBName != TombstoneColumn && f.DBName != TombstoneAtColumn
}

func jsonName(tag reflect.StructTag, fallback string) string {
	name, _, _ := strings.Cut(tag.Get("json"), ",")
	if name == "" {
		return fallback
	}
	return name
}

func kindOf(t reflect.Type) query.FieldKind {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return query.KindTime
	case t == decimalType:
		return query.KindNumber
	}

	switch t.Kind() {
	case reflect.Bool:
		return query.KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return query.KindNumber
	default:
		return query.KindString
	}
}
