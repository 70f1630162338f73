package query

// FieldKind determines how raw request values are coerced for a field
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindTime
)

// Field describes a filterable, sortable and selectable entity field
type Field struct {
	Name     string // request-facing name, e.g. "createdAt"
	Column   string // database column, e.g. "created_at"
	Kind     FieldKind
	Writable bool // false for identity, timestamps and tombstone fields
}

// RelationKind describes the direction of a relation
type RelationKind string

const (
	BelongsTo RelationKind = "belongs_to"
	HasOne    RelationKind = "has_one"
	HasMany   RelationKind = "has_many"
)

// Relation describes a populatable reference to another entity type
//
// For belongs_to, LocalColumn is the owner's foreign key and TargetColumn the target's primary key.
// For has_one/has_many, LocalColumn is the owner's primary key and TargetColumn the target's foreign key.
type Relation struct {
	Name         string // request key, e.g. "category"
	Kind         RelationKind
	Preload      string // association name used to populate, e.g. "Category"
	LocalField   string // request-facing foreign key name for belongs_to, e.g. "categoryId"
	LocalColumn  string
	TargetTable  string
	TargetColumn string
	MatchColumn  string // target column compared against a relation filter value
}

// Range designates the numeric field filtered by a min/max pair
type Range struct {
	Field  string
	MinKey string
	MaxKey string
}

// Schema is the allow-list a request is validated against
type Schema struct {
	Table       string
	PrimaryKey  string
	Tombstone   string // boolean tombstone flag
	TombstoneAt string // tombstone timestamp
	Fields      map[string]Field
	Relations   map[string]Relation
	Range       *Range
	DefaultSort []SortField
}

// Field returns the field registered under a request-facing name
func (s Schema) Field(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Relation returns the relation registered under name
func (s Schema) Relation(name string) (Relation, bool) {
	r, ok := s.Relations[name]
	return r, ok
}

// RelationByLocalField returns the belongs_to relation whose foreign key is field
func (s Schema) RelationByLocalField(field string) (Relation, bool) {
	for _, r := range s.Relations {
		if r.Kind == BelongsTo && r.LocalField == field {
			return r, true
		}
	}
	return Relation{}, false
}

// Column returns the table-qualified column for a field name
func (s Schema) Column(name string) string {
	f, ok := s.Fields[name]
	if !ok {
		return ""
	}
	if s.Table == "" {
		return f.Column
	}
	return s.Table + "." + f.Column
}
