package repository

// Entity interface defines the minimal contract for repository entities
type Entity interface {
	// TableName returns the database table name for this entity
	TableName() string

	// GetPrimaryKeyValue returns the actual value of the primary key
	// Used for cache keys and relation checks
	GetPrimaryKeyValue() interface{}
}

// Relationship types reported by RelationshipAware entities
const (
	RelationBelongsTo = "belongs_to"
	RelationHasMany   = "has_many"
)

// RelationshipAware allows entities to declare the references they hold
// Belongs-to references are resolved before every create
type RelationshipAware interface {
	Entity

	// GetRelationships returns a map of relationship types to related entity info
	// Example: {"belongs_to": [{"categories", categoryID}]}
	GetRelationships() map[string][]RelatedEntity
}

// RelatedEntity represents a relationship to another entity
type RelatedEntity struct {
	EntityType string      // The related entity type (table name)
	EntityID   interface{} // The related entity ID (nil for has_many without specific ID)
}

// systemFieldsResetter is implemented by entities whose id, tombstone and
// timestamps are assigned by the server on insert
type systemFieldsResetter interface {
	ResetSystemFields()
}

// selfValidator is implemented by entities with rules struct tags cannot express
type selfValidator interface {
	Validate() error
}
