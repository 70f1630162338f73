// Package catalog holds the product and category models.
package catalog

import (
	"errors"
	"time"

	"github.com/ammar0144/catalog4go/pkg/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Table names
const (
	ProductsTable   = "products"
	CategoriesTable = "categories"
)

// Model carries the identity, tombstone and timestamps shared by every catalog entity
type Model struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Deleted   bool       `gorm:"not null;index" json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the id is empty
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// GetPrimaryKeyValue returns the entity id
func (m Model) GetPrimaryKeyValue() interface{} {
	return m.ID
}

// IsDeleted reports whether the entity is tombstoned
func (m Model) IsDeleted() bool {
	return m.Deleted
}

// ResetSystemFields clears the server-assigned fields so a new entity always
// starts live with a fresh id and timestamps
func (m *Model) ResetSystemFields() {
	*m = Model{}
}

// Category groups products
type Category struct {
	Model
	Name        string    `gorm:"size:191;not null;uniqueIndex" json:"name" validate:"required,max=191"`
	Description string    `json:"description"`
	CreatedBy   string    `gorm:"size:36" json:"createdBy,omitempty"`
	Products    []Product `json:"products,omitempty"`
}

// TableName implements repository.Entity
func (Category) TableName() string {
	return CategoriesTable
}

// Product is a sellable catalog item
type Product struct {
	Model
	Name        string          `gorm:"size:191;not null;uniqueIndex" json:"name" validate:"required,max=191"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock" validate:"gte=0"`
	CategoryID  *string         `gorm:"size:36;index" json:"categoryId,omitempty"`
	Category    *Category       `json:"category,omitempty"`
	CreatedBy   string          `gorm:"size:36" json:"createdBy,omitempty"`
}

// TableName implements repository.Entity
func (Product) TableName() string {
	return ProductsTable
}

// Validate checks the rules struct tags cannot express
func (p Product) Validate() error {
	if p.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return nil
}

// GetRelationships implements repository.RelationshipAware
func (p Product) GetRelationships() map[string][]repository.RelatedEntity {
	if p.CategoryID == nil || *p.CategoryID == "" {
		return nil
	}
	return map[string][]repository.RelatedEntity{
		repository.RelationBelongsTo: {{EntityType: CategoriesTable, EntityID: *p.CategoryID}},
	}
}
