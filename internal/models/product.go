package models

import "github.com/google/uuid"

// MaxProductImages bounds how many pictures a product may carry.
const MaxProductImages = 3

// Product is a single menu item.
type Product struct {
	BaseModel
	OrganizationID uuid.UUID      `gorm:"type:uuid;index" json:"organization_id"`
	Organization   *Organization  `json:"organization,omitempty"`
	CategoryID     uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category       *Category      `json:"category,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Weight         *float64       `json:"weight"`
	Price          float64        `json:"price"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	Images         []ProductImage `json:"images,omitempty"`
}

// ProductImage is one uploaded picture of a product.
type ProductImage struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Image     string    `json:"image"`
}
