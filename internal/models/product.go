package models

import "time"

// Categories a product may belong to. Matching is exact and case-sensitive.
var Categories = []string{"Electronics", "books", "clothing", "Beauty"}

// Product represents a product in the catalog.
type Product struct {
	ID          string    `json:"_id" gorm:"primaryKey;type:varchar(24)"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Brand       string    `json:"brand" gorm:"not null"`
	ImageURL    string    `json:"imageUrl" gorm:"column:image_url;not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Category    string    `json:"category" gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProductRequest is the body accepted by product creation.
// Price is a pointer so that a missing price can be told apart from 0.
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Brand       string   `json:"brand" validate:"required"`
	ImageURL    string   `json:"imageUrl" validate:"required"`
	Price       *float64 `json:"price" validate:"required"`
	Category    string   `json:"category" validate:"required,oneof=Electronics books clothing Beauty"`
}

// ToProduct builds a Product from the request. ID and timestamps are left to storage.
func (r CreateProductRequest) ToProduct() Product {
	p := Product{
		Name:        r.Name,
		Description: r.Description,
		Brand:       r.Brand,
		ImageURL:    r.ImageURL,
		Category:    r.Category,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	return p
}
