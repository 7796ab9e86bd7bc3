package repositories

import (
	"context"

	"catalog/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductRepository defines the interface for product data access.
// Implementations assign the ID and timestamps on Create and report
// apperrors.KindNotFound for unknown or malformed IDs.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh product identifier. Every backend uses the
// ObjectID hex form so identifiers look the same regardless of storage.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed product identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
