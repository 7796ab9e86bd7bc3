package services

import (
	"context"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/events"

	"go.uber.org/zap"
)

// ProductService validates product writes and runs them against the repository.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher events.Publisher
	timeout   time.Duration
}

// NewProductService creates a new ProductService. A nil publisher drops events;
// a non-positive timeout leaves storage calls bounded only by the caller's context.
func NewProductService(repo repositories.ProductRepository, publisher events.Publisher, timeout time.Duration) *ProductService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		timeout:   timeout,
	}
}

func (s *ProductService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create validates req, persists the product and returns its generated ID.
func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest) (string, error) {
	if err := ValidateProduct(req); err != nil {
		return "", err
	}

	product := req.ToProduct()
	storeCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(storeCtx, &product); err != nil {
		return "", err
	}

	s.emit(ctx, events.NewEvent(events.ProductCreated, product.ID, &product))
	return product.ID, nil
}

// FindAll returns every product; the result is never nil.
func (s *ProductService) FindAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// FindByID returns the product with the given ID.
func (s *ProductService) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.GetByID(ctx, id)
}

// DeleteByID removes the product with the given ID.
func (s *ProductService) DeleteByID(ctx context.Context, id string) error {
	storeCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Delete(storeCtx, id); err != nil {
		return err
	}

	s.emit(ctx, events.NewEvent(events.ProductDeleted, id, nil))
	return nil
}

// emit publishes best effort: the write already happened, so a broker failure is only logged.
func (s *ProductService) emit(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		zap.L().Warn("failed to publish product event",
			zap.String("type", event.Type),
			zap.String("product_id", event.ProductID),
			zap.Error(err))
	}
}
