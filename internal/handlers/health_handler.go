package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthHandler reports whether the storage backend answers.
type HealthHandler struct {
	storage string
	check   func(ctx context.Context) error
}

// NewHealthHandler creates a HealthHandler. A nil check always reports healthy.
func NewHealthHandler(storage string, check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{storage: storage, check: check}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when storage is reachable and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status, code := "healthy", fiber.StatusOK
	if h.check != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			zap.L().Warn("health check failed", zap.String("storage", h.storage), zap.Error(err))
			status, code = "unhealthy", fiber.StatusServiceUnavailable
		}
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"storage": h.storage,
		"time":    time.Now().Format(time.RFC3339),
	})
}
