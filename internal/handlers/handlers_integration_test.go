package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"catalog/internal/app"
	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestMain silences logging for cleaner output.
func TestMain(m *testing.M) {
	zap.ReplaceGlobals(zap.NewNop())
	os.Exit(m.Run())
}

func validProduct() map[string]interface{} {
	return map[string]interface{}{
		"name":        "Google pixel 7",
		"description": "A smartwatch is a portable computer device that combines mobile telephone functions and computing functions into one unit.",
		"brand":       "Google",
		"imageUrl":    "https://cdn.pixabay.com/photo/2016/12/09/11/33/smartphone-1894723__340.jpg",
		"price":       250,
		"category":    "Electronics",
	}
}

const nonExistentID = "123456123456123456123456"

// setupApp builds the full HTTP surface on the given backend.
func setupApp(t *testing.T, backend string) (*fiber.App, repositories.ProductRepository) {
	var repo repositories.ProductRepository
	switch backend {
	case "memory":
		repo = repositories.NewMemoryProductRepository()
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(&models.Product{}))
		repo = repositories.NewGORMProductRepository(db)
	default:
		t.Fatalf("unknown backend %s", backend)
	}

	return app.NewFiberApp(app.Deps{Repository: repo, StorageName: backend}), repo
}

func doJSON(t *testing.T, a *fiber.App, method, path string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func forEachBackend(t *testing.T, fn func(t *testing.T, a *fiber.App, repo repositories.ProductRepository)) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			a, repo := setupApp(t, backend)
			fn(t, a, repo)
		})
	}
}

func TestProductLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a *fiber.App, _ repositories.ProductRepository) {
		input := validProduct()

		// --- POST /products ---
		resp := doJSON(t, a, http.MethodPost, "/products", input)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var created map[string]string
		decode(t, resp, &created)
		id := created["_id"]
		assert.True(t, repositories.ValidID(id), "id %q", id)
		assert.Len(t, created, 1)

		// --- GET /products/:id ---
		resp = doJSON(t, a, http.MethodGet, "/products/"+id, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var fetched map[string]interface{}
		decode(t, resp, &fetched)
		assert.Equal(t, id, fetched["_id"])
		for _, field := range []string{"name", "description", "brand", "imageUrl", "category"} {
			assert.Equal(t, input[field], fetched[field], field)
		}
		assert.EqualValues(t, 250, fetched["price"])
		assert.NotEmpty(t, fetched["createdAt"])
		assert.NotEmpty(t, fetched["updatedAt"])

		// --- GET /products ---
		resp = doJSON(t, a, http.MethodGet, "/products", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var products []models.Product
		decode(t, resp, &products)
		require.Len(t, products, 1)
		assert.Equal(t, id, products[0].ID)

		// --- DELETE /products/:id ---
		resp = doJSON(t, a, http.MethodDelete, "/products/"+id, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Empty(t, body)

		// Verify deletion
		resp = doJSON(t, a, http.MethodGet, "/products/"+id, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCreateProduct_ZeroPrice(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a *fiber.App, _ repositories.ProductRepository) {
		input := validProduct()
		input["price"] = 0

		resp := doJSON(t, a, http.MethodPost, "/products", input)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCreateProduct_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"category not in set", func(p map[string]interface{}) { p["category"] = "Phone" }, "category"},
		{"category wrong case", func(p map[string]interface{}) { p["category"] = "Books" }, "category"},
		{"missing name", func(p map[string]interface{}) { delete(p, "name") }, "name"},
		{"empty description", func(p map[string]interface{}) { p["description"] = "" }, "description"},
		{"missing brand", func(p map[string]interface{}) { delete(p, "brand") }, "brand"},
		{"missing imageUrl", func(p map[string]interface{}) { delete(p, "imageUrl") }, "imageUrl"},
		{"missing price", func(p map[string]interface{}) { delete(p, "price") }, "price"},
		{"missing category", func(p map[string]interface{}) { delete(p, "category") }, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, a *fiber.App, repo repositories.ProductRepository) {
				input := validProduct()
				tt.mutate(input)

				resp := doJSON(t, a, http.MethodPost, "/products", input)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

				var body struct {
					Message string `json:"message"`
					Errors  []struct {
						Field string `json:"field"`
					} `json:"errors"`
				}
				decode(t, resp, &body)
				require.NotEmpty(t, body.Errors)
				assert.Equal(t, tt.field, body.Errors[0].Field)

				// No record is persisted.
				products, err := repo.GetAll(context.Background())
				require.NoError(t, err)
				assert.Empty(t, products)
			})
		})
	}
}

func TestCreateProduct_MalformedBody(t *testing.T) {
	a, repo := setupApp(t, "memory")

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name": "Google pixel 7",`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"price": "cheap"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = a.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestGetProducts_EmptyIsArray(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a *fiber.App, _ repositories.ProductRepository) {
		resp := doJSON(t, a, http.MethodGet, "/products", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(body))
	})
}

func TestGetProducts_ReturnsAll(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a *fiber.App, _ repositories.ProductRepository) {
		for _, category := range models.Categories {
			input := validProduct()
			input["category"] = category
			resp := doJSON(t, a, http.MethodPost, "/products", input)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			resp.Body.Close()
		}

		resp := doJSON(t, a, http.MethodGet, "/products", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var products []models.Product
		decode(t, resp, &products)
		assert.Len(t, products, len(models.Categories))
	})
}

func TestNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a *fiber.App, repo repositories.ProductRepository) {
		require.NoError(t, repo.Create(context.Background(), &models.Product{
			Name: "Kept", Description: "d", Brand: "b", ImageURL: "u", Price: 1, Category: "books",
		}))

		for _, id := range []string{nonExistentID, "not-an-id", "123"} {
			resp := doJSON(t, a, http.MethodGet, "/products/"+id, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, "GET %s", id)
			var body map[string]string
			decode(t, resp, &body)
			assert.NotEmpty(t, body["message"])

			resp = doJSON(t, a, http.MethodDelete, "/products/"+id, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, "DELETE %s", id)
			resp.Body.Close()
		}

		products, err := repo.GetAll(context.Background())
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}

func TestCORSHeaders(t *testing.T) {
	a, _ := setupApp(t, "memory")

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "http://shop.example.com")
	resp, err := a.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHealth(t *testing.T) {
	a := app.NewFiberApp(app.Deps{Repository: repositories.NewMemoryProductRepository(), StorageName: "memory"})
	resp := doJSON(t, a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["storage"])

	a = app.NewFiberApp(app.Deps{
		Repository:  repositories.NewMemoryProductRepository(),
		StorageName: "mongo",
		HealthCheck: func(context.Context) error { return errors.New("server selection timeout") },
	})
	resp = doJSON(t, a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

// failingRepository makes every storage call fail with an internal error.
type failingRepository struct{}

func (failingRepository) GetAll(context.Context) ([]models.Product, error) {
	return nil, errors.New("connection reset by peer: 10.0.0.3:27017")
}
func (failingRepository) GetByID(context.Context, string) (*models.Product, error) {
	return nil, errors.New("connection reset by peer: 10.0.0.3:27017")
}
func (failingRepository) Create(context.Context, *models.Product) error {
	return errors.New("connection reset by peer: 10.0.0.3:27017")
}
func (failingRepository) Delete(context.Context, string) error {
	return errors.New("connection reset by peer: 10.0.0.3:27017")
}

func TestStorageFailureIsGeneric500(t *testing.T) {
	a := app.NewFiberApp(app.Deps{Repository: failingRepository{}, StorageName: "broken"})

	resp := doJSON(t, a, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, handlers.GenericErrorMessage), string(body))
	assert.NotContains(t, string(body), "10.0.0.3")

	resp = doJSON(t, a, http.MethodPost, "/products", validProduct())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}
