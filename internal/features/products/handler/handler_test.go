package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fruit-fusion/internal/features/products/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogService is a mock implementation of ports.CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListProducts(ctx context.Context, includeHidden bool) (domain.ProductList, error) {
	args := m.Called(ctx, includeHidden)
	return args.Get(0).(domain.ProductList), args.Error(1)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id string) (domain.ProductResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ProductResult), args.Error(1)
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.ProductResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.ProductResult), args.Error(1)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.ProductResult, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.ProductResult), args.Error(1)
}

func (m *MockCatalogService) SetVisibility(ctx context.Context, id string, visible bool) (domain.ProductResult, error) {
	args := m.Called(ctx, id, visible)
	return args.Get(0).(domain.ProductResult), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogService) ListCategories(ctx context.Context) (domain.CategoryList, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CategoryList), args.Error(1)
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, name, image string) (domain.CategoryResult, error) {
	args := m.Called(ctx, name, image)
	return args.Get(0).(domain.CategoryResult), args.Error(1)
}

func setupApp(service *MockCatalogService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	h := NewProductHandler(service)
	app.Get("/products", h.ListProducts)
	app.Get("/products/:id", h.GetProduct)
	app.Get("/categories", h.ListCategories)
	app.Get("/admin/products", h.ListAllProducts)
	app.Post("/admin/products", h.CreateProduct)
	app.Patch("/admin/products/:id", h.UpdateProduct)
	app.Put("/admin/products/:id/visibility", h.SetVisibility)
	app.Delete("/admin/products/:id", h.DeleteProduct)
	app.Post("/admin/categories", h.CreateCategory)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProductHandler_ListProducts(t *testing.T) {
	svc := new(MockCatalogService)
	app := setupApp(svc)

	svc.On("ListProducts", mock.Anything, false).Return(domain.ProductList{Products: []domain.Product{{ID: "p1"}}}, nil).Once()
	svc.On("ListProducts", mock.Anything, true).Return(domain.ProductList{Products: []domain.Product{{ID: "p1"}, {ID: "p2"}}}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/products", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/admin/products", nil))
	require.NoError(t, err)
	var list domain.ProductList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.Products, 2)
	svc.AssertExpectations(t)
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	svc := new(MockCatalogService)
	app := setupApp(svc)
	svc.On("GetProduct", mock.Anything, "px").Return(domain.ProductResult{}, domain.ErrProductNotFound).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/products/px", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductHandler_CreateProduct(t *testing.T) {
	tests := []struct {
		name       string
		result     domain.ProductResult
		err        error
		wantStatus int
	}{
		{name: "Created", result: domain.ProductResult{Product: domain.Product{ID: "-Pz"}}, wantStatus: http.StatusCreated},
		{name: "SavedOffline", result: domain.ProductResult{Offline: true}, wantStatus: http.StatusAccepted},
		{name: "MissingName", err: domain.ErrNameRequired, wantStatus: http.StatusBadRequest},
		{name: "Failure", err: errors.New("rejected"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCatalogService)
			app := setupApp(svc)
			svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in domain.ProductInput) bool {
				return in.Name != nil && *in.Name == "Peach" && in.Price == "Rs. 450"
			})).Return(tt.result, tt.err).Once()

			resp, err := app.Test(jsonRequest("POST", "/admin/products", `{"name":"Peach","price":"Rs. 450"}`))

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	svc := new(MockCatalogService)
	app := setupApp(svc)
	svc.On("UpdateProduct", mock.Anything, "p1", mock.MatchedBy(func(in domain.ProductInput) bool {
		return in.Name == nil && in.Stock == 7.0
	})).Return(domain.ProductResult{Product: domain.Product{ID: "p1", Stock: 7}}, nil).Once()

	resp, err := app.Test(jsonRequest("PATCH", "/admin/products/p1", `{"stock":7}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestProductHandler_SetVisibility(t *testing.T) {
	svc := new(MockCatalogService)
	app := setupApp(svc)
	svc.On("SetVisibility", mock.Anything, "p1", false).Return(domain.ProductResult{Offline: true}, nil).Once()

	resp, err := app.Test(jsonRequest("PUT", "/admin/products/p1/visibility", `{"isVisible":false}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		svc := new(MockCatalogService)
		app := setupApp(svc)
		svc.On("DeleteProduct", mock.Anything, "p1").Return(false, nil).Once()

		resp, err := app.Test(httptest.NewRequest("DELETE", "/admin/products/p1", nil))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("PermanentFailure", func(t *testing.T) {
		svc := new(MockCatalogService)
		app := setupApp(svc)
		svc.On("DeleteProduct", mock.Anything, "p1").Return(false, errors.New("product could not be deleted")).Once()

		resp, err := app.Test(httptest.NewRequest("DELETE", "/admin/products/p1", nil))

		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestProductHandler_Categories(t *testing.T) {
	svc := new(MockCatalogService)
	app := setupApp(svc)
	svc.On("ListCategories", mock.Anything).Return(domain.CategoryList{Categories: []domain.Category{{ID: "c1"}}}, nil).Once()
	svc.On("CreateCategory", mock.Anything, "Citrus", "").Return(domain.CategoryResult{Category: domain.Category{ID: "c2"}}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/categories", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/admin/categories", `{"name":"Citrus"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	svc.AssertExpectations(t)
}
