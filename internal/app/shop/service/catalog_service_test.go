package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/internal/app/shop/repository/mocks"
	"lotusmart/internal/app/shop/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// imageStoreMock - мок хранилища изображений
type imageStoreMock struct {
	mock.Mock
}

var _ util.ImageStore = (*imageStoreMock)(nil)

func (m *imageStoreMock) Save(filename string, content io.Reader) (string, error) {
	args := m.Called(filename, content)
	return args.String(0), args.Error(1)
}

func (m *imageStoreMock) Delete(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

func newCatalogServiceForTest() (*CatalogService, *mocks.ProductRepositoryMock, *cacheMock, *imageStoreMock) {
	productRepo := new(mocks.ProductRepositoryMock)
	cache := new(cacheMock)
	images := new(imageStoreMock)
	svc := NewCatalogService(productRepo, cache, images, time.Minute)
	return svc, productRepo, cache, images
}

func TestGetAllProducts_CacheHit(t *testing.T) {
	svc, productRepo, cache, _ := newCatalogServiceForTest()

	cached := []entity.Product{{ID: uuid.New(), Name: "Cached"}}
	cache.On("GetProducts", mock.Anything).Return(cached, nil)

	products, err := svc.GetAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, cached, products)
	productRepo.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestGetAllProducts_CacheMissPopulatesCache(t *testing.T) {
	svc, productRepo, cache, _ := newCatalogServiceForTest()

	fromDB := []entity.Product{{ID: uuid.New(), Name: "From DB"}}
	cache.On("GetProducts", mock.Anything).Return(nil, nil)
	productRepo.On("GetAll", mock.Anything).Return(fromDB, nil)
	cache.On("SetProducts", mock.Anything, fromDB, time.Minute).Return(nil)

	products, err := svc.GetAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fromDB, products)
	cache.AssertCalled(t, "SetProducts", mock.Anything, fromDB, time.Minute)
}

func TestGetAllProducts_EmptyCatalogIsCached(t *testing.T) {
	svc, productRepo, cache, _ := newCatalogServiceForTest()

	// GORM оставляет срез nil, когда таблица пуста; в кеш должен
	// уйти пустой срез, иначе каждый запрос будет ходить в БД
	cache.On("GetProducts", mock.Anything).Return(nil, nil)
	productRepo.On("GetAll", mock.Anything).Return(nil, nil)
	cache.On("SetProducts", mock.Anything, mock.MatchedBy(func(p []entity.Product) bool {
		return p != nil && len(p) == 0
	}), time.Minute).Return(nil)

	products, err := svc.GetAllProducts(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	cache.AssertExpectations(t)
}

func TestGetAllProducts_CacheErrorFallsBackToDB(t *testing.T) {
	svc, productRepo, cache, _ := newCatalogServiceForTest()

	fromDB := []entity.Product{{ID: uuid.New()}}
	cache.On("GetProducts", mock.Anything).Return(nil, errors.New("redis down"))
	productRepo.On("GetAll", mock.Anything).Return(fromDB, nil)
	cache.On("SetProducts", mock.Anything, fromDB, time.Minute).Return(errors.New("redis down"))

	products, err := svc.GetAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fromDB, products)
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	svc, productRepo, _, _ := newCatalogServiceForTest()

	_, err := svc.CreateProduct(context.Background(), &entity.CreateProductRequest{
		Name:        "Broken",
		Description: "negative price",
		Price:       decimal.RequireFromString("-1.00"),
		Category:    entity.CategoryPhysical,
	}, nil)

	assert.ErrorIs(t, err, ErrInvalidPrice)
	productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_Success(t *testing.T) {
	svc, productRepo, cache, _ := newCatalogServiceForTest()

	productRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Product")).Return(nil)
	cache.On("DeleteProducts", mock.Anything).Return(nil)

	product, err := svc.CreateProduct(context.Background(), &entity.CreateProductRequest{
		Name:        "Notebook",
		Description: "A5, dotted",
		Price:       decimal.RequireFromString("12.90"),
		Category:    entity.CategoryPhysical,
		Stock:       30,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Notebook", product.Name)
	assert.Equal(t, 30, product.Stock)
	assert.True(t, product.AverageRating.IsZero())
	assert.Equal(t, 0, product.ReviewCount)
	cache.AssertCalled(t, "DeleteProducts", mock.Anything)
}

func TestUpdateProduct_PartialUpdate(t *testing.T) {
	svc, productRepo, cache, _ := newCatalogServiceForTest()

	productID := uuid.New()
	existing := &entity.Product{
		ID:          productID,
		Name:        "Old Name",
		Description: "Old description",
		Price:       decimal.RequireFromString("10.00"),
		Category:    entity.CategoryPhysical,
		Stock:       5,
	}

	productRepo.On("GetByID", mock.Anything, productID).Return(existing, nil)
	productRepo.On("Update", mock.Anything, mock.AnythingOfType("*entity.Product")).Return(nil)
	cache.On("DeleteProducts", mock.Anything).Return(nil)

	newStock := 0
	product, err := svc.UpdateProduct(context.Background(), productID, &entity.UpdateProductRequest{
		Name:  "New Name",
		Stock: &newStock,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "New Name", product.Name)
	// Непереданные поля не трогаем, нулевой stock - валидное значение
	assert.Equal(t, "Old description", product.Description)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 0, product.Stock)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	svc, productRepo, _, _ := newCatalogServiceForTest()

	productID := uuid.New()
	productRepo.On("GetByID", mock.Anything, productID).Return(nil, repository.ErrProductNotFound)

	_, err := svc.UpdateProduct(context.Background(), productID, &entity.UpdateProductRequest{Name: "x"}, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct_RemovesImage(t *testing.T) {
	svc, productRepo, cache, images := newCatalogServiceForTest()

	productID := uuid.New()
	product := &entity.Product{ID: productID, Image: "/media/products/abc.png"}

	productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	productRepo.On("Delete", mock.Anything, productID).Return(nil)
	images.On("Delete", "/media/products/abc.png").Return(nil)
	cache.On("DeleteProducts", mock.Anything).Return(nil)

	err := svc.DeleteProduct(context.Background(), productID)

	require.NoError(t, err)
	images.AssertCalled(t, "Delete", "/media/products/abc.png")
}

func TestSearchProducts_PassesFilter(t *testing.T) {
	svc, productRepo, _, _ := newCatalogServiceForTest()

	minPrice := decimal.RequireFromString("5")
	filter := repository.ProductFilter{
		Query:    "note",
		Category: entity.CategoryPhysical,
		MinPrice: &minPrice,
	}

	found := []entity.Product{{ID: uuid.New(), Name: "Notebook"}}
	productRepo.On("Search", mock.Anything, filter).Return(found, nil)

	products, err := svc.SearchProducts(context.Background(), filter)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, strings.Contains(strings.ToLower(products[0].Name), "note"))
}
