package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lotusmart/internal/app/shop/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return db, mock, sqlDB
}

func productColumns() []string {
	return []string{"id", "name", "description", "price", "category", "stock", "image", "average_rating", "review_count", "created_at"}
}

func TestProductRepository_GetByID(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)
	productID := uuid.New()

	rows := sqlmock.NewRows(productColumns()).
		AddRow(productID, "Book", "A good book", "10.50", "physical", 5, "", "4.50", 2, time.Now())

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
		WithArgs(productID, 1).
		WillReturnRows(rows)

	product, err := repo.GetByID(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, productID, product.ID)
	assert.Equal(t, "Book", product.Name)
	assert.Equal(t, 5, product.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)
	productID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
		WithArgs(productID, 1).
		WillReturnRows(sqlmock.NewRows(productColumns()))

	_, err := repo.GetByID(context.Background(), productID)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetAll_OrderedByID(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)

	rows := sqlmock.NewRows(productColumns()).
		AddRow(uuid.New(), "A", "first", "1.00", "physical", 1, "", "0", 0, time.Now()).
		AddRow(uuid.New(), "B", "second", "2.00", "digital", 2, "", "0", 0, time.Now())

	mock.ExpectQuery(`SELECT \* FROM "products" ORDER BY id ASC`).
		WillReturnRows(rows)

	products, err := repo.GetAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)
	productID := uuid.New()

	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1 WHERE id = \$2 AND stock >= \$3`).
		WithArgs(2, productID, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DecrementStock(context.Background(), productID, 2)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_Exhausted(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)
	productID := uuid.New()

	// Условие stock >= quantity не выполнилось, ни одна строка не изменена
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1 WHERE id = \$2 AND stock >= \$3`).
		WithArgs(10, productID, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DecrementStock(context.Background(), productID, 10)

	assert.ErrorIs(t, err, ErrStockExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Search_BuildsFilters(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)

	rows := sqlmock.NewRows(productColumns()).
		AddRow(uuid.New(), "Notebook", "dotted", "12.90", "physical", 3, "", "0", 0, time.Now())

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE \(name ILIKE \$1 OR description ILIKE \$2\) AND category = \$3 ORDER BY id ASC`).
		WithArgs("%note%", "%note%", "physical").
		WillReturnRows(rows)

	products, err := repo.Search(context.Background(), ProductFilter{
		Query:    "note",
		Category: entity.CategoryPhysical,
	})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Search_MinAboveMaxIsEmptyNotError(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewProductRepository(db)

	minPrice := decimal.RequireFromString("100.00")
	maxPrice := decimal.RequireFromString("10.00")

	// Оба ценовых предиката уходят в запрос как есть; противоречивый
	// диапазон - это пустая выборка, а не ошибка
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE price >= \$1 AND price <= \$2 ORDER BY id ASC`).
		WithArgs(minPrice, maxPrice).
		WillReturnRows(sqlmock.NewRows(productColumns()))

	products, err := repo.Search(context.Background(), ProductFilter{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_HasDeliveredProduct(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewOrderRepository(db)
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "order_items" JOIN orders ON orders\.id = order_items\.order_id WHERE orders\.user_id = \$1 AND orders\.status = \$2 AND order_items\.product_id = \$3`).
		WithArgs(userID, "delivered", productID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	eligible, err := repo.HasDeliveredProduct(context.Background(), userID, productID)

	require.NoError(t, err)
	assert.True(t, eligible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_LatestDeliveredOrderID_None(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewOrderRepository(db)
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`SELECT orders\.id FROM "orders" JOIN order_items ON order_items\.order_id = orders\.id`).
		WithArgs(userID, "delivered", productID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// Отсутствие доставленного заказа - не ошибка
	orderID, err := repo.LatestDeliveredOrderID(context.Background(), userID, productID)

	require.NoError(t, err)
	assert.Nil(t, orderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	repo := NewOrderRepository(db)
	orderID := uuid.New()

	mock.ExpectExec(`UPDATE "orders" SET "status"=\$1 WHERE id = \$2`).
		WithArgs("shipped", orderID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), orderID, entity.OrderStatusShipped)

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
