package handler

import (
	"errors"
	"net/http"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/internal/app/shop/service"
	"lotusmart/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductHandler обрабатывает HTTP запросы каталога товаров
type ProductHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

// NewProductHandler создает новый handler каталога
func NewProductHandler(catalogService service.CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// ListProducts обрабатывает GET /products - полный список каталога
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.GetAllProducts(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get products")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get products",
		})
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// GetProduct обрабатывает GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product ID format",
		})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
			return
		}
		logger.Error().Err(err).Str("product_id", id.String()).Msg("Failed to get product")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get product",
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchProducts обрабатывает GET /products/search
// Параметры: q (подстрока), category, min_price, max_price.
// Некорректное значение фильтра - это 400, а не пустой результат
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Query: c.Query("q"),
	}

	if category := c.Query("category"); category != "" {
		if category != string(entity.CategoryPhysical) && category != string(entity.CategoryDigital) {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "invalid category filter",
			})
			return
		}
		filter.Category = entity.ProductCategory(category)
	}

	if raw := c.Query("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "invalid min_price value",
			})
			return
		}
		filter.MinPrice = &price
	}

	if raw := c.Query("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "invalid max_price value",
			})
			return
		}
		filter.MaxPrice = &price
	}

	products, err := h.catalogService.SearchProducts(c.Request.Context(), filter)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to search products")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to search products",
		})
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// CreateProduct обрабатывает POST /products/admin (только staff).
// Принимает multipart/form-data с полями товара и опциональным файлом image,
// либо обычный JSON без изображения
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, image, err := h.bindProductForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), req, image)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "price must not be negative",
			})
			return
		}
		logger.Error().Err(err).Msg("Failed to create product")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to create product",
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct обрабатывает PUT/PATCH /products/admin/:id (только staff)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product ID format",
		})
		return
	}

	req, image, err := h.bindProductUpdateForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
		case errors.Is(err, service.ErrInvalidPrice):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "price must not be negative",
			})
		default:
			logger.Error().Err(err).Str("product_id", id.String()).Msg("Failed to update product")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
				Error: "failed to update product",
			})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /products/admin/:id (только staff)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product ID format",
		})
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
			return
		}
		logger.Error().Err(err).Str("product_id", id.String()).Msg("Failed to delete product")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to delete product",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// bindProductForm разбирает тело запроса на создание товара.
// multipart/form-data несет поля формы + файл image, JSON - только поля
func (h *ProductHandler) bindProductForm(c *gin.Context) (*entity.CreateProductRequest, *service.ImageUpload, error) {
	var req entity.CreateProductRequest

	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	var form struct {
		Name        string `form:"name"`
		Description string `form:"description"`
		Price       string `form:"price"`
		Category    string `form:"category"`
		Stock       int    `form:"stock"`
	}
	if err := c.ShouldBind(&form); err != nil {
		return nil, nil, err
	}

	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		return nil, nil, err
	}

	req = entity.CreateProductRequest{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Category:    entity.ProductCategory(form.Category),
		Stock:       form.Stock,
	}

	image, err := bindImage(c)
	if err != nil {
		return nil, nil, err
	}

	return &req, image, nil
}

// bindProductUpdateForm разбирает тело частичного обновления товара
func (h *ProductHandler) bindProductUpdateForm(c *gin.Context) (*entity.UpdateProductRequest, *service.ImageUpload, error) {
	var req entity.UpdateProductRequest

	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	var form struct {
		Name        string `form:"name"`
		Description string `form:"description"`
		Price       string `form:"price"`
		Category    string `form:"category"`
		Stock       *int   `form:"stock"`
	}
	if err := c.ShouldBind(&form); err != nil {
		return nil, nil, err
	}

	req = entity.UpdateProductRequest{
		Name:        form.Name,
		Description: form.Description,
		Category:    entity.ProductCategory(form.Category),
		Stock:       form.Stock,
	}

	if form.Price != "" {
		price, err := decimal.NewFromString(form.Price)
		if err != nil {
			return nil, nil, err
		}
		req.Price = &price
	}

	image, err := bindImage(c)
	if err != nil {
		return nil, nil, err
	}

	return &req, image, nil
}

// bindImage достает файл image из multipart-формы, если он есть
func bindImage(c *gin.Context) (*service.ImageUpload, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}

	return &service.ImageUpload{
		Filename: fileHeader.Filename,
		Content:  file,
	}, nil
}

func isMultipart(c *gin.Context) bool {
	contentType := c.ContentType()
	return contentType == "multipart/form-data"
}
