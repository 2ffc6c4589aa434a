// Product HTTP handlers.
//
// This file exposes REST endpoints for the product catalog:
//   - POST  /products       (list a product for rent)
//   - GET   /products       (browse, paginated, ETag support)
//   - GET   /products/{id}  (fetch one)
//   - PATCH /products/{id}  (owner edits, hide/re-list)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/services"
)

// CreateProductRequest is the JSON payload for listing a product.
type CreateProductRequest struct {
	Title        string `json:"title" binding:"required" example:"2-person camping tent"`
	Description  string `json:"description" binding:"required" example:"Waterproof, includes pegs"`
	Category     string `json:"category" binding:"required" example:"camping"`
	PricePerDay  int64  `json:"price_per_day" binding:"min=0" example:"1000"`
	Deposit      int64  `json:"deposit" binding:"min=0" example:"500"`
	Location     string `json:"location" binding:"required" example:"Busan"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" example:"https://cdn.example.com/p/tent.jpg"`
}

// UpdateProductRequest is the JSON payload for a partial product update.
// Omitted fields are left unchanged. Status may be AVAILABLE or HIDDEN.
type UpdateProductRequest struct {
	Title        *string               `json:"title,omitempty"`
	Description  *string               `json:"description,omitempty"`
	Category     *string               `json:"category,omitempty"`
	PricePerDay  *int64                `json:"price_per_day,omitempty"`
	Deposit      *int64                `json:"deposit,omitempty"`
	Location     *string               `json:"location,omitempty"`
	ThumbnailURL *string               `json:"thumbnail_url,omitempty"`
	Status       *domain.ProductStatus `json:"status,omitempty" enums:"AVAILABLE,HIDDEN"`
}

// ListProductsResponse wraps a page of products and pagination information.
type ListProductsResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// CreateProduct godoc
// @ID          createProduct
// @Summary     List a product for rent
// @Tags        Products
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Owner user ID"
// @Param       body       body    handlers.CreateProductRequest  true  "Product payload"
// @Success     201  {object}  domain.Product
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Owner not found"
// @Router      /products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title, description, category and location are required; price and deposit must be >= 0")
		return
	}
	p, err := h.productSvc.Create(c.Request.Context(), uid, services.ProductInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PricePerDay:  req.PricePerDay,
		Deposit:      req.Deposit,
		Location:     req.Location,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListProducts godoc
// @ID          listProducts
// @Summary     Browse products (paginated)
// @Description Newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Products
// @Produce     json
// @Param       owner_id       query   string  false  "Filter by owner"
// @Param       category       query   string  false  "Filter by category (case-insensitive)"
// @Param       status         query   string  false  "Filter by status"  Enums(AVAILABLE,RENTED,HIDDEN)
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListProductsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad status filter"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	f := repo.ProductFilter{
		OwnerID:  strings.TrimSpace(c.Query("owner_id")),
		Category: c.Query("category"),
	}
	if st := strings.ToUpper(strings.TrimSpace(c.Query("status"))); st != "" {
		f.Status = domain.ProductStatus(st)
		if !f.Status.Valid() {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be AVAILABLE, RENTED or HIDDEN")
			return
		}
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, isSvc := h.productSvc.(*services.ProductService); isSvc {
		if count, maxTS, err := svc.Stats(ctx, f); err == nil {
			if checkETag(c, "products:"+c.Request.URL.RawQuery, count, maxTS) {
				return
			}
		}
	}

	items, total, err := h.productSvc.ListPage(ctx, f, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListProductsResponse{Products: items, Pagination: newPagination(page, pageSize, total)})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Tags        Products
// @Produce     json
// @Param       id   path      string  true  "Product ID"  format(uuid)
// @Success     200  {object}  domain.Product
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.productSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProduct godoc
// @ID          updateProduct
// @Summary     Update a product
// @Description Partial update by the owner. Status may toggle AVAILABLE/HIDDEN, never while RENTED.
// @Tags        Products
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Owner user ID"
// @Param       id         path    string  true  "Product ID"  format(uuid)
// @Param       body       body    handlers.UpdateProductRequest  true  "Fields to change"
// @Success     200  {object}  domain.Product
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Product is rented or was modified concurrently"
// @Router      /products/{id} [patch]
func (h *Handlers) UpdateProduct(c *gin.Context) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.productSvc.Update(c.Request.Context(), uid, c.Param("id"), services.ProductPatch{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PricePerDay:  req.PricePerDay,
		Deposit:      req.Deposit,
		Location:     req.Location,
		ThumbnailURL: req.ThumbnailURL,
		Status:       req.Status,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
