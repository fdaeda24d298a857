package admin

import (
	"strconv"
	"strings"

	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// ====================  菜品管理  ====================

// GetAdminProducts 获取菜品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	categoryID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("category_id")), 10, 64)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListAdmin(c.Request.Context(), uint(categoryID), search, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 获取菜品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "error.product_id_invalid")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdminByID(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// CreateProductRequest 创建/更新菜品请求
type CreateProductRequest struct {
	CategoryID      uint                       `json:"category_id" binding:"required"`
	Slug            string                     `json:"slug" binding:"required"`
	NameJSON        map[string]interface{}     `json:"name" binding:"required"`
	DescriptionJSON map[string]interface{}     `json:"description"`
	PriceAmount     models.Money               `json:"price"`
	Image           string                     `json:"image"`
	Images          []string                   `json:"images"`
	Tags            []string                   `json:"tags"`
	Sizes           []models.ProductSizeOption `json:"sizes"`
	IsActive        *bool                      `json:"is_active"`
	IsFeatured      bool                       `json:"is_featured"`
	SortOrder       int                        `json:"sort_order"`
}

func (r CreateProductRequest) toInput() service.CreateProductInput {
	return service.CreateProductInput{
		CategoryID:      r.CategoryID,
		Slug:            r.Slug,
		NameJSON:        r.NameJSON,
		DescriptionJSON: r.DescriptionJSON,
		PriceAmount:     r.PriceAmount,
		Image:           r.Image,
		Images:          r.Images,
		Tags:            r.Tags,
		Sizes:           r.Sizes,
		IsActive:        r.IsActive,
		IsFeatured:      r.IsFeatured,
		SortOrder:       r.SortOrder,
	}
}

// CreateProduct 创建菜品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.product_create_failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新菜品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "error.product_id_invalid")
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.product_update_failed")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除菜品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "error.product_id_invalid")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), id); err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.product_delete_failed")
		return
	}
	response.Success(c, nil)
}

// ====================  分类管理  ====================

// GetAdminCategories 获取分类列表 (Admin)
func (h *Handler) GetAdminCategories(c *gin.Context) {
	categories, err := h.CategoryService.List(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.category_fetch_failed")
		return
	}
	response.Success(c, categories)
}

// CreateCategoryRequest 创建/更新分类请求
type CreateCategoryRequest struct {
	Slug      string                 `json:"slug" binding:"required"`
	NameJSON  map[string]interface{} `json:"name" binding:"required"`
	Image     string                 `json:"image"`
	IsActive  *bool                  `json:"is_active"`
	SortOrder int                    `json:"sort_order"`
}

func (r CreateCategoryRequest) toInput() service.CreateCategoryInput {
	return service.CreateCategoryInput{
		Slug:      r.Slug,
		NameJSON:  r.NameJSON,
		Image:     r.Image,
		IsActive:  r.IsActive,
		SortOrder: r.SortOrder,
	}
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CategoryService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.category_create_failed")
		return
	}
	response.Success(c, category)
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "error.category_id_invalid")
	if !ok {
		return
	}
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CategoryService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.category_update_failed")
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类，分类下仍有菜品时拒绝
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "error.category_id_invalid")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(c.Request.Context(), id); err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.category_delete_failed")
		return
	}
	response.Success(c, nil)
}
