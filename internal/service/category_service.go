package service

import (
	"context"
	"strings"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CreateCategoryInput 创建/更新分类输入
type CreateCategoryInput struct {
	Slug      string
	NameJSON  map[string]interface{}
	Image     string
	IsActive  *bool
	SortOrder int
}

// ListPublic 前台分类，读取失败时回退到内置菜单分类
func (s *CategoryService) ListPublic(ctx context.Context) ([]models.Category, bool, error) {
	categories, err := s.repo.List(ctx, true)
	if err != nil {
		logger.Warnw("menu_fallback_used", "reason", "categories_failed", "error", err)
		return FallbackCategories(), true, nil
	}
	return categories, false, nil
}

// List 获取后台分类列表
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, wrapStoreError("categories.list", err)
	}
	return categories, nil
}

// Create 创建分类
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	category := &models.Category{IsActive: true}
	if err := s.apply(ctx, category, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, wrapStoreError("categories.create", err)
	}
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(ctx context.Context, id uint, input CreateCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("categories.get", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err := s.apply(ctx, category, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, wrapStoreError("categories.update", err)
	}
	return category, nil
}

// Delete 删除分类，仍有菜品引用时拒绝
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return wrapStoreError("categories.get", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return wrapStoreError("categories.count_products", err)
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapStoreError("categories.delete", err)
	}
	return nil
}

func (s *CategoryService) apply(ctx context.Context, category *models.Category, input CreateCategoryInput) error {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return ErrSlugInvalid
	}
	name := normalizeLocalizedInput(input.NameJSON)
	if !hasLocaleText(name, constants.LocaleViVN) {
		return ErrNameRequired
	}
	count, err := s.repo.CountBySlug(ctx, slug, category.ID)
	if err != nil {
		return wrapStoreError("categories.count_slug", err)
	}
	if count > 0 {
		return ErrCategorySlugExists
	}
	category.Slug = slug
	category.NameJSON = name
	category.Image = strings.TrimSpace(input.Image)
	category.SortOrder = input.SortOrder
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	return nil
}
