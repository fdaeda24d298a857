package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

//go:embed fallback/menu.json
var fallbackMenuJSON []byte

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// fallbackMenu 内置静态菜单，数据库不可用时前台仍可浏览
type fallbackMenu struct {
	Categories []models.Category `json:"categories"`
	Products   []models.Product  `json:"products"`
}

var (
	fallbackOnce sync.Once
	fallbackData fallbackMenu
)

func loadFallbackMenu() fallbackMenu {
	fallbackOnce.Do(func() {
		if err := json.Unmarshal(fallbackMenuJSON, &fallbackData); err != nil {
			logger.Errorw("fallback_menu_decode_failed", "error", err)
		}
		categories := make(map[uint]models.Category, len(fallbackData.Categories))
		for _, category := range fallbackData.Categories {
			categories[category.ID] = category
		}
		for i := range fallbackData.Products {
			fallbackData.Products[i].Category = categories[fallbackData.Products[i].CategoryID]
		}
	})
	return fallbackData
}

// ProductService 菜品业务服务
type ProductService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService 创建菜品服务
func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductService {
	return &ProductService{repo: repo, categoryRepo: categoryRepo}
}

// PublicMenuFilter 前台菜单条件
type PublicMenuFilter struct {
	CategoryID uint
	Search     string
	Featured   bool
	Page       int
	PageSize   int
}

func (f PublicMenuFilter) cacheVariant() (string, bool) {
	if f.CategoryID != 0 || strings.TrimSpace(f.Search) != "" || f.Featured || f.Page > 1 {
		return "", false
	}
	return "all:" + strconv.Itoa(f.PageSize), true
}

// PublicMenu 前台菜单结果，Fallback 表示数据来自内置静态菜单
type PublicMenu struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Fallback bool             `json:"fallback"`
}

// CreateProductInput 创建/更新菜品输入
type CreateProductInput struct {
	CategoryID      uint
	Slug            string
	NameJSON        map[string]interface{}
	DescriptionJSON map[string]interface{}
	PriceAmount     models.Money
	Image           string
	Images          []string
	Tags            []string
	Sizes           []models.ProductSizeOption
	IsActive        *bool
	IsFeatured      bool
	SortOrder       int
}

// ListPublic 获取前台菜单；数据库读取失败时回退到内置菜单
func (s *ProductService) ListPublic(ctx context.Context, filter PublicMenuFilter) (*PublicMenu, error) {
	variant, cacheable := filter.cacheVariant()
	if cacheable {
		var cached PublicMenu
		if hit, err := cache.GetPublicMenu(ctx, variant, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	products, total, err := s.repo.List(ctx, repository.ProductListFilter{
		Page:         filter.Page,
		PageSize:     filter.PageSize,
		CategoryID:   filter.CategoryID,
		Search:       filter.Search,
		OnlyActive:   true,
		OnlyFeatured: filter.Featured,
		WithCategory: true,
	})
	if err != nil {
		logger.Warnw("menu_fallback_used", "reason", "list_failed", "error", err)
		return fallbackPublicMenu(filter), nil
	}

	result := &PublicMenu{Products: products, Total: total}
	if cacheable {
		if err := cache.SetPublicMenu(ctx, variant, result); err != nil {
			logger.Warnw("menu_cache_set_failed", "error", err)
		}
	}
	return result, nil
}

// GetPublicBySlug 获取前台菜品详情
func (s *ProductService) GetPublicBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug), true)
	if err != nil {
		logger.Warnw("menu_fallback_used", "reason", "get_failed", "slug", slug, "error", err)
		for _, item := range loadFallbackMenu().Products {
			if item.Slug == slug && item.IsActive {
				found := item
				return &found, nil
			}
		}
		return nil, ErrProductNotFound
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetActiveByID 购物车与下单时读取上架菜品
func (s *ProductService) GetActiveByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("products.get", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台菜品列表
func (s *ProductService) ListAdmin(ctx context.Context, categoryID uint, search string, page, pageSize int) ([]models.Product, int64, error) {
	products, total, err := s.repo.List(ctx, repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		WithCategory: true,
	})
	if err != nil {
		return nil, 0, wrapStoreError("products.list", err)
	}
	return products, total, nil
}

// GetAdminByID 获取后台菜品详情
func (s *ProductService) GetAdminByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("products.get", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建菜品
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	product := &models.Product{}
	if err := s.apply(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, wrapStoreError("products.create", err)
	}
	s.invalidateMenu(ctx)
	return product, nil
}

// Update 更新菜品
func (s *ProductService) Update(ctx context.Context, id uint, input CreateProductInput) (*models.Product, error) {
	product, err := s.GetAdminByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, wrapStoreError("products.update", err)
	}
	s.invalidateMenu(ctx)
	return product, nil
}

// Delete 删除菜品（软删除）
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetAdminByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapStoreError("products.delete", err)
	}
	s.invalidateMenu(ctx)
	return nil
}

func (s *ProductService) apply(ctx context.Context, product *models.Product, input CreateProductInput) error {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return ErrSlugInvalid
	}
	name := normalizeLocalizedInput(input.NameJSON)
	if !hasLocaleText(name, constants.LocaleViVN) {
		return ErrNameRequired
	}
	if !input.PriceAmount.IsPositive() {
		return ErrProductPriceInvalid
	}
	sizes, err := normalizeProductSizes(input.Sizes, input.PriceAmount)
	if err != nil {
		return err
	}

	category, err := s.categoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		return wrapStoreError("categories.get", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	count, err := s.repo.CountBySlug(ctx, slug, product.ID)
	if err != nil {
		return wrapStoreError("products.count_slug", err)
	}
	if count > 0 {
		return ErrProductSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product.CategoryID = input.CategoryID
	product.Slug = slug
	product.NameJSON = name
	product.DescriptionJSON = normalizeLocalizedInput(input.DescriptionJSON)
	product.PriceAmount = models.NewMoneyFromDecimal(input.PriceAmount.Decimal)
	product.Image = strings.TrimSpace(input.Image)
	product.Images = normalizeStringList(input.Images)
	product.Tags = normalizeStringList(input.Tags)
	product.Sizes = sizes
	product.IsActive = isActive
	product.IsFeatured = input.IsFeatured
	product.SortOrder = input.SortOrder
	return nil
}

func (s *ProductService) invalidateMenu(ctx context.Context) {
	if !cache.Enabled() {
		return
	}
	variants := []string{"all:0", "all:20"}
	if err := cache.InvalidatePublicMenu(ctx, variants...); err != nil {
		logger.Warnw("menu_cache_invalidate_failed", "error", err)
	}
}

// normalizeProductSizes 规格只允许 S/M/L 且不重复，调整后单价必须为正
func normalizeProductSizes(sizes []models.ProductSizeOption, base models.Money) (models.ProductSizes, error) {
	order := map[string]int{
		constants.ProductSizeSmall:  0,
		constants.ProductSizeMedium: 1,
		constants.ProductSizeLarge:  2,
	}
	result := make(models.ProductSizes, 0, len(sizes))
	seen := make(map[string]struct{}, len(sizes))
	for _, option := range sizes {
		size := strings.ToUpper(strings.TrimSpace(option.Size))
		if _, ok := order[size]; !ok {
			return nil, ErrProductSizeInvalid
		}
		if _, dup := seen[size]; dup {
			return nil, ErrProductSizeInvalid
		}
		if !base.Add(option.PriceDelta).IsPositive() {
			return nil, ErrProductSizeInvalid
		}
		seen[size] = struct{}{}
		result = append(result, models.ProductSizeOption{
			Size:       size,
			PriceDelta: models.NewMoneyFromDecimal(option.PriceDelta.Decimal),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return order[result[i].Size] < order[result[j].Size]
	})
	return result, nil
}

// hasLocaleText 指定语言必须自带文本，不走 Localized 的语言回退
func hasLocaleText(name models.JSON, locale string) bool {
	text, _ := name[locale].(string)
	return strings.TrimSpace(text) != ""
}

func normalizeLocalizedInput(raw map[string]interface{}) models.JSON {
	result := make(models.JSON, len(constants.SupportedLocales))
	for _, locale := range constants.SupportedLocales {
		text, _ := raw[locale].(string)
		result[locale] = strings.TrimSpace(text)
	}
	return result
}

func normalizeStringList(values []string) models.StringArray {
	result := make(models.StringArray, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// fallbackPublicMenu 在内置菜单上执行与数据库相同的过滤、排序与分页
func fallbackPublicMenu(filter PublicMenuFilter) *PublicMenu {
	menu := loadFallbackMenu()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.Product, 0, len(menu.Products))
	for _, product := range menu.Products {
		if !product.IsActive {
			continue
		}
		if filter.CategoryID != 0 && product.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Featured && !product.IsFeatured {
			continue
		}
		if search != "" && !productMatchesSearch(product, search) {
			continue
		}
		matched = append(matched, product)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].SortOrder > matched[j].SortOrder
	})

	total := int64(len(matched))
	page, pageSize := normalizeListPage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return &PublicMenu{Products: matched[start:end], Total: total, Fallback: true}
}

func productMatchesSearch(product models.Product, search string) bool {
	if strings.Contains(product.Slug, search) {
		return true
	}
	for _, locale := range constants.SupportedLocales {
		if strings.Contains(strings.ToLower(product.NameJSON.Localized(locale)), search) {
			return true
		}
	}
	return false
}

// FallbackCategories 内置菜单分类
func FallbackCategories() []models.Category {
	categories := loadFallbackMenu().Categories
	out := make([]models.Category, len(categories))
	copy(out, categories)
	return out
}

// SeedFallbackMenu 将内置菜单写入空库，按 slug 跳过已存在的分类和菜品
func (s *ProductService) SeedFallbackMenu(ctx context.Context) (int, int, error) {
	data := loadFallbackMenu()
	existing, err := s.categoryRepo.List(ctx, false)
	if err != nil {
		return 0, 0, wrapStoreError("categories.list", err)
	}
	idBySlug := make(map[string]uint, len(existing))
	for _, category := range existing {
		idBySlug[category.Slug] = category.ID
	}

	createdCategories := 0
	categoryIDs := make(map[uint]uint, len(data.Categories))
	for _, seed := range data.Categories {
		if id, ok := idBySlug[seed.Slug]; ok {
			categoryIDs[seed.ID] = id
			continue
		}
		category := seed
		category.ID = 0
		if err := s.categoryRepo.Create(ctx, &category); err != nil {
			return createdCategories, 0, wrapStoreError("categories.create", err)
		}
		categoryIDs[seed.ID] = category.ID
		createdCategories++
	}

	createdProducts := 0
	for _, seed := range data.Products {
		count, err := s.repo.CountBySlug(ctx, seed.Slug, 0)
		if err != nil {
			return createdCategories, createdProducts, wrapStoreError("products.count", err)
		}
		if count > 0 {
			continue
		}
		product := seed
		product.ID = 0
		product.Category = models.Category{}
		product.CategoryID = categoryIDs[seed.CategoryID]
		if err := s.repo.Create(ctx, &product); err != nil {
			return createdCategories, createdProducts, wrapStoreError("products.create", err)
		}
		createdProducts++
	}
	if createdProducts > 0 {
		s.invalidateMenu(ctx)
	}
	logger.Infow("menu_seeded", "categories", createdCategories, "products", createdProducts)
	return createdCategories, createdProducts, nil
}
