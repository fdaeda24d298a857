package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

type failingProductRepo struct {
	repository.ProductRepository
}

func (failingProductRepo) List(context.Context, repository.ProductListFilter) ([]models.Product, int64, error) {
	return nil, 0, errors.New("connection refused")
}

func (failingProductRepo) GetBySlug(context.Context, string, bool) (*models.Product, error) {
	return nil, errors.New("connection refused")
}

type failingCategoryRepo struct {
	repository.CategoryRepository
}

func (failingCategoryRepo) List(context.Context, bool) ([]models.Category, error) {
	return nil, errors.New("connection refused")
}

func newTestMenuServices(t *testing.T) (*ProductService, *CategoryService) {
	t.Helper()
	db := openServiceTestDB(t)
	categoryRepo := repository.NewCategoryRepository(db)
	return NewProductService(repository.NewProductRepository(db), categoryRepo), NewCategoryService(categoryRepo)
}

func createTestCategory(t *testing.T, svc *CategoryService, slug string) *models.Category {
	t.Helper()
	category, err := svc.Create(context.Background(), CreateCategoryInput{
		Slug:     slug,
		NameJSON: map[string]interface{}{"vi-VN": "Phở", "en-US": "Pho"},
	})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func phoInput(categoryID uint) CreateProductInput {
	return CreateProductInput{
		CategoryID:  categoryID,
		Slug:        "pho-bo",
		NameJSON:    map[string]interface{}{"vi-VN": " Phở bò ", "en-US": "Beef pho"},
		PriceAmount: models.NewMoney(50000),
		Sizes: []models.ProductSizeOption{
			{Size: "l", PriceDelta: models.NewMoney(15000)},
			{Size: "S", PriceDelta: models.NewMoney(-5000)},
		},
		IsFeatured: true,
	}
}

func TestProductServiceCreateNormalizesInput(t *testing.T) {
	products, categories := newTestMenuServices(t)
	category := createTestCategory(t, categories, "pho")

	product, err := products.Create(context.Background(), phoInput(category.ID))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if product.NameJSON.Localized("vi-VN") != "Phở bò" {
		t.Fatalf("unexpected name: %v", product.NameJSON)
	}
	if !product.IsActive {
		t.Fatalf("product should default to active")
	}
	if len(product.Sizes) != 2 || product.Sizes[0].Size != "S" || product.Sizes[1].Size != "L" {
		t.Fatalf("sizes should be upper-cased and ordered S/M/L, got %+v", product.Sizes)
	}
	if got := product.PriceForSize("L").Int64(); got != 65000 {
		t.Fatalf("expected L price 65000, got %d", got)
	}
}

func TestProductServiceCreateValidation(t *testing.T) {
	products, categories := newTestMenuServices(t)
	category := createTestCategory(t, categories, "pho")
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateProductInput)
		want   error
	}{
		{"bad slug", func(in *CreateProductInput) { in.Slug = "Phở Bò" }, ErrSlugInvalid},
		{"missing name", func(in *CreateProductInput) { in.NameJSON = map[string]interface{}{"en-US": "Beef pho"} }, ErrNameRequired},
		{"zero price", func(in *CreateProductInput) { in.PriceAmount = models.NewMoney(0) }, ErrProductPriceInvalid},
		{"unknown size", func(in *CreateProductInput) { in.Sizes = []models.ProductSizeOption{{Size: "XL"}} }, ErrProductSizeInvalid},
		{"duplicate size", func(in *CreateProductInput) {
			in.Sizes = []models.ProductSizeOption{{Size: "M"}, {Size: "m"}}
		}, ErrProductSizeInvalid},
		{"size price not positive", func(in *CreateProductInput) {
			in.Sizes = []models.ProductSizeOption{{Size: "S", PriceDelta: models.NewMoney(-50000)}}
		}, ErrProductSizeInvalid},
		{"unknown category", func(in *CreateProductInput) { in.CategoryID = category.ID + 100 }, ErrCategoryNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := phoInput(category.ID)
			tc.mutate(&input)
			if _, err := products.Create(ctx, input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := products.Create(ctx, phoInput(category.ID)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := products.Create(ctx, phoInput(category.ID)); !errors.Is(err, ErrProductSlugExists) {
		t.Fatalf("expected slug exists, got %v", err)
	}
}

func TestProductServicePublicListHidesInactive(t *testing.T) {
	products, categories := newTestMenuServices(t)
	category := createTestCategory(t, categories, "pho")
	ctx := context.Background()

	if _, err := products.Create(ctx, phoInput(category.ID)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	hidden := phoInput(category.ID)
	hidden.Slug = "pho-ga"
	inactive := false
	hidden.IsActive = &inactive
	if _, err := products.Create(ctx, hidden); err != nil {
		t.Fatalf("create hidden product failed: %v", err)
	}

	menu, err := products.ListPublic(ctx, PublicMenuFilter{})
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if menu.Fallback || menu.Total != 1 || menu.Products[0].Slug != "pho-bo" {
		t.Fatalf("unexpected public menu: %+v", menu)
	}
	if _, err := products.GetPublicBySlug(ctx, "pho-ga"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product should be hidden, got %v", err)
	}
	if _, err := products.GetActiveByID(ctx, menu.Products[0].ID); err != nil {
		t.Fatalf("get active by id failed: %v", err)
	}
}

func TestProductServiceFallsBackToBundledMenu(t *testing.T) {
	products := NewProductService(failingProductRepo{}, failingCategoryRepo{})
	ctx := context.Background()

	menu, err := products.ListPublic(ctx, PublicMenuFilter{})
	if err != nil {
		t.Fatalf("fallback should not surface an error: %v", err)
	}
	if !menu.Fallback || menu.Total == 0 {
		t.Fatalf("expected bundled menu, got %+v", menu)
	}
	for i := 1; i < len(menu.Products); i++ {
		if menu.Products[i-1].SortOrder < menu.Products[i].SortOrder {
			t.Fatalf("fallback menu should be ordered by sort_order desc")
		}
	}

	drinks, _ := products.ListPublic(ctx, PublicMenuFilter{CategoryID: 3})
	for _, product := range drinks.Products {
		if product.CategoryID != 3 {
			t.Fatalf("category filter not applied: %+v", product)
		}
	}
	searched, _ := products.ListPublic(ctx, PublicMenuFilter{Search: "coffee"})
	if searched.Total != 1 || searched.Products[0].Slug != "ca-phe-sua-da" {
		t.Fatalf("unexpected search result: %+v", searched.Products)
	}

	pho, err := products.GetPublicBySlug(ctx, "pho-bo-tai")
	if err != nil {
		t.Fatalf("fallback get by slug failed: %v", err)
	}
	if pho.Category.Slug != "pho-bun" {
		t.Fatalf("fallback product should carry its category, got %+v", pho.Category)
	}
	if _, err := products.GetPublicBySlug(ctx, "missing"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	categories, fallback, err := NewCategoryService(failingCategoryRepo{}).ListPublic(ctx)
	if err != nil || !fallback || len(categories) != 3 {
		t.Fatalf("expected fallback categories, got %d %v %v", len(categories), fallback, err)
	}
}

func TestCategoryServiceDeleteInUse(t *testing.T) {
	products, categories := newTestMenuServices(t)
	category := createTestCategory(t, categories, "pho")
	ctx := context.Background()

	if _, err := categories.Create(ctx, CreateCategoryInput{
		Slug:     "pho",
		NameJSON: map[string]interface{}{"vi-VN": "Phở 2"},
	}); !errors.Is(err, ErrCategorySlugExists) {
		t.Fatalf("expected slug exists, got %v", err)
	}

	product, err := products.Create(ctx, phoInput(category.ID))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := categories.Delete(ctx, category.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("expected category in use, got %v", err)
	}
	if err := products.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}
	if err := categories.Delete(ctx, category.ID); err != nil {
		t.Fatalf("delete category failed: %v", err)
	}
	if err := categories.Delete(ctx, category.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductServiceSeedFallbackMenuIsIdempotent(t *testing.T) {
	ctx := context.Background()
	products, _ := newTestMenuServices(t)

	createdCategories, createdProducts, err := products.SeedFallbackMenu(ctx)
	if err != nil {
		t.Fatalf("seed menu failed: %v", err)
	}
	if createdCategories != len(FallbackCategories()) || createdProducts == 0 {
		t.Fatalf("first seed should create everything, got categories=%d products=%d", createdCategories, createdProducts)
	}

	again, againProducts, err := products.SeedFallbackMenu(ctx)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if again != 0 || againProducts != 0 {
		t.Fatalf("second seed should be a no-op, got categories=%d products=%d", again, againProducts)
	}

	menu, err := products.ListPublic(ctx, PublicMenuFilter{PageSize: 50})
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if menu.Fallback {
		t.Fatalf("seeded menu should come from the database")
	}
}

func TestCategoryServiceRequiresVietnameseNameAndKeepsInactive(t *testing.T) {
	_, categories := newTestMenuServices(t)
	ctx := context.Background()

	if _, err := categories.Create(ctx, CreateCategoryInput{
		Slug:     "drinks",
		NameJSON: map[string]interface{}{"en-US": "Drinks"},
	}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("english-only name should be rejected, got %v", err)
	}

	inactive := false
	hidden, err := categories.Create(ctx, CreateCategoryInput{
		Slug:     "mon-theo-mua",
		NameJSON: map[string]interface{}{"vi-VN": "Món theo mùa"},
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if hidden.IsActive {
		t.Fatalf("category created as inactive must stay inactive")
	}
	createTestCategory(t, categories, "pho")

	public, fallback, err := categories.ListPublic(ctx)
	if err != nil || fallback {
		t.Fatalf("list public categories failed: fallback=%v err=%v", fallback, err)
	}
	if len(public) != 1 || public[0].Slug != "pho" {
		t.Fatalf("only active categories should be listed, got %+v", public)
	}
}
