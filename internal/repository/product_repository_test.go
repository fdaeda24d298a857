package repository

import (
	"context"
	"testing"

	"github.com/bnt-kitchen/internal/models"
)

func createTestProduct(t *testing.T, repo *GormProductRepository, slug, name string, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID:  1,
		Slug:        slug,
		NameJSON:    models.JSON{"vi-VN": name, "en-US": slug},
		PriceAmount: models.NewMoney(45000),
		Sizes: models.ProductSizes{
			{Size: "S", PriceDelta: models.NewMoney(-5000)},
			{Size: "L", PriceDelta: models.NewMoney(10000)},
		},
		IsActive: active,
	}
	if err := repo.Create(context.Background(), product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	stored, err := repo.GetByID(context.Background(), product.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if stored.IsActive != active {
		t.Fatalf("is_active should be stored as given: want %v, got %v", active, stored.IsActive)
	}
	return product
}

func TestProductRepositoryListSearchAndActive(t *testing.T) {
	repo := NewProductRepository(openTestDB(t))
	ctx := context.Background()
	createTestProduct(t, repo, "pho-bo", "Phở bò tái", true)
	createTestProduct(t, repo, "bun-cha", "Bún chả Hà Nội", true)
	createTestProduct(t, repo, "pho-ga", "Phở gà", false)

	active, total, err := repo.List(ctx, ProductListFilter{OnlyActive: true})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if total != 2 || len(active) != 2 {
		t.Fatalf("active list want 2 got total=%d len=%d", total, len(active))
	}

	found, _, err := repo.List(ctx, ProductListFilter{Search: "Phở"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("search should match both pho items, got %d", len(found))
	}

	product, err := repo.GetBySlug(ctx, "pho-ga", true)
	if err != nil {
		t.Fatalf("get inactive by slug failed: %v", err)
	}
	if product != nil {
		t.Fatalf("inactive product should be hidden")
	}

	product, err = repo.GetBySlug(ctx, "pho-bo", true)
	if err != nil || product == nil {
		t.Fatalf("get by slug failed: %v", err)
	}
	if got := product.PriceForSize("l").Int64(); got != 55000 {
		t.Fatalf("size L price want 55000 got %d", got)
	}
	if got := product.PriceForSize("XL").Int64(); got != 45000 {
		t.Fatalf("unknown size should use base price, got %d", got)
	}

	count, err := repo.CountBySlug(ctx, "pho-bo", product.ID)
	if err != nil {
		t.Fatalf("count by slug failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("excluding self should count 0, got %d", count)
	}
}

func TestSettingRepositoryUpsert(t *testing.T) {
	repo := NewSettingRepository(openTestDB(t))
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, "shop_config", models.JSON{"shipping_fee": 30000}); err != nil {
		t.Fatalf("insert setting failed: %v", err)
	}
	if _, err := repo.Upsert(ctx, "shop_config", models.JSON{"shipping_fee": 25000}); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}
	setting, err := repo.GetByKey(ctx, "shop_config")
	if err != nil || setting == nil {
		t.Fatalf("get setting failed: %v", err)
	}
	if fee, _ := setting.ValueJSON["shipping_fee"].(float64); fee != 25000 {
		t.Fatalf("shipping fee want 25000 got %v", setting.ValueJSON["shipping_fee"])
	}
}
