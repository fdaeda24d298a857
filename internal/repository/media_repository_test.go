package repository

import (
	"context"
	"testing"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"

	"github.com/google/uuid"
)

func TestMediaRepositoryListAndPublicIDs(t *testing.T) {
	repo := NewMediaRepository(openTestDB(t))
	ctx := context.Background()
	items := []models.MediaItem{
		{ID: uuid.NewString(), Source: constants.MediaSourceLocal, PublicID: "menu/2026/01/a.jpg", URL: "/uploads/menu/2026/01/a.jpg", Filename: "pho-bo.jpg", Folder: "menu"},
		{ID: uuid.NewString(), Source: constants.MediaSourceCloudinary, PublicID: "bnt/banh-mi", URL: "https://res.cloudinary.com/demo/banh-mi.jpg", Filename: "banh-mi.jpg", Folder: "bnt"},
		{ID: uuid.NewString(), Source: constants.MediaSourceCloudinary, PublicID: "bnt/ca-phe", URL: "https://res.cloudinary.com/demo/ca-phe.jpg", Filename: "ca_phe_sua.jpg", Folder: "bnt"},
	}
	if err := repo.CreateBatch(ctx, items); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	list, total, err := repo.List(ctx, MediaListFilter{Source: constants.MediaSourceCloudinary})
	if err != nil {
		t.Fatalf("list media failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("cloudinary list want 2 got total=%d len=%d", total, len(list))
	}

	// 下划线按字面匹配
	list, _, err = repo.List(ctx, MediaListFilter{Search: "ca_phe"})
	if err != nil {
		t.Fatalf("search media failed: %v", err)
	}
	if len(list) != 1 || list[0].PublicID != "bnt/ca-phe" {
		t.Fatalf("search should match single item, got %+v", list)
	}

	ids, err := repo.ListPublicIDs(ctx, constants.MediaSourceCloudinary)
	if err != nil {
		t.Fatalf("list public ids failed: %v", err)
	}
	if _, ok := ids["bnt/banh-mi"]; !ok || len(ids) != 2 {
		t.Fatalf("public id set mismatch: %v", ids)
	}

	found, err := repo.GetBySourcePublicID(ctx, constants.MediaSourceLocal, "menu/2026/01/a.jpg")
	if err != nil || found == nil {
		t.Fatalf("get by public id failed: %v", err)
	}

	affected, err := repo.DeleteBySource(ctx, constants.MediaSourceCloudinary, []string{"bnt/banh-mi", "bnt/missing"})
	if err != nil {
		t.Fatalf("delete by source failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("delete affected want 1 got %d", affected)
	}
}

func TestMediaRepositoryRejectsDuplicatePublicID(t *testing.T) {
	repo := NewMediaRepository(openTestDB(t))
	ctx := context.Background()
	item := &models.MediaItem{ID: uuid.NewString(), Source: constants.MediaSourceCloudinary, PublicID: "bnt/dup", URL: "https://x/dup.jpg"}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("create media failed: %v", err)
	}
	dup := &models.MediaItem{ID: uuid.NewString(), Source: constants.MediaSourceCloudinary, PublicID: "bnt/dup", URL: "https://x/dup.jpg"}
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatalf("duplicate public id should fail")
	}
}
