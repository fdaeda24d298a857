package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bnt-kitchen/internal/models"

	"gorm.io/gorm"
)

// MediaRepository 媒体库数据访问接口
type MediaRepository interface {
	Create(ctx context.Context, item *models.MediaItem) error
	CreateBatch(ctx context.Context, items []models.MediaItem) error
	GetByID(ctx context.Context, id string) (*models.MediaItem, error)
	GetBySourcePublicID(ctx context.Context, source, publicID string) (*models.MediaItem, error)
	List(ctx context.Context, filter MediaListFilter) ([]models.MediaItem, int64, error)
	ListPublicIDs(ctx context.Context, source string) (map[string]struct{}, error)
	Update(ctx context.Context, item *models.MediaItem) error
	Delete(ctx context.Context, id string) error
	DeleteBySource(ctx context.Context, source string, publicIDs []string) (int64, error)
}

// GormMediaRepository GORM 实现
type GormMediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository 创建媒体仓库
func NewMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{db: db}
}

// Create 写入媒体记录
func (r *GormMediaRepository) Create(ctx context.Context, item *models.MediaItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// CreateBatch 批量写入
func (r *GormMediaRepository) CreateBatch(ctx context.Context, items []models.MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(items, 100).Error
}

// GetByID 根据 ID 获取媒体
func (r *GormMediaRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	var item models.MediaItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySourcePublicID 根据来源与存储侧标识获取
func (r *GormMediaRepository) GetBySourcePublicID(ctx context.Context, source, publicID string) (*models.MediaItem, error) {
	var item models.MediaItem
	if err := r.db.WithContext(ctx).
		Where("source = ? AND public_id = ?", source, publicID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List 媒体列表，按创建时间倒序
func (r *GormMediaRepository) List(ctx context.Context, filter MediaListFilter) ([]models.MediaItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MediaItem{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if folder := strings.TrimSpace(filter.Folder); folder != "" {
		query = query.Where("folder = ?", folder)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := containsPattern(search)
		condition, argCount := buildLocalizedLikeCondition(r.db, []string{"filename", "public_id", "alt"}, nil)
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.MediaItem
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListPublicIDs 返回某来源下已入库的全部 public_id
func (r *GormMediaRepository) ListPublicIDs(ctx context.Context, source string) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.MediaItem{}).
		Where("source = ?", source).
		Pluck("public_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Update 更新媒体元数据
func (r *GormMediaRepository) Update(ctx context.Context, item *models.MediaItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 删除媒体记录
func (r *GormMediaRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MediaItem{}).Error
}

// DeleteBySource 按来源与 public_id 批量删除
func (r *GormMediaRepository) DeleteBySource(ctx context.Context, source string, publicIDs []string) (int64, error) {
	if len(publicIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("source = ? AND public_id IN ?", source, publicIDs).
		Delete(&models.MediaItem{})
	return result.RowsAffected, result.Error
}
