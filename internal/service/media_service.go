package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/media"
	"github.com/bnt-kitchen/internal/metrics"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/queue"
	"github.com/bnt-kitchen/internal/repository"

	"github.com/google/uuid"
)

// MediaUploadInput 上传输入
type MediaUploadInput struct {
	Source string
	Upload media.Upload
	Alt    string
	Tags   []string
}

// MediaPatchInput 元数据修改，nil 字段保持不变
type MediaPatchInput struct {
	Filename *string
	Alt      *string
	Tags     []string
	Folder   *string
}

// MediaMetadataInput 仅写表的元数据，文件已在存储侧
type MediaMetadataInput struct {
	ID       string
	Source   string
	PublicID string
	URL      string
	Filename string
	Format   string
	Bytes    int64
	Width    int
	Height   int
	Folder   string
	Alt      string
	Tags     []string
}

// MediaService 媒体库服务，后端按来源在调用处选择
type MediaService struct {
	repo     repository.MediaRepository
	backends map[string]media.Backend
	signer   *media.Signer
	queue    *queue.Client
	metrics  *metrics.Metrics
}

// NewMediaService 创建媒体服务，cloudinary 与 signer 可为 nil
func NewMediaService(repo repository.MediaRepository, local media.Backend, cloudinary media.Backend, signer *media.Signer, queueClient *queue.Client, m *metrics.Metrics) *MediaService {
	backends := make(map[string]media.Backend, 2)
	if local != nil {
		backends[constants.MediaSourceLocal] = local
	}
	if cloudinary != nil {
		backends[constants.MediaSourceCloudinary] = cloudinary
	}
	return &MediaService{
		repo:     repo,
		backends: backends,
		signer:   signer,
		queue:    queueClient,
		metrics:  m,
	}
}

// CloudinaryEnabled 是否配置了 Cloudinary
func (s *MediaService) CloudinaryEnabled() bool {
	_, ok := s.backends[constants.MediaSourceCloudinary]
	return ok
}

func (s *MediaService) backend(source string) (media.Backend, error) {
	source = normalizeMediaSource(source)
	if source == "" {
		return nil, ErrMediaSourceInvalid
	}
	backend, ok := s.backends[source]
	if !ok {
		return nil, ErrMediaBackendUnavailable
	}
	return backend, nil
}

// List 媒体库列表
func (s *MediaService) List(ctx context.Context, filter repository.MediaListFilter) ([]models.MediaItem, int64, error) {
	if filter.Source != "" {
		filter.Source = normalizeMediaSource(filter.Source)
		if filter.Source == "" {
			return nil, 0, ErrMediaSourceInvalid
		}
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, wrapStoreError("media.list", err)
	}
	return items, total, nil
}

// Get 获取单个媒体
func (s *MediaService) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMediaNotFound
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("media.get", err)
	}
	if item == nil {
		return nil, ErrMediaNotFound
	}
	return item, nil
}

// Upload 存储文件并写入元数据；写表失败时回收已存储的文件
func (s *MediaService) Upload(ctx context.Context, input MediaUploadInput) (item *models.MediaItem, err error) {
	source := constants.MediaSourceLocal
	if raw := strings.TrimSpace(input.Source); raw != "" {
		source = normalizeMediaSource(raw)
	}
	defer func() {
		label := source
		if label == "" {
			label = "unknown"
		}
		s.metrics.MediaUploaded(label, err)
	}()

	backend, err := s.backend(source)
	if err != nil {
		return nil, err
	}
	stored, err := backend.Store(ctx, input.Upload)
	if err != nil {
		return nil, translateMediaError(err)
	}

	item = mediaItemFromStored(source, stored)
	item.ID = uuid.NewString()
	item.Alt = strings.TrimSpace(input.Alt)
	item.Tags = normalizeStringList(input.Tags)
	if err := s.repo.Create(ctx, item); err != nil {
		if cleanupErr := backend.Delete(ctx, stored.PublicID); cleanupErr != nil {
			logger.Warnw("media_upload_cleanup_failed", "source", source, "public_id", stored.PublicID, "error", cleanupErr)
		}
		return nil, wrapStoreError("media.create", err)
	}
	logger.Infow("media_uploaded", "id", item.ID, "source", source, "public_id", item.PublicID, "bytes", item.Bytes)
	return item, nil
}

// Delete 删除存储侧文件与元数据，存储侧已不存在时只删元数据
func (s *MediaService) Delete(ctx context.Context, id string) (*models.MediaItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	backend, err := s.backend(item.Source)
	if err != nil {
		return nil, err
	}
	if err := backend.Delete(ctx, item.PublicID); err != nil && !errors.Is(err, media.ErrObjectNotFound) {
		return nil, translateMediaError(err)
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return nil, wrapStoreError("media.delete", err)
	}
	return item, nil
}

// DeleteMany 批量删除，遇到第一个错误即停止并返回已删除的部分
func (s *MediaService) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	ids = uniqueTrimmed(ids)
	if len(ids) == 0 {
		return nil, ErrMediaIDsRequired
	}
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := s.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrMediaNotFound) {
				continue
			}
			return deleted, err
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// Patch 修改元数据
func (s *MediaService) Patch(ctx context.Context, id string, input MediaPatchInput) (*models.MediaItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Filename != nil {
		item.Filename = strings.TrimSpace(*input.Filename)
	}
	if input.Alt != nil {
		item.Alt = strings.TrimSpace(*input.Alt)
	}
	if input.Tags != nil {
		item.Tags = normalizeStringList(input.Tags)
	}
	if input.Folder != nil {
		item.Folder = strings.Trim(strings.TrimSpace(*input.Folder), "/")
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, wrapStoreError("media.update", err)
	}
	return item, nil
}

// ListRemote 直接列出 Cloudinary 上的资源
func (s *MediaService) ListRemote(ctx context.Context, folder string, maxResults int) ([]media.StoredObject, error) {
	backend, err := s.backend(constants.MediaSourceCloudinary)
	if err != nil {
		return nil, err
	}
	objects, err := backend.List(ctx, media.ListOptions{Folder: folder, MaxResults: maxResults})
	if err != nil {
		return nil, translateMediaError(err)
	}
	return objects, nil
}

// SyncCloudinary 导入 Cloudinary 上尚未入库的资源
func (s *MediaService) SyncCloudinary(ctx context.Context, folder string) ([]models.MediaItem, error) {
	objects, err := s.ListRemote(ctx, folder, 0)
	if err != nil {
		return nil, err
	}
	known, err := s.repo.ListPublicIDs(ctx, constants.MediaSourceCloudinary)
	if err != nil {
		return nil, wrapStoreError("media.list_public_ids", err)
	}

	imported := make([]models.MediaItem, 0)
	for i := range objects {
		if _, ok := known[objects[i].PublicID]; ok {
			continue
		}
		known[objects[i].PublicID] = struct{}{}
		item := mediaItemFromStored(constants.MediaSourceCloudinary, &objects[i])
		item.ID = uuid.NewString()
		imported = append(imported, *item)
	}
	if err := s.repo.CreateBatch(ctx, imported); err != nil {
		return nil, wrapStoreError("media.create_batch", err)
	}
	s.metrics.MediaSyncImported(len(imported))
	logger.Infow("media_cloudinary_synced", "folder", folder, "remote", len(objects), "imported", len(imported))
	return imported, nil
}

// ScheduleCloudinarySync 投递后台同步任务，队列未启用时直接忽略
func (s *MediaService) ScheduleCloudinarySync(folder, trigger string) error {
	if !s.CloudinaryEnabled() {
		return ErrMediaBackendUnavailable
	}
	return s.queue.EnqueueMediaSyncCloudinary(queue.MediaSyncCloudinaryPayload{
		Folder:  folder,
		Trigger: trigger,
	}, 0)
}

// DeleteRemote 删除 Cloudinary 资源及其元数据
func (s *MediaService) DeleteRemote(ctx context.Context, publicIDs []string) ([]string, error) {
	publicIDs = uniqueTrimmed(publicIDs)
	if len(publicIDs) == 0 {
		return nil, ErrMediaIDsRequired
	}
	backend, err := s.backend(constants.MediaSourceCloudinary)
	if err != nil {
		return nil, err
	}
	deleted := make([]string, 0, len(publicIDs))
	for _, publicID := range publicIDs {
		if err := backend.Delete(ctx, publicID); err != nil && !errors.Is(err, media.ErrObjectNotFound) {
			s.forgetRemote(ctx, deleted)
			return deleted, translateMediaError(err)
		}
		deleted = append(deleted, publicID)
	}
	s.forgetRemote(ctx, deleted)
	return deleted, nil
}

func (s *MediaService) forgetRemote(ctx context.Context, publicIDs []string) {
	if len(publicIDs) == 0 {
		return
	}
	if _, err := s.repo.DeleteBySource(ctx, constants.MediaSourceCloudinary, publicIDs); err != nil {
		logger.Warnw("media_remote_metadata_delete_failed", "count", len(publicIDs), "error", err)
	}
}

// CreateMetadata 仅写入元数据（客户端直传 Cloudinary 后回写）
func (s *MediaService) CreateMetadata(ctx context.Context, input MediaMetadataInput) (*models.MediaItem, error) {
	item, err := metadataToItem(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetBySourcePublicID(ctx, item.Source, item.PublicID)
	if err != nil {
		return nil, wrapStoreError("media.get", err)
	}
	if existing != nil {
		return existing, nil
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, wrapStoreError("media.create", err)
	}
	return item, nil
}

// UpdateMetadata 覆盖元数据，不触碰存储侧
func (s *MediaService) UpdateMetadata(ctx context.Context, input MediaMetadataInput) (*models.MediaItem, error) {
	current, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	item, err := metadataToItem(input)
	if err != nil {
		return nil, err
	}
	item.ID = current.ID
	item.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, wrapStoreError("media.update", err)
	}
	return item, nil
}

// DeleteMetadata 只删除元数据记录
func (s *MediaService) DeleteMetadata(ctx context.Context, ids []string) ([]string, error) {
	ids = uniqueTrimmed(ids)
	if len(ids) == 0 {
		return nil, ErrMediaIDsRequired
	}
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		item, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return deleted, wrapStoreError("media.get", err)
		}
		if item == nil {
			continue
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return deleted, wrapStoreError("media.delete", err)
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// SignUpload 生成 Cloudinary 直传签名
func (s *MediaService) SignUpload(folder string) (*media.Signature, error) {
	if s.signer == nil {
		return nil, ErrMediaBackendUnavailable
	}
	return s.signer.Sign(folder)
}

func mediaItemFromStored(source string, stored *media.StoredObject) *models.MediaItem {
	item := &models.MediaItem{
		Source:   source,
		PublicID: stored.PublicID,
		URL:      stored.URL,
		Filename: stored.Filename,
		Format:   stored.Format,
		Bytes:    stored.Bytes,
		Width:    stored.Width,
		Height:   stored.Height,
		Folder:   stored.Folder,
		Tags:     models.StringArray{},
	}
	if !stored.CreatedAt.IsZero() {
		item.CreatedAt = stored.CreatedAt
	}
	return item
}

func metadataToItem(input MediaMetadataInput) (*models.MediaItem, error) {
	source := normalizeMediaSource(input.Source)
	if source == "" {
		return nil, ErrMediaSourceInvalid
	}
	publicID := strings.TrimSpace(input.PublicID)
	url := strings.TrimSpace(input.URL)
	if publicID == "" || url == "" || input.Bytes < 0 || input.Width < 0 || input.Height < 0 {
		return nil, ErrMediaUploadInvalid
	}
	return &models.MediaItem{
		ID:       strings.TrimSpace(input.ID),
		Source:   source,
		PublicID: publicID,
		URL:      url,
		Filename: strings.TrimSpace(input.Filename),
		Format:   strings.ToLower(strings.TrimSpace(input.Format)),
		Bytes:    input.Bytes,
		Width:    input.Width,
		Height:   input.Height,
		Folder:   strings.Trim(strings.TrimSpace(input.Folder), "/"),
		Alt:      strings.TrimSpace(input.Alt),
		Tags:     normalizeStringList(input.Tags),
	}, nil
}

// translateMediaError 后端错误转换为服务层错误
func translateMediaError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, media.ErrInvalidUpload):
		return fmt.Errorf("%w: %v", ErrMediaUploadInvalid, err)
	case errors.Is(err, media.ErrInvalidPublicID), errors.Is(err, media.ErrObjectNotFound):
		return ErrMediaNotFound
	case errors.Is(err, media.ErrBackendDisabled):
		return ErrMediaBackendUnavailable
	default:
		return err
	}
}

func normalizeMediaSource(source string) string {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case constants.MediaSourceLocal:
		return constants.MediaSourceLocal
	case constants.MediaSourceCloudinary:
		return constants.MediaSourceCloudinary
	default:
		return ""
	}
}

func uniqueTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
