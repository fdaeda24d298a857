package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bnt-kitchen/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryClient SDK 中本包用到的调用
type cloudinaryClient interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
	Assets(ctx context.Context, params admin.AssetsParams) (*admin.AssetsResult, error)
}

type sdkClient struct {
	cld *cloudinary.Cloudinary
}

func (c sdkClient) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	return c.cld.Upload.Upload(ctx, file, params)
}

func (c sdkClient) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	return c.cld.Upload.Destroy(ctx, params)
}

func (c sdkClient) Assets(ctx context.Context, params admin.AssetsParams) (*admin.AssetsResult, error) {
	return c.cld.Admin.Assets(ctx, params)
}

// CloudinaryBackend Cloudinary 图片托管
type CloudinaryBackend struct {
	client        cloudinaryClient
	defaultFolder string
	maxResults    int
	rules         Rules
}

// NewCloudinaryBackend 根据配置创建，未启用或缺少凭据时返回 ErrBackendDisabled
func NewCloudinaryBackend(cfg config.CloudinaryConfig, rules Rules) (*CloudinaryBackend, error) {
	if !cfg.Enabled || cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrBackendDisabled
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return newCloudinaryBackend(sdkClient{cld: cld}, cfg.Folder, cfg.SyncMaxResults, rules), nil
}

func newCloudinaryBackend(client cloudinaryClient, folder string, maxResults int, rules Rules) *CloudinaryBackend {
	if maxResults <= 0 {
		maxResults = 500
	}
	return &CloudinaryBackend{
		client:        client,
		defaultFolder: strings.Trim(strings.TrimSpace(folder), "/"),
		maxResults:    maxResults,
		rules:         rules,
	}
}

// Store 上传到 <folder>/<子目录>，文件名由 Cloudinary 生成
func (b *CloudinaryBackend) Store(ctx context.Context, upload Upload) (*StoredObject, error) {
	if _, err := b.rules.Inspect(upload); err != nil {
		return nil, err
	}
	folder := b.folder(upload.Folder)
	result, err := b.client.Upload(ctx, upload.Reader, uploader.UploadParams{
		Folder:         folder,
		UniqueFilename: api.Bool(true),
		UseFilename:    api.Bool(false),
		ResourceType:   "image",
	})
	if err != nil {
		return nil, err
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return &StoredObject{
		PublicID:  result.PublicID,
		URL:       result.SecureURL,
		Filename:  path.Base(upload.Filename),
		Format:    result.Format,
		Bytes:     int64(result.Bytes),
		Width:     result.Width,
		Height:    result.Height,
		Folder:    folder,
		CreatedAt: result.CreatedAt,
	}, nil
}

// Delete 删除资源并刷新 CDN 缓存
func (b *CloudinaryBackend) Delete(ctx context.Context, publicID string) error {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return ErrInvalidPublicID
	}
	result, err := b.client.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", result.Error.Message)
	}
	switch result.Result {
	case "ok":
		return nil
	case "not found":
		return ErrObjectNotFound
	default:
		return fmt.Errorf("cloudinary destroy: unexpected result %q", result.Result)
	}
}

// List 分页拉取目录下的图片，最多 MaxResults 条
func (b *CloudinaryBackend) List(ctx context.Context, opts ListOptions) ([]StoredObject, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = b.maxResults
	}
	prefix := b.folder(opts.Folder)
	if prefix != "" {
		prefix += "/"
	}

	objects := make([]StoredObject, 0)
	cursor := ""
	for len(objects) < limit {
		pageSize := limit - len(objects)
		if pageSize > 500 {
			pageSize = 500
		}
		result, err := b.client.Assets(ctx, admin.AssetsParams{
			AssetType:    api.Image,
			DeliveryType: string(api.Upload),
			Prefix:       prefix,
			MaxResults:   pageSize,
			NextCursor:   cursor,
		})
		if err != nil {
			return nil, err
		}
		if result.Error.Message != "" {
			return nil, fmt.Errorf("cloudinary assets: %s", result.Error.Message)
		}
		for _, asset := range result.Assets {
			objects = append(objects, StoredObject{
				PublicID:  asset.PublicID,
				URL:       asset.SecureURL,
				Filename:  path.Base(asset.PublicID),
				Format:    asset.Format,
				Bytes:     int64(asset.Bytes),
				Width:     asset.Width,
				Height:    asset.Height,
				Folder:    path.Dir(asset.PublicID),
				CreatedAt: asset.CreatedAt,
			})
		}
		if result.NextCursor == "" || len(result.Assets) == 0 {
			break
		}
		cursor = result.NextCursor
	}
	return objects, nil
}

func (b *CloudinaryBackend) folder(sub string) string {
	sub = strings.Trim(strings.TrimSpace(sub), "/")
	if sub != "" {
		sub = NormalizeFolder(sub, "")
		if sub == "" {
			sub = "common"
		}
	}
	switch {
	case b.defaultFolder == "":
		return sub
	case sub == "":
		return b.defaultFolder
	default:
		return b.defaultFolder + "/" + sub
	}
}

// IsDisabled 是否为未启用错误
func IsDisabled(err error) bool {
	return errors.Is(err, ErrBackendDisabled)
}
