package media

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound 存储侧不存在该资源
	ErrObjectNotFound = errors.New("media object not found")
	// ErrInvalidUpload 上传文件未通过校验
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrInvalidPublicID 资源标识非法
	ErrInvalidPublicID = errors.New("invalid public id")
	// ErrBackendDisabled 后端未启用或未配置
	ErrBackendDisabled = errors.New("media backend disabled")
)

// Upload 待存储的文件
type Upload struct {
	Filename string
	Size     int64
	Reader   io.ReadSeeker
	Folder   string
}

// StoredObject 存储侧返回的资源信息
type StoredObject struct {
	PublicID  string
	URL       string
	Filename  string
	Format    string
	Bytes     int64
	Width     int
	Height    int
	Folder    string
	CreatedAt time.Time
}

// ListOptions 列表参数
type ListOptions struct {
	Folder     string
	MaxResults int
}

// Backend 媒体存储后端
type Backend interface {
	Store(ctx context.Context, upload Upload) (*StoredObject, error)
	Delete(ctx context.Context, publicID string) error
	List(ctx context.Context, opts ListOptions) ([]StoredObject, error)
}
