package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalBackend 本地文件系统存储，publicID 为相对上传根目录的路径
type LocalBackend struct {
	dir           string
	publicPrefix  string
	defaultFolder string
	rules         Rules
	now           func() time.Time
}

// NewLocalBackend 创建本地存储
func NewLocalBackend(dir, publicPrefix, defaultFolder string, rules Rules) *LocalBackend {
	if strings.TrimSpace(dir) == "" {
		dir = "./uploads"
	}
	publicPrefix = "/" + strings.Trim(strings.TrimSpace(publicPrefix), "/")
	if publicPrefix == "/" {
		publicPrefix = "/uploads"
	}
	if defaultFolder == "" {
		defaultFolder = "common"
	}
	return &LocalBackend{
		dir:           dir,
		publicPrefix:  publicPrefix,
		defaultFolder: defaultFolder,
		rules:         rules,
		now:           time.Now,
	}
}

// Store 校验并保存到 <dir>/<folder>/<yyyy>/<mm>/<uuid><ext>
func (b *LocalBackend) Store(ctx context.Context, upload Upload) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := b.rules.Inspect(upload)
	if err != nil {
		return nil, err
	}

	folder := NormalizeFolder(upload.Folder, b.defaultFolder)
	now := b.now()
	filename := uuid.New().String() + info.Ext
	publicID := path.Join(folder, now.Format("2006"), now.Format("01"), filename)
	savePath := filepath.Join(b.dir, filepath.FromSlash(publicID))

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return nil, err
	}
	dst, err := os.Create(savePath)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(dst, upload.Reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(savePath)
		return nil, err
	}

	return &StoredObject{
		PublicID:  publicID,
		URL:       b.publicURL(publicID),
		Filename:  filepath.Base(upload.Filename),
		Format:    strings.TrimPrefix(info.Ext, "."),
		Bytes:     written,
		Width:     info.Width,
		Height:    info.Height,
		Folder:    folder,
		CreatedAt: now,
	}, nil
}

// Delete 删除文件，文件不存在返回 ErrObjectNotFound
func (b *LocalBackend) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

// List 遍历上传目录，按修改时间倒序
func (b *LocalBackend) List(ctx context.Context, opts ListOptions) ([]StoredObject, error) {
	root := b.dir
	if opts.Folder != "" {
		folder := NormalizeFolder(opts.Folder, "")
		if folder == "" {
			return nil, ErrInvalidPublicID
		}
		root = filepath.Join(b.dir, folder)
	}

	objects := make([]StoredObject, 0)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(b.dir, p)
		if err != nil {
			return err
		}
		publicID := filepath.ToSlash(rel)
		object := StoredObject{
			PublicID:  publicID,
			URL:       b.publicURL(publicID),
			Filename:  d.Name(),
			Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Name())), "."),
			Bytes:     info.Size(),
			Folder:    strings.SplitN(publicID, "/", 2)[0],
			CreatedAt: info.ModTime(),
		}
		object.Width, object.Height = readDimensions(p)
		objects = append(objects, object)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].CreatedAt.After(objects[j].CreatedAt)
	})
	if opts.MaxResults > 0 && len(objects) > opts.MaxResults {
		objects = objects[:opts.MaxResults]
	}
	return objects, nil
}

// Path 返回 publicID 对应的本地路径
func (b *LocalBackend) Path(publicID string) (string, error) {
	return b.resolve(publicID)
}

func (b *LocalBackend) publicURL(publicID string) string {
	return b.publicPrefix + "/" + publicID
}

func (b *LocalBackend) resolve(publicID string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(publicID))
	if cleaned == "/" || cleaned != "/"+strings.TrimSpace(publicID) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPublicID, publicID)
	}
	return filepath.Join(b.dir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

func readDimensions(p string) (int, int) {
	file, err := os.Open(p)
	if err != nil {
		return 0, 0
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
