package media

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bnt-kitchen/internal/config"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Rules 上传校验规则
type Rules struct {
	MaxSize           int64
	AllowedTypes      []string
	AllowedExtensions []string
	MaxWidth          int
	MaxHeight         int
}

// RulesFromConfig 从上传配置构建校验规则
func RulesFromConfig(cfg config.UploadConfig) Rules {
	return Rules{
		MaxSize:           cfg.MaxSize,
		AllowedTypes:      cfg.AllowedTypes,
		AllowedExtensions: cfg.AllowedExtensions,
		MaxWidth:          cfg.MaxWidth,
		MaxHeight:         cfg.MaxHeight,
	}
}

// Inspection 校验通过后的文件信息
type Inspection struct {
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// Inspect 校验大小、扩展名、MIME 与图片尺寸，结束后读取位置回到开头
func (r Rules) Inspect(upload Upload) (*Inspection, error) {
	if upload.Reader == nil {
		return nil, fmt.Errorf("%w: 文件为空", ErrInvalidUpload)
	}
	if r.MaxSize > 0 && upload.Size > r.MaxSize {
		return nil, fmt.Errorf("%w: 文件大小超过限制（最大 %d MB）", ErrInvalidUpload, r.MaxSize/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if len(r.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, r.AllowedExtensions) {
			return nil, fmt.Errorf("%w: 文件扩展名不被允许: %s", ErrInvalidUpload, ext)
		}
	}

	// 读取文件头部识别 MIME 类型
	buffer := make([]byte, 512)
	n, err := io.ReadFull(upload.Reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	contentType := http.DetectContentType(buffer[:n])
	if len(r.AllowedTypes) > 0 {
		allowed := false
		for _, t := range r.AllowedTypes {
			if strings.EqualFold(contentType, t) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: 文件类型不被允许: %s", ErrInvalidUpload, contentType)
		}
	}

	result := &Inspection{Ext: ext, ContentType: contentType}
	if strings.HasPrefix(contentType, "image/") {
		width, height, err := decodeImageDimensions(upload.Reader, contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
		}
		if r.MaxWidth > 0 && width > r.MaxWidth {
			return nil, fmt.Errorf("%w: 图片宽度超过限制（最大 %d）", ErrInvalidUpload, r.MaxWidth)
		}
		if r.MaxHeight > 0 && height > r.MaxHeight {
			return nil, fmt.Errorf("%w: 图片高度超过限制（最大 %d）", ErrInvalidUpload, r.MaxHeight)
		}
		result.Width = width
		result.Height = height
	}

	if _, err := upload.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return result, nil
}

// NormalizeFolder 目录名只允许小写字母数字与 -_，非法时回退到默认目录
func NormalizeFolder(raw, fallback string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if folderPattern.MatchString(value) {
		return value
	}
	return fallback
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		width, height, err := decodeWebPDimensions(src)
		if err != nil {
			return 0, 0, fmt.Errorf("无法解析 WebP 图片: %w", err)
		}
		return width, height, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("无法解析图片: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("无效的 WebP 文件头")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		if chunkSize < 0 {
			return 0, 0, fmt.Errorf("无效的 WebP chunk")
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(src, data); err != nil {
			return 0, 0, err
		}

		switch chunkType {
		case "VP8X":
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("VP8X chunk 长度不足")
			}
			width := 1 + int(data[4]) + int(data[5])<<8 + int(data[6])<<16
			height := 1 + int(data[7]) + int(data[8])<<8 + int(data[9])<<16
			return width, height, nil
		case "VP8 ":
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("VP8 chunk 长度不足")
			}
			width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
			height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
			return width, height, nil
		case "VP8L":
			if len(data) < 5 {
				return 0, 0, fmt.Errorf("VP8L chunk 长度不足")
			}
			if data[0] != 0x2f {
				return 0, 0, fmt.Errorf("VP8L 签名无效")
			}
			bits := binary.LittleEndian.Uint32(data[1:5])
			width := int(bits&0x3FFF) + 1
			height := int((bits>>14)&0x3FFF) + 1
			return width, height, nil
		}

		if chunkSize%2 == 1 {
			if _, err := src.Seek(1, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
		}
	}
}
