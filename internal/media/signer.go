package media

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/config"

	"github.com/cloudinary/cloudinary-go/v2/api"
)

// Signature 浏览器直传 Cloudinary 所需的签名参数
type Signature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// Signer 使用共享密钥生成上传签名
type Signer struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	now       func() time.Time
}

// NewSigner 创建签名器，未启用或缺少凭据时返回 ErrBackendDisabled
func NewSigner(cfg config.CloudinaryConfig) (*Signer, error) {
	if !cfg.Enabled || cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrBackendDisabled
	}
	return &Signer{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    strings.Trim(strings.TrimSpace(cfg.Folder), "/"),
		now:       time.Now,
	}, nil
}

// Sign 为指定子目录签名，子目录为空时使用默认目录
func (s *Signer) Sign(folder string) (*Signature, error) {
	target := s.folder
	sub := NormalizeFolder(folder, "")
	if sub != "" {
		if target != "" {
			target += "/" + sub
		} else {
			target = sub
		}
	}
	timestamp := s.now().Unix()

	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	if target != "" {
		params.Set("folder", target)
	}
	signature, err := api.SignParameters(params, s.apiSecret)
	if err != nil {
		return nil, err
	}
	return &Signature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    s.apiKey,
		CloudName: s.cloudName,
		Folder:    target,
	}, nil
}
