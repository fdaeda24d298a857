package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"
)

// CaptchaSceneSetting 验证码场景开关，login 同时作用于顾客与员工登录
type CaptchaSceneSetting struct {
	Login            bool `json:"login"`
	Register         bool `json:"register"`
	GuestCreateOrder bool `json:"guest_create_order"`
}

// CaptchaImageSetting 图片验证码配置
type CaptchaImageSetting struct {
	Length        int `json:"length"`
	Width         int `json:"width"`
	Height        int `json:"height"`
	NoiseCount    int `json:"noise_count"`
	ShowLine      int `json:"show_line"`
	ExpireSeconds int `json:"expire_seconds"`
	MaxStore      int `json:"max_store"`
}

// CaptchaSetting 验证码配置实体
type CaptchaSetting struct {
	Provider string              `json:"provider"`
	Scenes   CaptchaSceneSetting `json:"scenes"`
	Image    CaptchaImageSetting `json:"image"`
}

// CaptchaDefaultSetting 根据静态配置生成默认验证码设置
func CaptchaDefaultSetting(cfg config.CaptchaConfig) CaptchaSetting {
	return NormalizeCaptchaSetting(CaptchaSetting{
		Provider: cfg.Provider,
		Scenes: CaptchaSceneSetting{
			Login:            cfg.Scenes.Login,
			Register:         cfg.Scenes.Register,
			GuestCreateOrder: cfg.Scenes.GuestCreateOrder,
		},
		Image: CaptchaImageSetting{
			Length:        cfg.Image.Length,
			Width:         cfg.Image.Width,
			Height:        cfg.Image.Height,
			NoiseCount:    cfg.Image.NoiseCount,
			ShowLine:      cfg.Image.ShowLine,
			ExpireSeconds: cfg.Image.ExpireSeconds,
			MaxStore:      cfg.Image.MaxStore,
		},
	})
}

// NormalizeCaptchaSetting 归一化验证码配置，越界值回到默认
func NormalizeCaptchaSetting(setting CaptchaSetting) CaptchaSetting {
	provider := strings.ToLower(strings.TrimSpace(setting.Provider))
	switch provider {
	case constants.CaptchaProviderImage, constants.CaptchaProviderNone:
		setting.Provider = provider
	default:
		setting.Provider = constants.CaptchaProviderNone
	}

	if setting.Image.Length < 4 || setting.Image.Length > 8 {
		setting.Image.Length = 5
	}
	if setting.Image.Width < 100 {
		setting.Image.Width = 240
	}
	if setting.Image.Height < 40 {
		setting.Image.Height = 80
	}
	if setting.Image.NoiseCount < 0 {
		setting.Image.NoiseCount = 2
	}
	if setting.Image.ShowLine < 0 {
		setting.Image.ShowLine = 2
	}
	if setting.Image.ExpireSeconds < 30 || setting.Image.ExpireSeconds > 3600 {
		setting.Image.ExpireSeconds = 300
	}
	if setting.Image.MaxStore < 100 {
		setting.Image.MaxStore = 10240
	}
	return setting
}

// ValidateCaptchaSetting 校验验证码配置
func ValidateCaptchaSetting(setting CaptchaSetting) error {
	provider := strings.ToLower(strings.TrimSpace(setting.Provider))
	if provider != constants.CaptchaProviderImage && provider != constants.CaptchaProviderNone {
		return fmt.Errorf("%w: provider", ErrCaptchaConfigInvalid)
	}
	if provider == constants.CaptchaProviderNone && setting.Scenes.anyEnabled() {
		return fmt.Errorf("%w: scenes enabled without provider", ErrCaptchaConfigInvalid)
	}
	if setting.Image.Length < 4 || setting.Image.Length > 8 {
		return fmt.Errorf("%w: image length", ErrCaptchaConfigInvalid)
	}
	if setting.Image.Width < 100 || setting.Image.Height < 40 {
		return fmt.Errorf("%w: image size", ErrCaptchaConfigInvalid)
	}
	if setting.Image.ExpireSeconds < 30 || setting.Image.ExpireSeconds > 3600 {
		return fmt.Errorf("%w: image expire", ErrCaptchaConfigInvalid)
	}
	return nil
}

// PublicCaptchaSetting 前台可见的验证码配置
func PublicCaptchaSetting(setting CaptchaSetting) models.JSON {
	return models.JSON{
		"provider": setting.Provider,
		"scenes": map[string]interface{}{
			constants.CaptchaSceneLogin:            setting.Scenes.Login,
			constants.CaptchaSceneRegister:         setting.Scenes.Register,
			constants.CaptchaSceneGuestCreateOrder: setting.Scenes.GuestCreateOrder,
		},
	}
}

func (s CaptchaSceneSetting) anyEnabled() bool {
	return s.Login || s.Register || s.GuestCreateOrder
}

// IsSceneEnabled 判断指定场景是否开启
func (s CaptchaSetting) IsSceneEnabled(scene string) bool {
	switch strings.ToLower(strings.TrimSpace(scene)) {
	case constants.CaptchaSceneLogin:
		return s.Scenes.Login
	case constants.CaptchaSceneRegister:
		return s.Scenes.Register
	case constants.CaptchaSceneGuestCreateOrder:
		return s.Scenes.GuestCreateOrder
	default:
		return false
	}
}

// GetCaptchaSetting 获取验证码设置（优先 settings，空时回退 config.yml）
func (s *SettingService) GetCaptchaSetting(ctx context.Context, defaultCfg config.CaptchaConfig) (CaptchaSetting, error) {
	fallback := CaptchaDefaultSetting(defaultCfg)
	value, err := s.GetByKey(ctx, constants.SettingKeyCaptchaConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return NormalizeCaptchaSetting(captchaSettingFromJSON(value, fallback)), nil
}

// SaveCaptchaSetting 保存验证码设置
func (s *SettingService) SaveCaptchaSetting(ctx context.Context, setting CaptchaSetting) (CaptchaSetting, error) {
	setting.Provider = strings.ToLower(strings.TrimSpace(setting.Provider))
	if err := ValidateCaptchaSetting(setting); err != nil {
		return CaptchaSetting{}, err
	}
	normalized := NormalizeCaptchaSetting(setting)
	raw, err := captchaSettingToMap(normalized)
	if err != nil {
		return CaptchaSetting{}, err
	}
	if _, err := s.Update(ctx, constants.SettingKeyCaptchaConfig, raw); err != nil {
		return CaptchaSetting{}, err
	}
	return normalized, nil
}

// captchaSettingFromJSON 存储值覆盖在默认值之上，缺失字段保持默认
func captchaSettingFromJSON(raw models.JSON, fallback CaptchaSetting) CaptchaSetting {
	next := fallback
	payload, err := json.Marshal(raw)
	if err != nil {
		return fallback
	}
	if err := json.Unmarshal(payload, &next); err != nil {
		return fallback
	}
	return next
}

func captchaSettingToMap(setting CaptchaSetting) (map[string]interface{}, error) {
	payload, err := json.Marshal(setting)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}
