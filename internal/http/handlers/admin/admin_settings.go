package admin

import (
	"strings"

	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

const publicConfigCacheKey = "public:config"

var editableSettingKeys = map[string]struct{}{
	constants.SettingKeySiteConfig:    {},
	constants.SettingKeyShopConfig:    {},
	constants.SettingKeyCaptchaConfig: {},
}

var settingErrorRules = []mappedHandlerError{
	{target: service.ErrShopConfigInvalid, code: response.CodeBadRequest, key: "error.shop_config_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeBadRequest, key: "error.captcha_config_invalid"},
}

// settingKeyParam 读取并校验设置键，失败时已写出响应
func settingKeyParam(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.Param("key"))
	if _, ok := editableSettingKeys[key]; !ok {
		respondError(c, response.CodeBadRequest, "error.setting_key_invalid", nil)
		return "", false
	}
	return key, true
}

// GetSetting 获取设置；店铺与验证码设置返回合并默认值后的结果
func (h *Handler) GetSetting(c *gin.Context) {
	key, ok := settingKeyParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		value interface{}
		err   error
	)
	switch key {
	case constants.SettingKeyCaptchaConfig:
		value, err = h.SettingService.GetCaptchaSetting(ctx, h.Config.Captcha)
	case constants.SettingKeyShopConfig:
		value, err = h.SettingService.GetShopSetting(ctx)
	default:
		value, err = h.SettingService.GetByKey(ctx, key)
	}
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.settings_fetch_failed")
		return
	}
	response.Success(c, value)
}

// UpdateSetting 保存设置并清理前台配置缓存
func (h *Handler) UpdateSetting(c *gin.Context) {
	key, ok := settingKeyParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		saved interface{}
		err   error
	)
	if key == constants.SettingKeyCaptchaConfig {
		var req service.CaptchaSetting
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", bindErr)
			return
		}
		saved, err = h.SettingService.SaveCaptchaSetting(ctx, req)
		if err == nil && h.CaptchaService != nil {
			h.CaptchaService.InvalidateCache()
		}
	} else {
		var req map[string]interface{}
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", bindErr)
			return
		}
		saved, err = h.SettingService.Update(ctx, key, req)
	}
	if err != nil {
		respondWithMappedError(c, err, settingErrorRules, response.CodeInternal, "error.settings_save_failed")
		return
	}

	_ = cache.Del(ctx, publicConfigCacheKey)
	requestLog(c).Infow("admin_setting_updated", "key", key, "operator", currentUsername(c))
	response.Success(c, saved)
}
