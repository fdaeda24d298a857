package service

import (
	"strings"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"
)

const (
	settingTextMaxRuneSize      = 500
	settingAnnouncementMaxItems = 5
)

// normalizeSettingValueByKey 按设置键执行归一化，避免非法值入库。
func normalizeSettingValueByKey(key string, value map[string]interface{}) (models.JSON, error) {
	switch key {
	case constants.SettingKeyShopConfig:
		return normalizeShopSetting(value)
	case constants.SettingKeySiteConfig:
		return normalizeSiteSetting(value), nil
	default:
		return models.JSON(value), nil
	}
}

// normalizeSiteSetting 归一化站点配置结构。
func normalizeSiteSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, len(value)+6)
	for key, raw := range value {
		normalized[key] = raw
	}

	normalized["brand"] = normalizeSiteBrand(value["brand"])
	normalized["contact"] = normalizeSiteContact(value["contact"])
	normalized["seo"] = normalizeSiteLocalizedBlock(value["seo"], []string{"title", "description"})
	normalized["hero"] = normalizeSiteLocalizedBlock(value["hero"], []string{"title", "subtitle"})
	normalized["announcements"] = normalizeSiteLocalizedList(value["announcements"], settingAnnouncementMaxItems)
	normalized["languages"] = normalizeSiteLanguages(value["languages"])
	return normalized
}

func normalizeSiteBrand(raw interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"site_name": "",
		"logo":      "",
	}
	brandMap, ok := raw.(map[string]interface{})
	if !ok {
		return result
	}
	result["site_name"] = normalizeSettingText(brandMap["site_name"])
	result["logo"] = normalizeSettingText(brandMap["logo"])
	return result
}

func normalizeSiteContact(raw interface{}) map[string]interface{} {
	fields := []string{"phone", "email", "address", "zalo", "facebook", "opening_hours"}
	result := make(map[string]interface{}, len(fields))
	contactMap, _ := raw.(map[string]interface{})
	for _, field := range fields {
		result[field] = normalizeSettingTextWithRuneLimit(contactMap[field], settingTextMaxRuneSize)
	}
	return result
}

func normalizeSiteLocalizedBlock(raw interface{}, fields []string) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	blockMap, _ := raw.(map[string]interface{})
	for _, field := range fields {
		result[field] = normalizeSiteLocalizedField(blockMap[field])
	}
	return result
}

func normalizeSiteLocalizedField(raw interface{}) map[string]interface{} {
	fieldResult := make(map[string]interface{}, len(constants.SupportedLocales))
	fieldRaw, _ := raw.(map[string]interface{})
	for _, language := range constants.SupportedLocales {
		fieldResult[language] = normalizeSettingTextWithRuneLimit(fieldRaw[language], settingTextMaxRuneSize)
	}
	return fieldResult
}

func normalizeSiteLocalizedList(raw interface{}, maxItems int) []interface{} {
	listRaw, ok := raw.([]interface{})
	if !ok {
		return make([]interface{}, 0)
	}

	result := make([]interface{}, 0, len(listRaw))
	for _, item := range listRaw {
		normalized := normalizeSiteLocalizedField(item)
		hasText := false
		for _, language := range constants.SupportedLocales {
			if text, _ := normalized[language].(string); text != "" {
				hasText = true
				break
			}
		}
		if !hasText {
			continue
		}
		result = append(result, normalized)
		if maxItems > 0 && len(result) >= maxItems {
			break
		}
	}
	return result
}

func normalizeSiteLanguages(raw interface{}) []string {
	list := make([]string, 0)
	switch value := raw.(type) {
	case []string:
		list = append(list, value...)
	case []interface{}:
		for _, item := range value {
			list = append(list, normalizeSettingText(item))
		}
	}

	supported := make(map[string]struct{}, len(constants.SupportedLocales))
	for _, locale := range constants.SupportedLocales {
		supported[locale] = struct{}{}
	}
	result := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		lang := strings.TrimSpace(item)
		if _, ok := supported[lang]; !ok {
			continue
		}
		if _, exists := seen[lang]; exists {
			continue
		}
		seen[lang] = struct{}{}
		result = append(result, lang)
	}
	if len(result) == 0 {
		return append([]string(nil), constants.SupportedLocales...)
	}
	return result
}

func normalizeSettingText(raw interface{}) string {
	text, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func normalizeSettingTextWithRuneLimit(raw interface{}, maxRuneCount int) string {
	text := normalizeSettingText(raw)
	if text == "" || maxRuneCount <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRuneCount {
		return text
	}
	return string(runes[:maxRuneCount])
}
