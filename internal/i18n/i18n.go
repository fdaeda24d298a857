package i18n

import (
	"fmt"
	"strings"

	"github.com/bnt-kitchen/internal/constants"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleVI = constants.LocaleViVN
	LocaleEN = constants.LocaleEnUS

	// DefaultLocale 未识别语言时使用越南语
	DefaultLocale = LocaleVI
)

const (
	localeQueryKey  = "lang"
	localeHeaderKey = "X-Locale"
)

var catalogs = map[string]map[string]string{
	LocaleVI: messagesVI,
	LocaleEN: messagesEN,
}

var matcher = language.NewMatcher([]language.Tag{
	language.MustParse(LocaleVI),
	language.MustParse(LocaleEN),
})

// T 翻译指定键，缺失时依次回退默认语言与键本身
func T(locale, key string) string {
	if msg, ok := lookup(NormalizeLocale(locale), key); ok {
		return msg
	}
	if msg, ok := lookup(DefaultLocale, key); ok {
		return msg
	}
	return key
}

// Sprintf 翻译后按参数格式化
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// ResolveLocale 解析请求语言：查询参数 > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if raw := strings.TrimSpace(c.Query(localeQueryKey)); raw != "" {
		return NormalizeLocale(raw)
	}
	if raw := strings.TrimSpace(c.GetHeader(localeHeaderKey)); raw != "" {
		return NormalizeLocale(raw)
	}
	if raw := strings.TrimSpace(c.GetHeader("Accept-Language")); raw != "" {
		return matchAcceptLanguage(raw)
	}
	return DefaultLocale
}

// NormalizeLocale 将任意语言标记归一到支持的语言
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	if _, ok := catalogs[raw]; ok {
		return raw
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return LocaleEN
	case "vi":
		return LocaleVI
	default:
		return DefaultLocale
	}
}

func matchAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	if index == 1 {
		return LocaleEN
	}
	return LocaleVI
}

func lookup(locale, key string) (string, bool) {
	catalog, ok := catalogs[locale]
	if !ok {
		return "", false
	}
	msg, ok := catalog[key]
	return msg, ok && msg != ""
}
