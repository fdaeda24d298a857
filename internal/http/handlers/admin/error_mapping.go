package admin

import (
	"errors"

	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/i18n"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	if storeErr, ok := service.AsStoreError(err); ok {
		code := response.CodeInternal
		switch storeErr.Code {
		case service.StoreErrPermissionDenied:
			code = response.CodeForbidden
		case service.StoreErrNotFound:
			code = response.CodeNotFound
		case service.StoreErrUnavailable, service.StoreErrResourceExhausted:
			code = response.CodeServiceUnavailable
		}
		msg := i18n.T(i18n.ResolveLocale(c), storeErr.I18nKey())
		if storeErr.Code == service.StoreErrUnknown && storeErr.Err != nil {
			msg = msg + ": " + storeErr.Err.Error()
		}
		respondErrorWithMsg(c, code, msg, err)
		return
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondAdminPasswordPolicyError 密码策略错误带参数翻译
func respondAdminPasswordPolicyError(c *gin.Context, err error) bool {
	var perr interface {
		Key() string
		Args() []interface{}
	}
	if !errors.As(err, &perr) {
		return false
	}
	msg := i18n.Sprintf(i18n.ResolveLocale(c), perr.Key(), perr.Args()...)
	respondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
	return true
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_config_invalid"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{target: service.ErrOrderConflict, code: response.CodeConflict, key: "error.order_conflict"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeBadRequest, key: "error.payment_status_invalid"},
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductSlugExists, code: response.CodeBadRequest, key: "error.slug_exists"},
	{target: service.ErrProductPriceInvalid, code: response.CodeBadRequest, key: "error.product_price_invalid"},
	{target: service.ErrProductSizeInvalid, code: response.CodeBadRequest, key: "error.product_size_table_invalid"},
	{target: service.ErrCategoryNotFound, code: response.CodeNotFound, key: "error.category_not_found"},
	{target: service.ErrCategorySlugExists, code: response.CodeBadRequest, key: "error.slug_exists"},
	{target: service.ErrCategoryInUse, code: response.CodeBadRequest, key: "error.category_in_use"},
	{target: service.ErrSlugInvalid, code: response.CodeBadRequest, key: "error.slug_invalid"},
	{target: service.ErrNameRequired, code: response.CodeBadRequest, key: "error.name_required"},
}

var adminAccountErrorRules = []mappedHandlerError{
	{target: service.ErrAdminNotFound, code: response.CodeNotFound, key: "error.admin_not_found"},
	{target: service.ErrAdminExists, code: response.CodeBadRequest, key: "error.admin_exists"},
	{target: service.ErrAdminSelfDelete, code: response.CodeBadRequest, key: "error.admin_delete_forbidden"},
	{target: service.ErrAdminUsernameBad, code: response.CodeBadRequest, key: "error.admin_username_invalid"},
	{target: service.ErrAdminRoleInvalid, code: response.CodeBadRequest, key: "error.admin_role_invalid"},
	{target: service.ErrInvalidPassword, code: response.CodeBadRequest, key: "error.password_old_invalid"},
}

var userErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrUserStatusInvalid, code: response.CodeBadRequest, key: "error.user_status_invalid"},
}
