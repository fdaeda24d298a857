package public

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
	if respondStoreError(c, err) {
		return
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondStoreError 存储层错误按分类返回翻译后的固定消息
func respondStoreError(c *gin.Context, err error) bool {
	storeErr, ok := service.AsStoreError(err)
	if !ok {
		return false
	}
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
	return true
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_config_invalid"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartSessionInvalid, code: response.CodeBadRequest, key: "error.cart_session_invalid"},
	{target: service.ErrCartProductUnavailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrCartSizeInvalid, code: response.CodeBadRequest, key: "error.product_size_invalid"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
}

var orderCreateErrorRules = concatMappedHandlerErrors(cartErrorRules, []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrCustomerInfoInvalid, code: response.CodeBadRequest, key: "error.customer_info_invalid"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
	{target: service.ErrPaymentMethodDisabled, code: response.CodeBadRequest, key: "error.payment_method_disabled"},
	{target: service.ErrShippingFeeInvalid, code: response.CodeBadRequest, key: "error.shipping_fee_invalid"},
})

var orderReadErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderForbidden, code: response.CodeForbidden, key: "error.order_forbidden"},
}

var userAuthErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, key: "error.email_exists"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, key: "error.login_invalid"},
	{target: service.ErrInvalidPassword, code: response.CodeBadRequest, key: "error.password_old_invalid"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, key: "error.user_disabled"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrCustomerInfoInvalid, code: response.CodeBadRequest, key: "error.phone_invalid"},
	{target: service.ErrProfileEmpty, code: response.CodeBadRequest, key: "error.profile_empty"},
}

// respondPasswordPolicyError 密码策略错误带参数翻译
func respondPasswordPolicyError(c *gin.Context, err error) bool {
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
