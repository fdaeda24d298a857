package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidToken       = errors.New("invalid token")
)

// 订单错误
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderForbidden        = errors.New("order forbidden")
	ErrOrderStatusInvalid    = errors.New("order status transition invalid")
	ErrOrderConflict         = errors.New("order modified concurrently")
	ErrInvalidOrderItem      = errors.New("invalid order item")
	ErrCustomerInfoInvalid   = errors.New("customer info invalid")
	ErrPaymentMethodInvalid  = errors.New("payment method invalid")
	ErrPaymentMethodDisabled = errors.New("payment method disabled")
	ErrPaymentStatusInvalid  = errors.New("payment status invalid")
	ErrShippingFeeInvalid    = errors.New("shipping fee invalid")
)

// 购物车错误
var (
	ErrCartEmpty              = errors.New("cart is empty")
	ErrCartProductUnavailable = errors.New("product unavailable")
	ErrCartSizeInvalid        = errors.New("product size invalid")
	ErrCartSessionInvalid     = errors.New("cart session invalid")
)

// 菜单错误
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductSlugExists   = errors.New("product slug exists")
	ErrProductPriceInvalid = errors.New("product price invalid")
	ErrProductSizeInvalid  = errors.New("product size table invalid")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategorySlugExists  = errors.New("category slug exists")
	ErrCategoryInUse       = errors.New("category in use")
	ErrSlugInvalid         = errors.New("slug invalid")
	ErrNameRequired        = errors.New("name required")
)

// 媒体库错误
var (
	ErrMediaNotFound           = errors.New("media not found")
	ErrMediaSourceInvalid      = errors.New("media source invalid")
	ErrMediaBackendUnavailable = errors.New("media backend unavailable")
	ErrMediaUploadInvalid      = errors.New("media upload invalid")
	ErrMediaIDsRequired        = errors.New("media ids required")
)

// 账号错误
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserDisabled      = errors.New("user disabled")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrUserStatusInvalid = errors.New("user status invalid")
	ErrProfileEmpty      = errors.New("profile update empty")
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminExists       = errors.New("admin username exists")
	ErrAdminSelfDelete   = errors.New("cannot delete current admin")
	ErrAdminUsernameBad  = errors.New("admin username invalid")
	ErrAdminRoleInvalid  = errors.New("admin role invalid")
)

// 验证码与设置错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
	ErrShopConfigInvalid    = errors.New("shop config invalid")
)

// 邮件错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
