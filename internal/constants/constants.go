package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipping   = "shipping"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// 支付方式常量
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMomo         = "momo"
	PaymentMethodZaloPay      = "zalopay"
)

// 支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// 媒体存储来源常量
const (
	MediaSourceLocal      = "local"
	MediaSourceCloudinary = "cloudinary"
)

// 菜品规格常量
const (
	ProductSizeSmall  = "S"
	ProductSizeMedium = "M"
	ProductSizeLarge  = "L"
)

// 购物车本地存储键
const (
	CartItemsStorageKey = "bnt_cart_items"
	CartIDStorageKey    = "bnt_cart_id"
	CartIDHeader        = "X-Cart-ID"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码场景常量
const (
	CaptchaSceneLogin            = "login"
	CaptchaSceneRegister         = "register"
	CaptchaSceneGuestCreateOrder = "guest_create_order"
)

// 队列常量
const (
	QueueDefault            = "default"
	TaskOrderStatusNotify   = "order:status_notify"
	TaskMediaSyncCloudinary = "media:sync_cloudinary"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "bnt"
)

// 设置键常量
const (
	SettingKeySiteConfig              = "site_config"
	SettingKeyShopConfig              = "shop_config"
	SettingKeyCaptchaConfig           = "captcha_config"
	SettingFieldShippingFee           = "shipping_fee"
	SettingFieldFreeShippingThreshold = "free_shipping_threshold"
	SettingFieldPaymentMethods        = "payment_methods"
)

// 币种常量
const (
	SiteCurrencyDefault = "VND"
)

// 站点语言常量
const (
	LocaleViVN = "vi-VN"
	LocaleEnUS = "en-US"
)

// SupportedLocales 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleViVN, LocaleEnUS}
