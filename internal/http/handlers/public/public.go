package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetConfig 获取全局配置（站点信息 + 运费 + 支付方式 + 验证码）
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	defaults := map[string]interface{}{
		"languages": constants.SupportedLocales,
		"currency":  constants.SiteCurrencyDefault,
		"brand": map[string]interface{}{
			"site_name": "BNT",
			"logo":      "",
		},
	}
	data, err := h.SettingService.GetConfig(c.Request.Context(), defaults)
	if err != nil {
		// 站点配置读取失败时仍返回默认值，保证前台可用
		requestLog(c).Warnw("public_config_fallback", "error", err)
		data = defaults
	}

	shop, shopErr := h.SettingService.GetShopSetting(c.Request.Context())
	if shopErr != nil {
		requestLog(c).Warnw("public_shop_config_fallback", "error", shopErr)
	}
	data["shipping"] = map[string]interface{}{
		"fee":                     shop.ShippingFee,
		"free_shipping_threshold": shop.FreeShippingThreshold,
	}
	data["payment_methods"] = shop.PaymentOptions()
	data["bank_transfer"] = shop.BankTransfer

	if h.CaptchaService != nil {
		publicCaptcha, captchaErr := h.CaptchaService.GetPublicSetting(c.Request.Context())
		if captchaErr != nil {
			respondError(c, response.CodeInternal, "error.config_fetch_failed", captchaErr)
			return
		}
		data["captcha"] = publicCaptcha
	}

	if err == nil && shopErr == nil {
		_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	}
	response.Success(c, data)
}

// GetMenu 获取前台菜单
func (h *Handler) GetMenu(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := service.PublicMenuFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.CategoryID = uint(id)
	}
	if raw := strings.TrimSpace(c.Query("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.Featured = featured
	}

	menu, err := h.ProductService.ListPublic(c.Request.Context(), filter)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	if menu.Fallback {
		c.Header("X-Menu-Fallback", "1")
	}
	response.SuccessWithPage(c, menu.Products, response.BuildPagination(page, pageSize, menu.Total))
}

// GetProductBySlug 根据 slug 获取菜品详情
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
		}, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// GetCategories 获取前台分类
func (h *Handler) GetCategories(c *gin.Context) {
	categories, fallback, err := h.CategoryService.ListPublic(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.category_fetch_failed")
		return
	}
	if fallback {
		c.Header("X-Menu-Fallback", "1")
	}
	response.Success(c, categories)
}

// QuoteShippingRequest 运费试算请求
type QuoteShippingRequest struct {
	Items []service.CartLineInput `json:"items"`
}

// QuoteShipping 按目录价重新计价并试算运费，前台本地购物车结算前调用
func (h *Handler) QuoteShipping(c *gin.Context) {
	var req QuoteShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	items, err := h.CartService.PriceItems(c.Request.Context(), req.Items)
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	subtotal := sumCartItems(items)
	fee, total := h.OrderService.QuoteShipping(c.Request.Context(), subtotal)
	response.Success(c, gin.H{
		"items":        items,
		"subtotal":     subtotal,
		"shipping_fee": fee,
		"total":        total,
	})
}
