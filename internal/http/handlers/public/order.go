package public

import (
	"strconv"
	"strings"

	"github.com/bnt-kitchen/internal/cart"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 下单请求；Items 为空时使用 X-Cart-ID 对应的购物车
type CreateOrderRequest struct {
	Items          []service.CartLineInput `json:"items"`
	Customer       models.CustomerInfo     `json:"customer_info"`
	PaymentMethod  string                  `json:"payment_method"`
	ShippingFee    *models.Money           `json:"shipping_fee"`
	CaptchaPayload CaptchaPayloadRequest   `json:"captcha_payload"`
}

// CreateOrder 结账：校验购物车快照并创建待处理订单，成功后清空会话购物车
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	userID := optionalUserID(c)
	if userID == "" {
		if !h.verifyCaptcha(c, constants.CaptchaSceneGuestCreateOrder, req.CaptchaPayload) {
			return
		}
	}

	input := service.CreateOrderInput{
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		ShippingFee:   req.ShippingFee,
		ClientIP:      c.ClientIP(),
	}
	if userID != "" {
		input.UserID = &userID
	}

	order, err := h.placeOrder(c, cartIDFromRequest(c), req.Items, input)
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}

// placeOrder 请求携带菜品时按当前菜单重新定价后下单；
// 否则在会话锁内读取会话购物车下单并清空
func (h *Handler) placeOrder(c *gin.Context, cartID string, items []service.CartLineInput, input service.CreateOrderInput) (*models.Order, error) {
	ctx := c.Request.Context()
	if len(items) > 0 {
		lines, err := h.CartService.PriceItems(ctx, items)
		if err != nil {
			return nil, err
		}
		input.Items = lines
		return h.OrderService.CreateOrder(ctx, input)
	}

	var order *models.Order
	err := h.CartService.Checkout(ctx, cartID, func(lines []cart.Item) error {
		input.Items = lines
		created, err := h.OrderService.CreateOrder(ctx, input)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListMyOrders 当前顾客的订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	orders, total, err := h.OrderService.ListOrdersByUser(c.Request.Context(), userID, status, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 查看订单；游客订单凭订单ID访问，会员订单仅本人可见
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.OrderService.GetOrder(c.Request.Context(), c.Param("id"), optionalUserID(c))
	if err != nil {
		respondWithMappedError(c, err, orderReadErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"order": order,
		"badge": service.OrderStatusBadge(order.Status),
	})
}

// GetOrderStatusBadges 全部订单状态徽标，供前端渲染
func (h *Handler) GetOrderStatusBadges(c *gin.Context) {
	statuses := []string{
		constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipping,
		constants.OrderStatusCompleted,
		constants.OrderStatusCancelled,
	}
	badges := make([]service.StatusBadge, 0, len(statuses))
	for _, status := range statuses {
		badges = append(badges, service.OrderStatusBadge(status))
	}
	response.Success(c, badges)
}
