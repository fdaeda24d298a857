package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderListItem 后台订单列表项，附带状态徽标
type AdminOrderListItem struct {
	models.Order
	Badge service.StatusBadge `json:"badge"`
}

// AdminUpdateOrderStatusRequest 订单状态流转请求
type AdminUpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// AdminUpdatePaymentRequest 支付状态更新请求
type AdminUpdatePaymentRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

// AdminListOrders 后台订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	orders, total, err := h.OrderService.ListOrdersForAdmin(c.Request.Context(), service.AdminOrderFilter{
		Status:      strings.TrimSpace(c.Query("status")),
		UserID:      strings.TrimSpace(c.Query("user_id")),
		Search:      strings.TrimSpace(c.Query("search")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.order_fetch_failed")
		return
	}

	items := make([]AdminOrderListItem, 0, len(orders))
	for _, order := range orders {
		items = append(items, AdminOrderListItem{Order: order, Badge: service.OrderStatusBadge(order.Status)})
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 后台订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.OrderService.GetOrderForAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, AdminOrderListItem{Order: *order, Badge: service.OrderStatusBadge(order.Status)})
}

// AdminUpdateOrderStatus 订单状态流转
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	var req AdminUpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_status_updated",
		"order_id", order.ID,
		"status", order.Status,
		"operator", currentUsername(c),
	)
	response.Success(c, AdminOrderListItem{Order: *order, Badge: service.OrderStatusBadge(order.Status)})
}

// AdminUpdatePaymentStatus 更新支付状态（到账确认、退款）
func (h *Handler) AdminUpdatePaymentStatus(c *gin.Context) {
	var req AdminUpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.Status, req.TransactionID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminOrderCounts 各状态订单数量，供后台看板使用
func (h *Handler) AdminOrderCounts(c *gin.Context) {
	counts, err := h.OrderService.CountOrdersByStatus(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	statuses := []string{
		constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipping,
		constants.OrderStatusCompleted,
		constants.OrderStatusCancelled,
	}
	result := make([]gin.H, 0, len(statuses))
	for _, status := range statuses {
		result = append(result, gin.H{
			"badge": service.OrderStatusBadge(status),
			"count": counts[status],
		})
	}
	response.Success(c, result)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
