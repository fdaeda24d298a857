package public

import (
	"strings"

	"github.com/bnt-kitchen/internal/cart"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

// respondCart 返回购物车，同时把会话标识写回响应头
func respondCart(c *gin.Context, view *service.CartView) {
	c.Header(constants.CartIDHeader, view.ID)
	response.Success(c, view)
}

// GetCart 获取购物车；未携带会话标识时分配新会话
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.CartService.Get(c.Request.Context(), cartIDFromRequest(c))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	respondCart(c, view)
}

// AddCartItem 加入菜品
func (h *Handler) AddCartItem(c *gin.Context) {
	var req service.CartLineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	view, err := h.CartService.AddItem(c.Request.Context(), cartIDFromRequest(c), req)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	respondCart(c, view)
}

// UpdateCartItem 修改菜品数量，数量 <= 0 时删除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	view, err := h.CartService.UpdateQuantity(c.Request.Context(), cartIDFromRequest(c), service.CartLineInput{
		ProductID: c.Param("product_id"),
		Quantity:  req.Quantity,
		Size:      req.Size,
	})
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	respondCart(c, view)
}

// DeleteCartItem 删除菜品行，规格通过 size 查询参数指定
func (h *Handler) DeleteCartItem(c *gin.Context) {
	view, err := h.CartService.RemoveItem(c.Request.Context(), cartIDFromRequest(c), c.Param("product_id"), strings.TrimSpace(c.Query("size")))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	respondCart(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	view, err := h.CartService.Clear(c.Request.Context(), cartIDFromRequest(c))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	respondCart(c, view)
}

func sumCartItems(items []cart.Item) models.Money {
	total := models.NewMoney(0)
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
