package admin

import (
	"strconv"
	"strings"

	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdateUserStatusRequest 顾客账号状态请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetAdminUsers 获取顾客列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
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

	users, total, err := h.UserAuthService.ListUsers(c.Request.Context(), repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.user_fetch_failed")
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// GetAdminUser 获取顾客详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	user, err := h.UserAuthService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, userErrorRules, response.CodeInternal, "error.user_fetch_failed")
		return
	}
	response.Success(c, user)
}

// UpdateAdminUserStatus 启用/停用顾客账号，停用后已签发的 token 失效
func (h *Handler) UpdateAdminUserStatus(c *gin.Context) {
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.SetUserStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondWithMappedError(c, err, userErrorRules, response.CodeInternal, "error.user_update_failed")
		return
	}
	requestLog(c).Infow("admin_user_status_updated",
		"user_id", user.ID,
		"status", user.Status,
		"operator", currentUsername(c),
	)
	response.Success(c, user)
}
