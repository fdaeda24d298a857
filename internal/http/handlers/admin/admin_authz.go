package admin

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnt-kitchen/internal/authz"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzCreateAdminPayload struct {
	Username    string   `json:"username" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	DisplayName string   `json:"display_name"`
	IsSuper     bool     `json:"is_super"`
	Roles       []string `json:"roles"`
}

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前员工权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}

	response.Success(c, gin.H{
		"admin_id": adminID,
		"username": currentUsername(c),
		"is_super": currentAdminIsSuper(c),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	h.changeRolePolicy(c, service.AuthzAuditActionRolePolicyGrant)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	h.changeRolePolicy(c, service.AuthzAuditActionRolePolicyDrop)
}

func (h *Handler) changeRolePolicy(c *gin.Context, action string) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var err error
	if action == service.AuthzAuditActionRolePolicyGrant {
		err = h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action)
	} else {
		err = h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action)
	}
	if errors.Is(err, authz.ErrRoleImmutable) {
		respondError(c, response.CodeForbidden, "error.authz_builtin_policy_locked", err)
		return
	}
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: action,
		Role:   req.Role,
		Object: req.Object,
		Method: req.Action,
		Detail: models.JSON{
			"role":   req.Role,
			"object": req.Object,
			"method": strings.ToUpper(strings.TrimSpace(req.Action)),
		},
	})
	response.Success(c, nil)
}

// ListAuthzAdmins 员工账号列表
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	admins, err := h.AdminService.List(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.config_fetch_failed")
		return
	}
	response.Success(c, admins)
}

// CreateAuthzAdmin 创建员工账号
func (h *Handler) CreateAuthzAdmin(c *gin.Context) {
	var req authzCreateAdminPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	admin, err := h.AdminService.Create(c.Request.Context(), service.CreateAdminInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		IsSuper:     req.IsSuper,
		Roles:       req.Roles,
	})
	if err != nil {
		if respondAdminPasswordPolicyError(c, err) {
			return
		}
		respondWithMappedError(c, err, adminAccountErrorRules, response.CodeInternal, "error.admin_create_failed")
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		TargetAdminID:  &admin.ID,
		TargetUsername: admin.Username,
		Action:         service.AuthzAuditActionAdminCreate,
		Detail: models.JSON{
			"is_super": admin.IsSuper,
			"roles":    admin.Roles,
		},
	})
	response.Success(c, admin)
}

// SetAuthzAdminRoles 覆盖员工角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseUintParam(c, "id", "error.admin_id_invalid")
	if !ok {
		return
	}
	var req authzSetAdminRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	admin, err := h.AdminService.SetRoles(c.Request.Context(), adminID, req.Roles)
	if err != nil {
		respondWithMappedError(c, err, adminAccountErrorRules, response.CodeInternal, "error.save_failed")
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		TargetAdminID:  &admin.ID,
		TargetUsername: admin.Username,
		Action:         service.AuthzAuditActionAdminRolesSet,
		Detail:         models.JSON{"roles": admin.Roles},
	})
	response.Success(c, admin)
}

// DeleteAuthzAdmin 删除员工账号
func (h *Handler) DeleteAuthzAdmin(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	adminID, ok := parseUintParam(c, "id", "error.admin_id_invalid")
	if !ok {
		return
	}

	if err := h.AdminService.Delete(c.Request.Context(), operatorID, adminID); err != nil {
		respondWithMappedError(c, err, adminAccountErrorRules, response.CodeInternal, "error.admin_delete_failed")
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		TargetAdminID: &adminID,
		Action:        service.AuthzAuditActionAdminDelete,
	})
	response.Success(c, nil)
}

// ListAuthzAuditLogs 权限审计日志
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
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
	operatorID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("operator_admin_id")), 10, 64)
	targetID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("target_admin_id")), 10, 64)

	logs, total, err := h.AuthzAuditService.ListForAdmin(c.Request.Context(), repository.AuthzAuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: uint(operatorID),
		TargetAdminID:   uint(targetID),
		Action:          strings.TrimSpace(c.Query("action")),
		Role:            strings.TrimSpace(c.Query("role")),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "error.config_fetch_failed")
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

// recordAuthzAudit 补全操作人与请求信息后写入审计日志，失败只记日志
func (h *Handler) recordAuthzAudit(c *gin.Context, input service.AuthzAuditRecordInput) {
	if h == nil || h.AuthzAuditService == nil {
		return
	}
	if adminID, exists := c.Get("admin_id"); exists {
		if id, ok := adminID.(uint); ok {
			input.OperatorAdminID = id
		}
	}
	input.OperatorUsername = currentUsername(c)
	input.RequestID = currentRequestID(c)
	if err := h.AuthzAuditService.Record(c.Request.Context(), input); err != nil {
		logger.Warnw("admin_authz_audit_record_failed",
			"error", err,
			"action", input.Action,
			"operator_admin_id", input.OperatorAdminID,
		)
	}
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
