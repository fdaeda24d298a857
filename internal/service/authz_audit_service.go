package service

import (
	"context"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

// 审计动作
const (
	AuthzAuditActionAdminCreate     = "admin_create"
	AuthzAuditActionAdminDelete     = "admin_delete"
	AuthzAuditActionAdminRolesSet   = "admin_roles_set"
	AuthzAuditActionRolePolicyGrant = "role_policy_grant"
	AuthzAuditActionRolePolicyDrop  = "role_policy_revoke"
)

// AuthzAuditRecordInput 权限审计记录输入
type AuthzAuditRecordInput struct {
	OperatorAdminID  uint
	OperatorUsername string
	TargetAdminID    *uint
	TargetUsername   string
	Action           string
	Role             string
	Object           string
	Method           string
	RequestID        string
	Detail           models.JSON
}

// AuthzAuditService 权限审计服务
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
	now  func() time.Time
}

// NewAuthzAuditService 创建权限审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo, now: time.Now}
}

// Record 记录权限审计日志；缺少操作人或动作时忽略
func (s *AuthzAuditService) Record(ctx context.Context, input AuthzAuditRecordInput) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if input.OperatorAdminID == 0 || strings.TrimSpace(input.Action) == "" {
		return nil
	}

	item := &models.AuthzAuditLog{
		OperatorAdminID:  input.OperatorAdminID,
		OperatorUsername: strings.TrimSpace(input.OperatorUsername),
		TargetAdminID:    input.TargetAdminID,
		TargetUsername:   strings.TrimSpace(input.TargetUsername),
		Action:           strings.TrimSpace(input.Action),
		Role:             strings.TrimSpace(input.Role),
		Object:           strings.TrimSpace(input.Object),
		Method:           strings.ToUpper(strings.TrimSpace(input.Method)),
		RequestID:        strings.TrimSpace(input.RequestID),
		DetailJSON:       input.Detail,
		CreatedAt:        s.now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return wrapStoreError("authz_audit.create", err)
	}
	return nil
}

// ListForAdmin 后台查询权限审计日志
func (s *AuthzAuditService) ListForAdmin(ctx context.Context, filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	logs, total, err := s.repo.ListAdmin(ctx, filter)
	if err != nil {
		return nil, 0, wrapStoreError("authz_audit.list", err)
	}
	return logs, total, nil
}
