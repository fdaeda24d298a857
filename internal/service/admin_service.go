package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/bnt-kitchen/internal/authz"
	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

// ProtectedAdminUsername 初始店长账号，不可删除且始终为超级管理员
const ProtectedAdminUsername = "admin"

var adminUsernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{2,31}$`)

// AdminView 员工账号及其角色
type AdminView struct {
	models.Admin
	Roles []string `json:"roles"`
}

// CreateAdminInput 创建员工账号输入
type CreateAdminInput struct {
	Username    string
	Password    string
	DisplayName string
	IsSuper     bool
	Roles       []string
}

// AdminService 员工账号管理（账号 + casbin 角色）
type AdminService struct {
	repo  repository.AdminRepository
	authz *authz.Service
	auth  *AuthService
}

// NewAdminService 创建员工账号服务
func NewAdminService(repo repository.AdminRepository, authzService *authz.Service, authService *AuthService) *AdminService {
	return &AdminService{repo: repo, authz: authzService, auth: authService}
}

// List 列出员工账号
func (s *AdminService) List(ctx context.Context) ([]AdminView, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrapStoreError("admins.list", err)
	}
	views := make([]AdminView, 0, len(admins))
	for i := range admins {
		view, err := s.view(&admins[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Create 创建员工账号并分配角色
func (s *AdminService) Create(ctx context.Context, input CreateAdminInput) (*AdminView, error) {
	username, err := normalizeAdminUsername(input.Username)
	if err != nil {
		return nil, err
	}
	roles, err := s.normalizeRoles(input.Roles)
	if err != nil {
		return nil, err
	}
	if s.auth != nil {
		if err := s.auth.ValidatePassword(input.Password); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, wrapStoreError("admins.get", err)
	}
	if existing != nil {
		return nil, ErrAdminExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{
		Username:     username,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		IsSuper:      input.IsSuper || username == ProtectedAdminUsername,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAdminExists
		}
		return nil, wrapStoreError("admins.create", err)
	}
	if len(roles) > 0 && s.authz != nil {
		if err := s.authz.SetAdminRoles(admin.ID, roles); err != nil {
			return nil, err
		}
	}
	_ = cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin))

	logger.Infow("admin_created",
		"admin_id", admin.ID,
		"username", admin.Username,
		"is_super", admin.IsSuper,
		"roles", roles,
	)
	return s.view(admin)
}

// SetRoles 覆盖员工角色
func (s *AdminService) SetRoles(ctx context.Context, id uint, roles []string) (*AdminView, error) {
	admin, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	normalized, err := s.normalizeRoles(roles)
	if err != nil {
		return nil, err
	}
	if s.authz != nil {
		if err := s.authz.SetAdminRoles(admin.ID, normalized); err != nil {
			return nil, err
		}
	}
	logger.Infow("admin_roles_updated", "admin_id", admin.ID, "roles", normalized)
	return s.view(admin)
}

// Delete 删除员工账号，不能删除自己与初始店长账号
func (s *AdminService) Delete(ctx context.Context, operatorID, id uint) error {
	if operatorID == id {
		return ErrAdminSelfDelete
	}
	admin, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if admin.Username == ProtectedAdminUsername {
		return ErrAdminSelfDelete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapStoreError("admins.delete", err)
	}
	if s.authz != nil {
		if err := s.authz.SetAdminRoles(id, nil); err != nil {
			logger.Warnw("admin_roles_clear_failed", "admin_id", id, "error", err)
		}
	}
	_ = cache.DelAdminAuthState(ctx, id)
	logger.Infow("admin_deleted", "admin_id", id, "operator_admin_id", operatorID)
	return nil
}

// EnsureBootstrapAdmin 初始化店长账号，已存在时不做修改
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, password string) (*models.Admin, bool, error) {
	existing, err := s.repo.GetByUsername(ctx, ProtectedAdminUsername)
	if err != nil {
		return nil, false, wrapStoreError("admins.get", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	view, err := s.Create(ctx, CreateAdminInput{
		Username:    ProtectedAdminUsername,
		Password:    password,
		DisplayName: "Chủ quán",
		IsSuper:     true,
	})
	if err != nil {
		return nil, false, err
	}
	return &view.Admin, true, nil
}

func (s *AdminService) get(ctx context.Context, id uint) (*models.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("admins.get", err)
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

func (s *AdminService) view(admin *models.Admin) (*AdminView, error) {
	view := &AdminView{Admin: *admin, Roles: []string{}}
	if s.authz == nil {
		return view, nil
	}
	roles, err := s.authz.GetAdminRoles(admin.ID)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		view.Roles = append(view.Roles, strings.TrimPrefix(role, "role:"))
	}
	return view, nil
}

// normalizeRoles 只允许已存在的角色，去重并保持顺序
func (s *AdminService) normalizeRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return []string{}, nil
	}
	known := make(map[string]struct{})
	if s.authz != nil {
		existing, err := s.authz.ListRoles()
		if err != nil {
			return nil, err
		}
		for _, role := range existing {
			known[role] = struct{}{}
		}
	}
	result := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, raw := range roles {
		role, err := authz.NormalizeRole(raw)
		if err != nil {
			return nil, ErrAdminRoleInvalid
		}
		if _, ok := known[role]; !ok {
			return nil, ErrAdminRoleInvalid
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		result = append(result, role)
	}
	return result, nil
}

func normalizeAdminUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if !adminUsernamePattern.MatchString(username) {
		return "", ErrAdminUsernameBad
	}
	return username, nil
}
