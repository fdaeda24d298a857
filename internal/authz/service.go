package authz

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// 授权相关错误
var (
	ErrUnavailable   = errors.New("authz service unavailable")
	ErrAdminRequired = errors.New("admin id is required")
	ErrRoleInvalid   = errors.New("role name invalid")
	ErrRoleReserved  = errors.New("role name reserved")
	ErrRoleImmutable = errors.New("builtin role policy cannot be revoked")
	ErrObjectInvalid = errors.New("object is not an admin resource")
	ErrActionInvalid = errors.New("action invalid")
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"
	roleAnchor      = "role:__anchor__"
	actionAny       = "*"
)

// 受 RBAC 保护的两类资源：后台接口与媒体库接口
var guardedSurfaces = []string{"/admin", "/api/media"}

var (
	roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)
	allowedActions  = map[string]struct{}{
		"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, actionAny: {},
	}
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

func (p Policy) key() string {
	return p.Subject + "|" + p.Object + "|" + p.Action
}

// Service 员工 RBAC，策略存放在 casbin_rule 表，写入即落库
type Service struct {
	enforcer *casbin.SyncedEnforcer
	// 预置角色不可撤销的策略
	locked map[string]struct{}
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer, locked: lockedBuiltinPolicies()}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceAdmin 判定员工能否以 act 访问 obj；不在受保护资源内的路径一律拒绝
func (s *Service) EnforceAdmin(adminID uint, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if adminID == 0 {
		return false, ErrAdminRequired
	}
	object := NormalizeObject(obj)
	if !IsGuardedObject(object) {
		return false, nil
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), object, NormalizeAction(act))
}

// ListRoles 列出全部角色（带 role: 前缀，已排序）
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 0 && strings.HasPrefix(rule[0], rolePrefix) {
			roles = append(roles, rule[0])
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予策略，角色不存在时创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	policy, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.ensureRole(policy.Subject); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略，预置角色自带的策略不可撤销
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	policy, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, ok := s.locked[policy.key()]; ok {
		return ErrRoleImmutable
	}
	if _, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 查询角色直接持有的策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalized)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return sortPolicies(convertPolicies(rules)), nil
}

// SetAdminRoles 覆盖员工角色，roles 为空即清除
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return ErrAdminRequired
	}
	if err := s.ready(); err != nil {
		return err
	}
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		name, err := NormalizeRole(role)
		if err != nil {
			return err
		}
		normalized = append(normalized, name)
	}

	subject := SubjectForAdmin(adminID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, role := range normalized {
		if err := s.ensureRole(role); err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, role); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return nil
}

// GetAdminRoles 员工直接分配的角色
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	result := make([]string, 0, len(roles))
	for _, role := range roles {
		if strings.HasPrefix(role, rolePrefix) && role != roleAnchor {
			result = append(result, role)
		}
	}
	sort.Strings(result)
	return result, nil
}

// GetAdminPolicies 员工生效的策略，包含继承链上所有角色
func (s *Service) GetAdminPolicies(adminID uint) ([]Policy, error) {
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	subject := SubjectForAdmin(adminID)
	subjects := []string{subject}
	implicit, err := s.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get implicit roles failed: %w", err)
	}
	for _, role := range implicit {
		if role != roleAnchor {
			subjects = append(subjects, role)
		}
	}

	seen := make(map[string]struct{})
	result := make([]Policy, 0)
	for _, sub := range subjects {
		rules, err := s.enforcer.GetFilteredPolicy(0, sub)
		if err != nil {
			return nil, fmt.Errorf("get policies failed: %w", err)
		}
		for _, policy := range convertPolicies(rules) {
			if _, ok := seen[policy.key()]; ok {
				continue
			}
			seen[policy.key()] = struct{}{}
			result = append(result, policy)
		}
	}
	return sortPolicies(result), nil
}

// ensureRole 角色以 role -> anchor 的分组记录存在
func (s *Service) ensureRole(role string) error {
	if role == roleAnchor {
		return ErrRoleReserved
	}
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
	if err != nil {
		return fmt.Errorf("check role failed: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
		return fmt.Errorf("create role failed: %w", err)
	}
	return nil
}

func normalizePolicy(role, object, action string) (Policy, error) {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	normalizedObject := NormalizeObject(object)
	if !IsGuardedObject(normalizedObject) {
		return Policy{}, ErrObjectInvalid
	}
	normalizedAction := NormalizeAction(action)
	if _, ok := allowedActions[normalizedAction]; !ok {
		return Policy{}, ErrActionInvalid
	}
	return Policy{Subject: normalizedRole, Object: normalizedObject, Action: normalizedAction}, nil
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}

func sortPolicies(policies []Policy) []Policy {
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].key() < policies[j].key()
	})
	return policies
}

// SubjectForAdmin 员工主体标识
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeRole 角色名转小写，空格与连字符转下划线，补 role: 前缀
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, rolePrefix)
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	if name == "" {
		return "", ErrRoleInvalid
	}
	if rolePrefix+name == roleAnchor {
		return "", ErrRoleReserved
	}
	if !roleNamePattern.MatchString(name) {
		return "", ErrRoleInvalid
	}
	return rolePrefix + name, nil
}

// NormalizeObject 去掉 /api/v1 前缀，合并重复斜杠并去掉末尾斜杠
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	if normalized == apiV1Prefix || strings.HasPrefix(normalized, apiV1Prefix+"/") {
		normalized = strings.TrimPrefix(normalized, apiV1Prefix)
	}
	if len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	if normalized == "" {
		return "/"
	}
	return normalized
}

// IsGuardedObject 是否属于后台或媒体库资源
func IsGuardedObject(object string) bool {
	for _, surface := range guardedSurfaces {
		if object == surface || strings.HasPrefix(object, surface+"/") {
			return true
		}
	}
	return false
}

// NormalizeAction 动作统一为大写 HTTP 方法
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
