package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 餐厅预置角色矩阵：后厨只推进订单，店员处理订单与媒体，经理管理菜单与设置
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
				{Object: "/api/media", Action: "GET"},
				{Object: "/api/media/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role: "kitchen",
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
				{Object: "/admin/dashboard/order-counts", Action: "GET"},
				{Object: "/admin/authz/me", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "staff",
			Inherits: []string{"kitchen"},
			Policies: []Policy{
				{Object: "/admin/orders/:id/payment", Action: "PATCH"},
				{Object: "/admin/users", Action: "GET"},
				{Object: "/admin/users/:id", Action: "GET"},
				{Object: "/admin/products", Action: "GET"},
				{Object: "/admin/products/:id", Action: "GET"},
				{Object: "/admin/categories", Action: "GET"},
				{Object: "/admin/media/sign", Action: "POST"},
				{Object: "/api/media", Action: "*"},
				{Object: "/api/media/:id", Action: "*"},
				{Object: "/api/media/cloudinary", Action: "*"},
				{Object: "/api/media/firestore", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role:     "manager",
			Inherits: []string{"staff", "readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/categories", Action: "*"},
				{Object: "/admin/categories/:id", Action: "*"},
				{Object: "/admin/users/:id/status", Action: "PATCH"},
				{Object: "/admin/settings/:key", Action: "PUT"},
			},
			Immutable: true,
		},
	}
}

// lockedBuiltinPolicies 标记为 Immutable 的预置角色策略
func lockedBuiltinPolicies() map[string]struct{} {
	locked := make(map[string]struct{})
	for _, seed := range BuiltinRoleSeeds() {
		if !seed.Immutable {
			continue
		}
		for _, policy := range seed.Policies {
			normalized, err := normalizePolicy(seed.Role, policy.Object, policy.Action)
			if err != nil {
				continue
			}
			locked[normalized.key()] = struct{}{}
		}
	}
	return locked
}

// BootstrapBuiltinRoles 初始化预置角色、继承关系与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		if err := s.ensureRole(role); err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			normalized, err := normalizePolicy(role, policy.Object, policy.Action)
			if err != nil {
				return fmt.Errorf("builtin policy %s %s %s: %w", seed.Role, policy.Action, policy.Object, err)
			}
			if _, err := s.enforcer.AddPolicy(normalized.Subject, normalized.Object, normalized.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
