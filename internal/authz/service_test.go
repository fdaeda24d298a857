package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceAdminWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("cashier", "/admin/products/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"cashier"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(1, "/api/v1/admin/products/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceAdmin(1, "/api/v1/admin/products/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("cashier", "/admin/orders", "GET"); err != nil {
		t.Fatalf("grant cashier policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("chef", "/admin/orders/:id/status", "PATCH"); err != nil {
		t.Fatalf("grant chef policy failed: %v", err)
	}

	if err := svc.SetAdminRoles(2, []string{"cashier"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:cashier" {
		t.Fatalf("roles want [role:cashier], got=%v", roles)
	}

	if err := svc.SetAdminRoles(2, []string{"chef"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:chef" {
		t.Fatalf("roles want [role:chef], got=%v", roles)
	}

	allow, err := svc.EnforceAdmin(2, "/admin/orders", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}

	allow, err = svc.EnforceAdmin(2, "/api/v1/admin/orders/7/status", "PATCH")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
		{in: "/api/v1/admin/orders/", want: "/admin/orders"},
		{in: "//api/media//:id", want: "/api/media/:id"},
		{in: "/api/media", want: "/api/media"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:readonly_auditor": true,
		"role:kitchen":          true,
		"role:staff":            true,
		"role:manager":          true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	if err := svc.SetAdminRoles(3, []string{"manager"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(3, "/admin/settings/captcha_config", "GET")
	if err != nil {
		t.Fatalf("enforce inherited readonly failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected inherited readonly permission")
	}

	allow, err = svc.EnforceAdmin(3, "/admin/settings/captcha_config", "PUT")
	if err != nil {
		t.Fatalf("enforce manager write failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected manager settings write")
	}

	allow, err = svc.EnforceAdmin(3, "/api/media/0c6f1e5b", "DELETE")
	if err != nil {
		t.Fatalf("enforce inherited media failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected manager media delete through staff")
	}
}

func TestBuiltinKitchenRoleScope(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(4, []string{"kitchen"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	cases := []struct {
		obj   string
		act   string
		allow bool
	}{
		{obj: "/api/v1/admin/orders", act: "GET", allow: true},
		{obj: "/api/v1/admin/orders/12/status", act: "PATCH", allow: true},
		{obj: "/api/v1/admin/orders/12/payment", act: "PATCH", allow: false},
		{obj: "/api/v1/admin/products", act: "POST", allow: false},
		{obj: "/api/v1/admin/users", act: "GET", allow: false},
		{obj: "/api/media", act: "POST", allow: false},
	}
	for _, item := range cases {
		allow, err := svc.EnforceAdmin(4, item.obj, item.act)
		if err != nil {
			t.Fatalf("enforce %s %s failed: %v", item.act, item.obj, err)
		}
		if allow != item.allow {
			t.Fatalf("enforce %s %s want=%v got=%v", item.act, item.obj, item.allow, allow)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{in: " Kitchen ", want: "role:kitchen"},
		{in: "role:readonly-auditor", want: "role:readonly_auditor"},
		{in: "ca sang", want: "role:ca_sang"},
		{in: "", err: ErrRoleInvalid},
		{in: "role:", err: ErrRoleInvalid},
		{in: "bếp", err: ErrRoleInvalid},
		{in: "__anchor__", err: ErrRoleReserved},
	}
	for _, item := range cases {
		got, err := NormalizeRole(item.in)
		if item.err != nil {
			if !errors.Is(err, item.err) {
				t.Fatalf("normalize role %q want err %v, got %q %v", item.in, item.err, got, err)
			}
			continue
		}
		if err != nil || got != item.want {
			t.Fatalf("normalize role %q want %q, got %q %v", item.in, item.want, got, err)
		}
	}
}

func TestGrantRolePolicyRejectsForeignResources(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	if err := svc.GrantRolePolicy("cashier", "/api/v1/cart", "GET"); !errors.Is(err, ErrObjectInvalid) {
		t.Fatalf("storefront path want ErrObjectInvalid, got %v", err)
	}
	if err := svc.GrantRolePolicy("cashier", "/metrics", "GET"); !errors.Is(err, ErrObjectInvalid) {
		t.Fatalf("metrics path want ErrObjectInvalid, got %v", err)
	}
	if err := svc.GrantRolePolicy("cashier", "/admin/orders", "TRACE"); !errors.Is(err, ErrActionInvalid) {
		t.Fatalf("unknown method want ErrActionInvalid, got %v", err)
	}
	if err := svc.GrantRolePolicy("cashier", "/api/v1/admin/orders/", "get"); err != nil {
		t.Fatalf("grant admin path failed: %v", err)
	}
	policies, err := svc.GetRolePolicies("cashier")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "/admin/orders" || policies[0].Action != "GET" {
		t.Fatalf("policy should be stored normalized, got %+v", policies)
	}

	if err := svc.SetAdminRoles(5, []string{"cashier"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	allow, err := svc.EnforceAdmin(5, "/api/v1/public/menu", "GET")
	if err != nil || allow {
		t.Fatalf("unguarded path must be denied, allow=%v err=%v", allow, err)
	}
}

func TestBuiltinPoliciesCannotBeRevoked(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap should be idempotent: %v", err)
	}

	if err := svc.RevokeRolePolicy("kitchen", "/api/v1/admin/orders/:id/status", "PATCH"); !errors.Is(err, ErrRoleImmutable) {
		t.Fatalf("builtin policy revoke want ErrRoleImmutable, got %v", err)
	}

	if err := svc.GrantRolePolicy("kitchen", "/admin/products", "GET"); err != nil {
		t.Fatalf("extra grant on builtin role failed: %v", err)
	}
	if err := svc.RevokeRolePolicy("kitchen", "/admin/products", "GET"); err != nil {
		t.Fatalf("extra policy should be revocable: %v", err)
	}
}

func TestGetAdminPoliciesFollowsInheritance(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(6, []string{"staff"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	policies, err := svc.GetAdminPolicies(6)
	if err != nil {
		t.Fatalf("get admin policies failed: %v", err)
	}
	var ownPayment, inheritedStatus bool
	for _, policy := range policies {
		if policy.Subject == "role:staff" && policy.Object == "/admin/orders/:id/payment" {
			ownPayment = true
		}
		if policy.Subject == "role:kitchen" && policy.Object == "/admin/orders/:id/status" {
			inheritedStatus = true
		}
	}
	if !ownPayment || !inheritedStatus {
		t.Fatalf("effective policies should include own and inherited entries, got %+v", policies)
	}

	if _, err := svc.GetAdminPolicies(0); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("zero admin id want ErrAdminRequired, got %v", err)
	}
}
