package service

import (
	"context"
	"testing"

	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

func TestAuthzAuditRecordAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthzAuditService(repository.NewAuthzAuditLogRepository(openServiceTestDB(t)))

	target := uint(9)
	inputs := []AuthzAuditRecordInput{
		{OperatorAdminID: 1, OperatorUsername: "admin", TargetAdminID: &target, Action: AuthzAuditActionAdminRolesSet, Detail: models.JSON{"roles": []string{"kitchen"}}},
		{OperatorAdminID: 1, Action: AuthzAuditActionRolePolicyGrant, Role: "role:kitchen", Object: "/admin/orders", Method: "get"},
		{OperatorAdminID: 0, Action: AuthzAuditActionAdminDelete},
		{OperatorAdminID: 1, Action: "  "},
	}
	for _, input := range inputs {
		if err := svc.Record(ctx, input); err != nil {
			t.Fatalf("record audit failed: %v", err)
		}
	}

	logs, total, err := svc.ListForAdmin(ctx, repository.AuthzAuditLogListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list audit failed: %v", err)
	}
	if total != 2 || len(logs) != 2 {
		t.Fatalf("only complete records should be stored, total=%d len=%d", total, len(logs))
	}
	if logs[0].Action != AuthzAuditActionRolePolicyGrant || logs[0].Method != "GET" {
		t.Fatalf("newest record first with upper method, got %+v", logs[0])
	}

	logs, total, err = svc.ListForAdmin(ctx, repository.AuthzAuditLogListFilter{TargetAdminID: target})
	if err != nil || total != 1 || logs[0].Action != AuthzAuditActionAdminRolesSet {
		t.Fatalf("filter by target failed: total=%d err=%v", total, err)
	}
}
