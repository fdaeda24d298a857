package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestOrder(code, status string, userID *string, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:        uuid.NewString(),
		OrderCode: code,
		UserID:    userID,
		Items: models.OrderItems{
			{ID: "1__M", ProductID: "1", Name: "Phở bò", Price: models.NewMoney(65000), Quantity: 2, Size: "M"},
		},
		Subtotal: models.NewMoney(130000),
		Total:    models.NewMoney(160000),
		Status:   status,
		Customer: models.CustomerInfo{Name: "Nguyễn Văn A", Phone: "0901234567", Address: "12 Lê Lợi"},
		Payment: models.PaymentInfo{
			Method: constants.PaymentMethodCOD,
			Status: constants.PaymentStatusPending,
		},
		Shipping:  models.ShippingInfo{Fee: models.NewMoney(30000)},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepositoryCreateAndGet(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))
	ctx := context.Background()
	order := newTestOrder("BNT260101-AAAAAA", constants.OrderStatusPending, nil, time.Now())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil {
		t.Fatalf("order should exist")
	}
	if got.UserID != nil {
		t.Fatalf("guest order should keep nil user id, got %v", *got.UserID)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 || got.Items[0].Price.Int64() != 65000 {
		t.Fatalf("items snapshot mismatch: %+v", got.Items)
	}
	if got.Customer.Phone != "0901234567" || got.Shipping.Fee.Int64() != 30000 {
		t.Fatalf("embedded info mismatch: %+v %+v", got.Customer, got.Shipping)
	}

	byCode, err := repo.GetByCode(ctx, "BNT260101-AAAAAA")
	if err != nil || byCode == nil || byCode.ID != order.ID {
		t.Fatalf("get by code failed: %v %+v", err, byCode)
	}

	missing, err := repo.GetByID(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("get missing order failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing order should be nil")
	}
}

func TestOrderRepositoryUpdateStatusIfCurrent(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))
	ctx := context.Background()
	order := newTestOrder("BNT260101-BBBBBB", constants.OrderStatusPending, nil, time.Now())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	affected, err := repo.UpdateStatusIfCurrent(ctx, order.ID, constants.OrderStatusProcessing, map[string]interface{}{
		"status": constants.OrderStatusShipping,
	})
	if err != nil {
		t.Fatalf("stale update failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale status should not match, affected=%d", affected)
	}

	now := time.Now()
	affected, err = repo.UpdateStatusIfCurrent(ctx, order.ID, constants.OrderStatusPending, map[string]interface{}{
		"status":     constants.OrderStatusProcessing,
		"updated_at": now,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("update affected want 1 got %d", affected)
	}
	got, _ := repo.GetByID(ctx, order.ID)
	if got.Status != constants.OrderStatusProcessing {
		t.Fatalf("status want processing got %s", got.Status)
	}
}

func TestOrderRepositoryFetchRecentOrderAndLimit(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	userID := uuid.NewString()
	for i, code := range []string{"BNT260101-C00001", "BNT260101-C00002", "BNT260101-C00003"} {
		var owner *string
		if i == 2 {
			owner = &userID
		}
		if err := repo.Create(ctx, newTestOrder(code, constants.OrderStatusPending, owner, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, err := repo.FetchRecent(ctx, OrderFetchFilter{Limit: 2})
	if err != nil {
		t.Fatalf("fetch recent failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("limit want 2 got %d", len(orders))
	}
	if orders[0].OrderCode != "BNT260101-C00003" || orders[1].OrderCode != "BNT260101-C00002" {
		t.Fatalf("orders should be newest first: %s %s", orders[0].OrderCode, orders[1].OrderCode)
	}

	owned, err := repo.FetchRecent(ctx, OrderFetchFilter{UserID: userID})
	if err != nil {
		t.Fatalf("fetch by user failed: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("user filter want 1 got %d", len(owned))
	}

	list, total, err := repo.ListByUser(ctx, UserOrderListFilter{UserID: userID, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("list by user want 1 got total=%d len=%d", total, len(list))
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count by status failed: %v", err)
	}
	if counts[constants.OrderStatusPending] != 3 {
		t.Fatalf("pending count want 3 got %d", counts[constants.OrderStatusPending])
	}
}

func TestOrderRepositoryTransactionRollback(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))
	ctx := context.Background()
	order := newTestOrder("BNT260101-DDDDDD", constants.OrderStatusPending, nil, time.Now())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	errAbort := context.Canceled
	err := repo.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := repo.WithTx(tx).UpdateFields(ctx, order.ID, map[string]interface{}{"status": constants.OrderStatusCancelled}); err != nil {
			return err
		}
		return errAbort
	})
	if err != errAbort {
		t.Fatalf("transaction should return abort error, got %v", err)
	}
	got, _ := repo.GetByID(ctx, order.ID)
	if got.Status != constants.OrderStatusPending {
		t.Fatalf("rollback should keep pending, got %s", got.Status)
	}
}
