package worker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/provider"
	"github.com/bnt-kitchen/internal/queue"
	"github.com/bnt-kitchen/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openWorkerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newNotifyTestOrder(status string) *models.Order {
	return &models.Order{
		ID:        "7b0c2d1e-0000-4000-8000-000000000001",
		OrderCode: "BNT-240101-0001",
		Items: models.OrderItems{
			{ID: "pho-bo_L", ProductID: "pho-bo", Name: "Phở bò", Price: models.NewMoney(65000), Quantity: 2, Size: "L"},
		},
		Subtotal: models.NewMoney(130000),
		Total:    models.NewMoney(160000),
		Status:   status,
		Customer: models.CustomerInfo{Name: "Lan", Phone: "0901234567", Address: "12 Lý Tự Trọng"},
		Payment:  models.PaymentInfo{Method: constants.PaymentMethodCOD, Status: constants.PaymentStatusPending},
	}
}

func TestBuildOrderStatusNoticeLocalized(t *testing.T) {
	order := newNotifyTestOrder(constants.OrderStatusShipping)

	vi := BuildOrderStatusNotice(order, queue.OrderStatusNotifyPayload{}, "vi-VN")
	if !strings.Contains(vi.Message, "BNT-240101-0001") || !strings.Contains(vi.Message, "Đang giao") {
		t.Fatalf("unexpected vi message %q", vi.Message)
	}
	en := BuildOrderStatusNotice(order, queue.OrderStatusNotifyPayload{}, "en")
	if en.Locale != constants.LocaleEnUS || !strings.Contains(en.Message, "Out for delivery") {
		t.Fatalf("unexpected en notice %+v", en)
	}
	if en.Phone != "0901234567" {
		t.Fatalf("phone want 0901234567 got %q", en.Phone)
	}
}

func TestBuildOrderStatusNoticeCancelReason(t *testing.T) {
	order := newNotifyTestOrder(constants.OrderStatusCancelled)
	notice := BuildOrderStatusNotice(order, queue.OrderStatusNotifyPayload{Reason: "hết nguyên liệu"}, "vi-VN")
	if !strings.Contains(notice.Message, "hết nguyên liệu") {
		t.Fatalf("cancel notice should carry reason, got %q", notice.Message)
	}
	if got := BuildOrderStatusNotice(nil, queue.OrderStatusNotifyPayload{}, "vi-VN"); got.Message != "" {
		t.Fatalf("nil order should render nothing, got %+v", got)
	}
}

func TestHandleOrderStatusNotify(t *testing.T) {
	db := openWorkerTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	order := newNotifyTestOrder(constants.OrderStatusProcessing)
	if err := orderRepo.Create(context.Background(), order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	consumer := NewConsumer(&provider.Container{
		OrderRepo: orderRepo,
		UserRepo:  repository.NewUserRepository(db),
	})

	cases := []queue.OrderStatusNotifyPayload{
		{OrderID: order.ID, FromStatus: constants.OrderStatusPending, ToStatus: constants.OrderStatusProcessing},
		{OrderID: order.ID, FromStatus: constants.OrderStatusPending, ToStatus: constants.OrderStatusShipping},
		{OrderID: "missing-order", ToStatus: constants.OrderStatusShipping},
		{},
	}
	for _, payload := range cases {
		task, err := queue.NewOrderStatusNotifyTask(payload)
		if err != nil {
			t.Fatalf("new task failed: %v", err)
		}
		if err := consumer.handleOrderStatusNotify(context.Background(), task); err != nil {
			t.Fatalf("payload %+v should not fail: %v", payload, err)
		}
	}
}

func TestHandleMediaSyncWithoutService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewMediaSyncCloudinaryTask(queue.MediaSyncCloudinaryPayload{Folder: "bnt/menu", Trigger: "test"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleMediaSyncCloudinary(context.Background(), task); err != nil {
		t.Fatalf("missing media service should be skipped, got %v", err)
	}

	var nilConsumer *Consumer
	if err := nilConsumer.handleMediaSyncCloudinary(context.Background(), task); err != nil {
		t.Fatalf("nil consumer should be a no-op, got %v", err)
	}
}
