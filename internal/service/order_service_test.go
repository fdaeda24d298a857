package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/bnt-kitchen/internal/cart"
	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"

	"gorm.io/gorm"
)

var testOrderConfig = config.OrderConfig{
	CodePrefix:            "BNT",
	ShippingFee:           30000,
	FreeShippingThreshold: 200000,
	ListFetchLimit:        500,
}

func newTestOrderService(t *testing.T) (*OrderService, *SettingService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	settingSvc := NewSettingService(repository.NewSettingRepository(db), testOrderConfig)
	svc := NewOrderService(repository.NewOrderRepository(db), settingSvc, nil, nil, testOrderConfig)
	return svc, settingSvc, db
}

func cartLine(productID, name string, price int64, quantity int, size string) cart.Item {
	return cart.Item{
		ID:        cart.ItemID(productID, size),
		ProductID: productID,
		Name:      name,
		Price:     models.NewMoney(price),
		Quantity:  quantity,
		Size:      size,
	}
}

func validCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		Name:    "Nguyễn Văn An",
		Phone:   "090 123 4567",
		Email:   "An@Example.com",
		Address: "12 Lý Tự Trọng",
		City:    "Hồ Chí Minh",
	}
}

func createTestOrder(t *testing.T, svc *OrderService, userID *string, lines ...cart.Item) *models.Order {
	t.Helper()
	if len(lines) == 0 {
		lines = []cart.Item{cartLine("12", "Phở bò", 65000, 2, "L"), cartLine("31", "Trà sữa", 35000, 1, "")}
	}
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:        userID,
		Items:         lines,
		Customer:      validCustomer(),
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCreateOrderComputesTotals(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	order := createTestOrder(t, svc, nil)

	if order.Subtotal.Int64() != 165000 {
		t.Fatalf("subtotal want 165000 got %d", order.Subtotal.Int64())
	}
	if order.Shipping.Fee.Int64() != 30000 || order.Total.Int64() != 195000 {
		t.Fatalf("fee/total mismatch: fee=%d total=%d", order.Shipping.Fee.Int64(), order.Total.Int64())
	}
	if order.Status != constants.OrderStatusPending || order.Payment.Status != constants.PaymentStatusPending {
		t.Fatalf("new order should be pending, got %s/%s", order.Status, order.Payment.Status)
	}
	if !regexp.MustCompile(`^BNT\d{6}-[A-Z0-9]{6}$`).MatchString(order.OrderCode) {
		t.Fatalf("unexpected order code: %s", order.OrderCode)
	}
	if order.CreatedAt.IsZero() || !order.CreatedAt.Equal(order.UpdatedAt) {
		t.Fatalf("timestamps should be set to the same instant")
	}
	if order.Customer.Phone != "0901234567" || order.Customer.Email != "an@example.com" {
		t.Fatalf("customer info should be normalized: %+v", order.Customer)
	}

	stored, err := svc.GetOrder(context.Background(), order.ID, "")
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(stored.Items) != 2 || stored.Items[0].ID != "12__L" || stored.Items[0].Price.Int64() != 65000 {
		t.Fatalf("items snapshot mismatch: %+v", stored.Items)
	}
	if stored.UserID != nil {
		t.Fatalf("guest order should have nil user id")
	}
}

func TestCreateOrderShippingThreshold(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	cases := []struct {
		subtotal int64
		fee      int64
	}{
		{subtotal: 199000, fee: 30000},
		{subtotal: 200000, fee: 30000},
		{subtotal: 200001, fee: 0},
		{subtotal: 450000, fee: 0},
	}
	for _, c := range cases {
		order := createTestOrder(t, svc, nil, cartLine("7", "Cơm tấm", c.subtotal, 1, ""))
		if order.Shipping.Fee.Int64() != c.fee {
			t.Fatalf("subtotal %d: fee want %d got %d", c.subtotal, c.fee, order.Shipping.Fee.Int64())
		}
		if order.Total.Int64() != c.subtotal+c.fee {
			t.Fatalf("subtotal %d: total mismatch %d", c.subtotal, order.Total.Int64())
		}
	}
}

func TestCreateOrderExplicitShippingFee(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	fee := models.NewMoney(12000)
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:         []cart.Item{cartLine("7", "Cơm tấm", 500000, 1, "")},
		Customer:      validCustomer(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
		ShippingFee:   &fee,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Shipping.Fee.Int64() != 12000 || order.Total.Int64() != 512000 {
		t.Fatalf("explicit fee should win: fee=%d total=%d", order.Shipping.Fee.Int64(), order.Total.Int64())
	}

	negative := models.NewMoney(-1)
	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:         []cart.Item{cartLine("7", "Cơm tấm", 50000, 1, "")},
		Customer:      validCustomer(),
		PaymentMethod: constants.PaymentMethodCOD,
		ShippingFee:   &negative,
	})
	if !errors.Is(err, ErrShippingFeeInvalid) {
		t.Fatalf("negative fee should be rejected, got %v", err)
	}
}

func TestCreateOrderUsesShopSetting(t *testing.T) {
	svc, settingSvc, _ := newTestOrderService(t)
	_, err := settingSvc.Update(context.Background(), constants.SettingKeyShopConfig, map[string]interface{}{
		"shipping_fee":            float64(15000),
		"free_shipping_threshold": "100000",
		"payment_methods":         []interface{}{"cod"},
	})
	if err != nil {
		t.Fatalf("update shop config failed: %v", err)
	}

	order := createTestOrder(t, svc, nil, cartLine("7", "Cơm tấm", 90000, 1, ""))
	if order.Shipping.Fee.Int64() != 15000 {
		t.Fatalf("shop setting fee should apply, got %d", order.Shipping.Fee.Int64())
	}
	free := createTestOrder(t, svc, nil, cartLine("7", "Cơm tấm", 100001, 1, ""))
	if free.Shipping.Fee.Int64() != 0 {
		t.Fatalf("shop setting threshold should apply, got %d", free.Shipping.Fee.Int64())
	}

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		Items:         []cart.Item{cartLine("7", "Cơm tấm", 90000, 1, "")},
		Customer:      validCustomer(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if !errors.Is(err, ErrPaymentMethodDisabled) {
		t.Fatalf("bank transfer disabled by shop setting, got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	lines := []cart.Item{cartLine("7", "Cơm tấm", 50000, 1, "")}

	badPhone := validCustomer()
	badPhone.Phone = "12345"
	noAddress := validCustomer()
	noAddress.Address = " "
	badEmail := validCustomer()
	badEmail.Email = "not-an-email"

	cases := []struct {
		name  string
		input CreateOrderInput
		want  error
	}{
		{"empty cart", CreateOrderInput{Customer: validCustomer(), PaymentMethod: "cod"}, ErrInvalidOrderItem},
		{"zero quantity", CreateOrderInput{Items: []cart.Item{cartLine("7", "Cơm tấm", 50000, 0, "")}, Customer: validCustomer(), PaymentMethod: "cod"}, ErrInvalidOrderItem},
		{"negative price", CreateOrderInput{Items: []cart.Item{cartLine("7", "Cơm tấm", -1, 1, "")}, Customer: validCustomer(), PaymentMethod: "cod"}, ErrInvalidOrderItem},
		{"bad phone", CreateOrderInput{Items: lines, Customer: badPhone, PaymentMethod: "cod"}, ErrCustomerInfoInvalid},
		{"no address", CreateOrderInput{Items: lines, Customer: noAddress, PaymentMethod: "cod"}, ErrCustomerInfoInvalid},
		{"bad email", CreateOrderInput{Items: lines, Customer: badEmail, PaymentMethod: "cod"}, ErrCustomerInfoInvalid},
		{"unknown method", CreateOrderInput{Items: lines, Customer: validCustomer(), PaymentMethod: "bitcoin"}, ErrPaymentMethodInvalid},
		{"momo disabled", CreateOrderInput{Items: lines, Customer: validCustomer(), PaymentMethod: "momo"}, ErrPaymentMethodDisabled},
		{"zalopay disabled", CreateOrderInput{Items: lines, Customer: validCustomer(), PaymentMethod: "zalopay"}, ErrPaymentMethodDisabled},
	}
	for _, c := range cases {
		if _, err := svc.CreateOrder(ctx, c.input); !errors.Is(err, c.want) {
			t.Fatalf("%s: want %v got %v", c.name, c.want, err)
		}
	}
}

func TestGetOrderOwnership(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	owner := "user-1"
	memberOrder := createTestOrder(t, svc, &owner)
	guestOrder := createTestOrder(t, svc, nil)

	if _, err := svc.GetOrder(ctx, "missing", owner); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order should be not found, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, memberOrder.ID, "user-2"); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("other user should be forbidden, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, memberOrder.ID, ""); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("anonymous requester should be forbidden for member order, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, memberOrder.ID, owner); err != nil {
		t.Fatalf("owner should read order: %v", err)
	}
	if _, err := svc.GetOrder(ctx, guestOrder.ID, "anyone"); err != nil {
		t.Fatalf("guest order should be readable: %v", err)
	}
}

func TestUpdateOrderStatusHappyPath(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	order := createTestOrder(t, svc, nil)
	fixed := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusProcessing, ""); err != nil {
		t.Fatalf("to processing failed: %v", err)
	}
	shipped, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusShipping, "")
	if err != nil {
		t.Fatalf("to shipping failed: %v", err)
	}
	if shipped.Shipping.ShippedAt == nil || !shipped.Shipping.ShippedAt.Equal(fixed) {
		t.Fatalf("shipped_at should be set")
	}
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusCompleted, ""); err != nil {
		t.Fatalf("to completed failed: %v", err)
	}

	stored, err := svc.GetOrderForAdmin(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.Status != constants.OrderStatusCompleted {
		t.Fatalf("status want completed got %s", stored.Status)
	}
	if stored.Shipping.ShippedAt == nil || stored.Shipping.DeliveredAt == nil {
		t.Fatalf("shipping timestamps should be persisted: %+v", stored.Shipping)
	}
	if !stored.UpdatedAt.Equal(fixed) {
		t.Fatalf("updated_at should be written with the status, got %v", stored.UpdatedAt)
	}
	if stored.Subtotal.Int64() != order.Subtotal.Int64() || len(stored.Items) != len(order.Items) {
		t.Fatalf("items and subtotal must not change")
	}

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusPending, ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("completed -> pending should be rejected, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusCancelled, "late"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("completed is terminal, got %v", err)
	}
}

func TestUpdateOrderStatusCancelWritesReason(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	order := createTestOrder(t, svc, nil)

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusCancelled, "  khách đổi ý "); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	stored, _ := svc.GetOrderForAdmin(ctx, order.ID)
	if stored.Status != constants.OrderStatusCancelled || stored.CancellationReason != "khách đổi ý" {
		t.Fatalf("cancel should persist status and reason: %s %q", stored.Status, stored.CancellationReason)
	}
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusProcessing, ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("cancelled is terminal, got %v", err)
	}
}

func TestUpdateOrderStatusRejectsInvalid(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	order := createTestOrder(t, svc, nil)

	_, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusShipping, "")
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) || transitionErr.From != constants.OrderStatusPending {
		t.Fatalf("pending -> shipping should be a TransitionError, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusPending, ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("same status write should be rejected, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, "missing", constants.OrderStatusProcessing, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order should be not found, got %v", err)
	}
	stored, _ := svc.GetOrderForAdmin(ctx, order.ID)
	if stored.Status != constants.OrderStatusPending || stored.Shipping.ShippedAt != nil {
		t.Fatalf("rejected transitions must not write anything")
	}
}

// racingOrderRepo 模拟另一个写入者在读取与条件更新之间改变了状态
type racingOrderRepo struct {
	repository.OrderRepository
}

func (r racingOrderRepo) WithTx(tx *gorm.DB) repository.OrderRepository {
	return racingOrderRepo{OrderRepository: r.OrderRepository.WithTx(tx)}
}

func (r racingOrderRepo) UpdateStatusIfCurrent(context.Context, string, string, map[string]interface{}) (int64, error) {
	return 0, nil
}

func TestUpdateOrderStatusConflict(t *testing.T) {
	svc, _, db := newTestOrderService(t)
	order := createTestOrder(t, svc, nil)
	svc.orderRepo = racingOrderRepo{OrderRepository: repository.NewOrderRepository(db)}

	_, err := svc.UpdateOrderStatus(context.Background(), order.ID, constants.OrderStatusProcessing, "")
	if !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("lost conditional update should be a conflict, got %v", err)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	order := createTestOrder(t, svc, nil)

	if _, err := svc.UpdatePaymentStatus(ctx, order.ID, "refunded", ""); !errors.Is(err, ErrPaymentStatusInvalid) {
		t.Fatalf("unknown payment status should be rejected, got %v", err)
	}
	if _, err := svc.UpdatePaymentStatus(ctx, order.ID, constants.PaymentStatusCompleted, "VCB-889900"); err != nil {
		t.Fatalf("update payment failed: %v", err)
	}
	stored, _ := svc.GetOrderForAdmin(ctx, order.ID)
	if stored.Payment.Status != constants.PaymentStatusCompleted || stored.Payment.PaidAt == nil || stored.Payment.TransactionID != "VCB-889900" {
		t.Fatalf("payment fields not persisted: %+v", stored.Payment)
	}
	if stored.Status != constants.OrderStatusPending {
		t.Fatalf("payment update must not change order status")
	}
}

func TestListOrdersForAdminFilters(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	first := createTestOrder(t, svc, nil)
	second := createTestOrder(t, svc, nil)
	third := createTestOrder(t, svc, nil)
	if _, err := svc.UpdateOrderStatus(ctx, second.ID, constants.OrderStatusProcessing, ""); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	all, total, err := svc.ListOrdersForAdmin(ctx, AdminOrderFilter{})
	if err != nil || total != 3 || len(all) != 3 {
		t.Fatalf("list all mismatch: total=%d err=%v", total, err)
	}

	processing, total, _ := svc.ListOrdersForAdmin(ctx, AdminOrderFilter{Status: "processing"})
	if total != 1 || processing[0].ID != second.ID {
		t.Fatalf("status filter mismatch: %+v", processing)
	}

	byCode, total, _ := svc.ListOrdersForAdmin(ctx, AdminOrderFilter{Search: third.OrderCode[len(third.OrderCode)-6:]})
	if total < 1 || byCode[0].OrderCode != third.OrderCode {
		t.Fatalf("search by code mismatch: %+v", byCode)
	}
	byPhone, total, _ := svc.ListOrdersForAdmin(ctx, AdminOrderFilter{Search: "0901234567"})
	if total != 3 || len(byPhone) != 3 {
		t.Fatalf("search by phone should match all orders, got %d", total)
	}

	future := time.Now().Add(time.Hour)
	none, total, _ := svc.ListOrdersForAdmin(ctx, AdminOrderFilter{CreatedFrom: &future})
	if total != 0 || len(none) != 0 {
		t.Fatalf("date filter should exclude everything")
	}

	page, total, _ := svc.ListOrdersForAdmin(ctx, AdminOrderFilter{Page: 2, PageSize: 2})
	if total != 3 || len(page) != 1 {
		t.Fatalf("second page should have one order, got %d", len(page))
	}
	_ = first
}

func TestListOrdersByUserAndCounts(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	ctx := context.Background()
	owner := "user-42"
	createTestOrder(t, svc, &owner)
	createTestOrder(t, svc, &owner)
	createTestOrder(t, svc, nil)

	orders, total, err := svc.ListOrdersByUser(ctx, owner, "", 1, 10)
	if err != nil || total != 2 || len(orders) != 2 {
		t.Fatalf("my orders mismatch: total=%d err=%v", total, err)
	}

	counts, err := svc.CountOrdersByStatus(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if counts[constants.OrderStatusPending] != 3 || counts[constants.OrderStatusCompleted] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	fee, total2 := svc.QuoteShipping(ctx, models.NewMoney(150000))
	if fee.Int64() != 30000 || total2.Int64() != 180000 {
		t.Fatalf("quote mismatch: %d %d", fee.Int64(), total2.Int64())
	}
}
