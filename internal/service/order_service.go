package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/cart"
	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/metrics"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/queue"
	"github.com/bnt-kitchen/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	orderCodeRandomLength = 6
	orderCodeCharset      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderCodeMaxAttempts  = 3
	defaultListFetchLimit = 500
)

var phonePattern = regexp.MustCompile(`^(\+84|84|0)[0-9]{9,10}$`)

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	settingService *SettingService
	shopDefault    ShopSetting
	queueClient    *queue.Client
	metrics        *metrics.Metrics
	codePrefix     string
	listFetchLimit int
	now            func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, settingService *SettingService, queueClient *queue.Client, m *metrics.Metrics, cfg config.OrderConfig) *OrderService {
	prefix := strings.ToUpper(strings.TrimSpace(cfg.CodePrefix))
	if prefix == "" {
		prefix = "BNT"
	}
	limit := cfg.ListFetchLimit
	if limit <= 0 {
		limit = defaultListFetchLimit
	}
	return &OrderService{
		orderRepo:      orderRepo,
		settingService: settingService,
		shopDefault:    DefaultShopSetting(cfg),
		queueClient:    queueClient,
		metrics:        m,
		codePrefix:     prefix,
		listFetchLimit: limit,
		now:            time.Now,
	}
}

// CreateOrderInput 创建订单输入，Items 为购物车快照
type CreateOrderInput struct {
	UserID        *string
	Items         []cart.Item
	Customer      models.CustomerInfo
	PaymentMethod string
	ShippingFee   *models.Money
	ClientIP      string
}

// CreateOrder 根据购物车快照创建待处理订单，清空购物车由调用方在成功后完成
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	items, subtotal, err := buildOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	customer, err := normalizeCustomerInfo(input.Customer)
	if err != nil {
		return nil, err
	}
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if !isKnownPaymentMethod(method) {
		return nil, ErrPaymentMethodInvalid
	}

	shop := s.shopSetting(ctx)
	if !shop.PaymentMethodEnabled(method) {
		return nil, ErrPaymentMethodDisabled
	}
	fee := shop.ShippingFeeFor(subtotal)
	if input.ShippingFee != nil {
		if input.ShippingFee.IsNegative() {
			return nil, ErrShippingFeeInvalid
		}
		fee = models.NewMoneyFromDecimal(input.ShippingFee.Decimal)
	}

	var userID *string
	if input.UserID != nil && strings.TrimSpace(*input.UserID) != "" {
		trimmed := strings.TrimSpace(*input.UserID)
		userID = &trimmed
	}

	now := s.now()
	order := &models.Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		Items:    items,
		Subtotal: subtotal,
		Total:    subtotal.Add(fee),
		Status:   constants.OrderStatusPending,
		Customer: customer,
		Payment: models.PaymentInfo{
			Method: method,
			Status: constants.PaymentStatusPending,
		},
		Shipping:  models.ShippingInfo{Fee: fee},
		ClientIP:  strings.TrimSpace(input.ClientIP),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		code, err := generateOrderCode(s.codePrefix, now)
		if err != nil {
			return nil, err
		}
		order.OrderCode = code
		err = s.orderRepo.Create(ctx, order)
		if err == nil {
			break
		}
		if attempt < orderCodeMaxAttempts && isUniqueViolation(err) {
			logger.Warnw("order_code_collision", "order_code", code, "attempt", attempt)
			continue
		}
		return nil, wrapStoreError("orders.create", err)
	}

	s.metrics.OrderCreated(method)
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"total", order.Total.Int64(),
		"payment_method", method,
		"guest", order.UserID == nil,
	)
	return order, nil
}

// GetOrder 获取订单；会员订单只有本人可以查看
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, wrapStoreError("orders.get", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != nil && *order.UserID != requesterID {
		return nil, ErrOrderForbidden
	}
	return order, nil
}

// GetOrderForAdmin 后台获取订单，不做归属校验
func (s *OrderService) GetOrderForAdmin(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, wrapStoreError("orders.get", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus 校验流转并在一个条件更新中写入状态与时间戳
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, newStatus, reason string) (*models.Order, error) {
	newStatus = normalizeOrderStatus(newStatus)
	reason = strings.TrimSpace(reason)

	var (
		updated    *models.Order
		fromStatus string
	)
	err := s.orderRepo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByID(ctx, id)
		if err != nil {
			return wrapStoreError("orders.get", err)
		}
		if order == nil {
			return ErrOrderNotFound
		}
		fromStatus = order.Status
		if err := CanTransitionOrder(order.Status, newStatus); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":     newStatus,
			"updated_at": now,
		}
		switch newStatus {
		case constants.OrderStatusShipping:
			updates["shipping_shipped_at"] = now
			order.Shipping.ShippedAt = &now
		case constants.OrderStatusCompleted:
			updates["shipping_delivered_at"] = now
			order.Shipping.DeliveredAt = &now
		case constants.OrderStatusCancelled:
			updates["cancellation_reason"] = reason
			order.CancellationReason = reason
		}

		affected, err := repo.UpdateStatusIfCurrent(ctx, order.ID, order.Status, updates)
		if err != nil {
			return wrapStoreError("orders.update_status", err)
		}
		if affected == 0 {
			return ErrOrderConflict
		}
		order.Status = newStatus
		order.UpdatedAt = now
		updated = order
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderStatusInvalid):
			s.metrics.OrderStatusRejected("invalid_transition")
		case errors.Is(err, ErrOrderConflict):
			s.metrics.OrderStatusRejected("conflict")
		}
		return nil, err
	}

	s.metrics.OrderStatusChanged(fromStatus, newStatus)
	logger.Infow("order_status_changed",
		"order_id", updated.ID,
		"order_code", updated.OrderCode,
		"from", fromStatus,
		"to", newStatus,
	)
	s.enqueueStatusNotify(updated, fromStatus, reason)
	return updated, nil
}

// UpdatePaymentStatus 更新支付状态，与订单状态相互独立
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id, status, transactionID string) (*models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case constants.PaymentStatusPending, constants.PaymentStatusCompleted, constants.PaymentStatusFailed:
	default:
		return nil, ErrPaymentStatusInvalid
	}

	order, err := s.GetOrderForAdmin(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"payment_status": status,
		"updated_at":     now,
	}
	order.Payment.Status = status
	if status == constants.PaymentStatusCompleted {
		updates["payment_paid_at"] = now
		order.Payment.PaidAt = &now
	}
	if trimmed := strings.TrimSpace(transactionID); trimmed != "" {
		updates["payment_transaction_id"] = trimmed
		order.Payment.TransactionID = trimmed
	}
	if _, err := s.orderRepo.UpdateFields(ctx, order.ID, updates); err != nil {
		return nil, wrapStoreError("orders.update_payment", err)
	}
	order.UpdatedAt = now
	logger.Infow("order_payment_status_changed", "order_id", order.ID, "payment_status", status)
	return order, nil
}

// shopSetting 读取店铺设置，失败时使用配置默认值
func (s *OrderService) shopSetting(ctx context.Context) ShopSetting {
	if s.settingService == nil {
		return s.shopDefault
	}
	shop, err := s.settingService.GetShopSetting(ctx)
	if err != nil {
		logger.Warnw("order_shop_setting_fallback", "error", err)
	}
	return shop
}

func (s *OrderService) enqueueStatusNotify(order *models.Order, fromStatus, reason string) {
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		FromStatus: fromStatus,
		ToStatus:   order.Status,
		Reason:     reason,
		ChangedAt:  order.UpdatedAt,
	})
	if err != nil {
		logger.Warnw("order_status_notify_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

// buildOrderItems 校验购物车行并计算小计
func buildOrderItems(lines []cart.Item) (models.OrderItems, models.Money, error) {
	if len(lines) == 0 {
		return nil, models.Money{}, fmt.Errorf("%w: %v", ErrInvalidOrderItem, ErrCartEmpty)
	}
	items := make(models.OrderItems, 0, len(lines))
	subtotal := models.NewMoney(0)
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" || strings.TrimSpace(line.Name) == "" {
			return nil, models.Money{}, fmt.Errorf("%w: missing product", ErrInvalidOrderItem)
		}
		if line.Quantity < 1 {
			return nil, models.Money{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrderItem)
		}
		if line.Price.IsNegative() {
			return nil, models.Money{}, fmt.Errorf("%w: negative price", ErrInvalidOrderItem)
		}
		id := line.ID
		if id == "" {
			id = cart.ItemID(line.ProductID, line.Size)
		}
		item := models.OrderItem{
			ID:        id,
			ProductID: line.ProductID,
			Name:      strings.TrimSpace(line.Name),
			Price:     models.NewMoneyFromDecimal(line.Price.Decimal),
			Quantity:  line.Quantity,
			Image:     line.Image,
			Size:      line.Size,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}
	return items, subtotal, nil
}

// normalizeCustomerInfo 姓名、电话、地址必填，邮箱可选
func normalizeCustomerInfo(info models.CustomerInfo) (models.CustomerInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Address = strings.TrimSpace(info.Address)
	info.District = strings.TrimSpace(info.District)
	info.City = strings.TrimSpace(info.City)
	info.Note = strings.TrimSpace(info.Note)
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))
	info.Phone = normalizePhone(info.Phone)

	switch {
	case info.Name == "":
		return info, fmt.Errorf("%w: name", ErrCustomerInfoInvalid)
	case !phonePattern.MatchString(info.Phone):
		return info, fmt.Errorf("%w: phone", ErrCustomerInfoInvalid)
	case info.Address == "":
		return info, fmt.Errorf("%w: address", ErrCustomerInfoInvalid)
	}
	if info.Email != "" {
		if _, err := mail.ParseAddress(info.Email); err != nil {
			return info, fmt.Errorf("%w: email", ErrCustomerInfoInvalid)
		}
	}
	return info, nil
}

func normalizePhone(raw string) string {
	replacer := strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(raw))
}

// generateOrderCode 前缀 + yyMMdd + "-" + 6 位大写字母数字
func generateOrderCode(prefix string, now time.Time) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + 13)
	b.WriteString(prefix)
	b.WriteString(now.Format("060102"))
	b.WriteByte('-')
	limit := big.NewInt(int64(len(orderCodeCharset)))
	for i := 0; i < orderCodeRandomLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(orderCodeCharset[n.Int64()])
	}
	return b.String(), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
