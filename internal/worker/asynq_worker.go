package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/i18n"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/provider"
	"github.com/bnt-kitchen/internal/queue"
	"github.com/bnt-kitchen/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify)
	mux.HandleFunc(queue.TaskMediaSyncCloudinary, c.handleMediaSyncCloudinary)
}

// OrderStatusNotice 渲染好的订单状态通知
type OrderStatusNotice struct {
	OrderID   string
	OrderCode string
	Phone     string
	Email     string
	Locale    string
	Message   string
}

func (c *Consumer) handleOrderStatusNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderStatusNotifyPayload(task)
	if err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload", "order_code", payload.OrderCode)
		return nil
	}
	order, err := c.OrderRepo.GetByID(ctx, payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_notify_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_notify_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	// 状态已被后续操作覆盖时不再发送过期通知
	if payload.ToStatus != "" && order.Status != payload.ToStatus {
		logger.Debugw("worker_order_status_notify_skip_stale",
			"order_id", order.ID,
			"payload_status", payload.ToStatus,
			"current_status", order.Status,
		)
		return nil
	}

	locale := i18n.DefaultLocale
	if order.UserID != nil && *order.UserID != "" && c.UserRepo != nil {
		user, err := c.UserRepo.GetByID(ctx, *order.UserID)
		if err != nil {
			logger.Warnw("worker_order_status_notify_fetch_user_failed", "order_id", order.ID, "user_id", *order.UserID, "error", err)
			return err
		}
		if user != nil && strings.TrimSpace(user.Locale) != "" {
			locale = user.Locale
		}
	}

	notice := BuildOrderStatusNotice(order, payload, locale)
	if notice.Phone == "" && notice.Email == "" {
		logger.Debugw("worker_order_status_notify_skip_empty_receiver", "order_id", order.ID, "order_code", order.OrderCode)
		return nil
	}
	logger.Infow("order_status_notice",
		"order_id", notice.OrderID,
		"order_code", notice.OrderCode,
		"phone", notice.Phone,
		"email", notice.Email,
		"locale", notice.Locale,
		"from_status", payload.FromStatus,
		"to_status", order.Status,
		"message", notice.Message,
	)
	return c.sendOrderStatusEmail(order, notice)
}

// sendOrderStatusEmail 邮件已配置且顾客留了邮箱时发送；收件人无效不重试
func (c *Consumer) sendOrderStatusEmail(order *models.Order, notice OrderStatusNotice) error {
	if notice.Email == "" || !c.EmailService.Enabled() {
		return nil
	}
	err := c.EmailService.SendOrderStatusEmail(notice.Email, service.OrderStatusEmailInput{
		OrderCode: notice.OrderCode,
		Message:   notice.Message,
		Total:     order.Total,
		IsGuest:   order.UserID == nil || *order.UserID == "",
	}, notice.Locale)
	switch {
	case err == nil:
		logger.Infow("order_status_email_sent", "order_id", notice.OrderID, "email", notice.Email)
		return nil
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmailRecipientRejected):
		logger.Warnw("order_status_email_rejected", "order_id", notice.OrderID, "email", notice.Email, "error", err)
		return nil
	default:
		logger.Warnw("order_status_email_failed", "order_id", notice.OrderID, "email", notice.Email, "error", err)
		return err
	}
}

// BuildOrderStatusNotice 按顾客语言渲染状态变更文案，取消时附带原因
func BuildOrderStatusNotice(order *models.Order, payload queue.OrderStatusNotifyPayload, locale string) OrderStatusNotice {
	if order == nil {
		return OrderStatusNotice{}
	}
	locale = i18n.NormalizeLocale(locale)
	status := order.Status
	if status == "" {
		status = payload.ToStatus
	}
	label := i18n.T(locale, "order.status."+status)
	message := i18n.Sprintf(locale, "notify.order_status", order.OrderCode, label)
	if status == constants.OrderStatusCancelled {
		reason := strings.TrimSpace(order.CancellationReason)
		if reason == "" {
			reason = strings.TrimSpace(payload.Reason)
		}
		if reason != "" {
			message = message + " " + i18n.Sprintf(locale, "notify.order_cancel_reason", reason)
		}
	}
	return OrderStatusNotice{
		OrderID:   order.ID,
		OrderCode: order.OrderCode,
		Phone:     strings.TrimSpace(order.Customer.Phone),
		Email:     strings.TrimSpace(order.Customer.Email),
		Locale:    locale,
		Message:   message,
	}
}

func (c *Consumer) handleMediaSyncCloudinary(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_media_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseMediaSyncCloudinaryPayload(task)
	if err != nil {
		logger.Warnw("worker_media_sync_unmarshal_failed", "error", err)
		return err
	}
	if c.MediaService == nil {
		logger.Warnw("worker_media_sync_skip_media_service_nil", "trigger", payload.Trigger)
		return nil
	}
	imported, err := c.MediaService.SyncCloudinary(ctx, payload.Folder)
	if err != nil {
		if errors.Is(err, service.ErrMediaBackendUnavailable) {
			logger.Debugw("worker_media_sync_skip_disabled", "trigger", payload.Trigger)
			return nil
		}
		logger.Warnw("worker_media_sync_failed", "folder", payload.Folder, "trigger", payload.Trigger, "error", err)
		return err
	}
	logger.Infow("worker_media_sync_done", "folder", payload.Folder, "trigger", payload.Trigger, "imported", len(imported))
	return nil
}
