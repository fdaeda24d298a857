package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnt-kitchen/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态变更通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskMediaSyncCloudinary Cloudinary 媒体同步任务
	TaskMediaSyncCloudinary = constants.TaskMediaSyncCloudinary
)

// OrderStatusNotifyPayload 订单状态通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID    string    `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// MediaSyncCloudinaryPayload 媒体同步任务载荷
type MediaSyncCloudinaryPayload struct {
	Folder  string `json:"folder,omitempty"`
	Trigger string `json:"trigger,omitempty"`
}

// NewOrderStatusNotifyTask 创建订单状态通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusNotify, body), nil
}

// NewMediaSyncCloudinaryTask 创建媒体同步任务
func NewMediaSyncCloudinaryTask(payload MediaSyncCloudinaryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMediaSyncCloudinary, body), nil
}

// ParseOrderStatusNotifyPayload 解析订单状态通知载荷
func ParseOrderStatusNotifyPayload(task *asynq.Task) (OrderStatusNotifyPayload, error) {
	var payload OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return payload, nil
}

// ParseMediaSyncCloudinaryPayload 解析媒体同步载荷
func ParseMediaSyncCloudinaryPayload(task *asynq.Task) (MediaSyncCloudinaryPayload, error) {
	var payload MediaSyncCloudinaryPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return payload, nil
}
