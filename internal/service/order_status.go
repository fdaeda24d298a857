package service

import (
	"fmt"
	"strings"

	"github.com/bnt-kitchen/internal/constants"
)

// orderTransitions 允许的状态流转，终态不出现在键中
var orderTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipping, constants.OrderStatusCancelled},
	constants.OrderStatusShipping:   {constants.OrderStatusCompleted, constants.OrderStatusCancelled},
}

// TransitionError 非法状态流转
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order status cannot change from %q to %q", e.From, e.To)
}

// Is 与 ErrOrderStatusInvalid 等价
func (e *TransitionError) Is(target error) bool {
	return target == ErrOrderStatusInvalid
}

func allOrderStatusValues() []string {
	return []string{
		constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipping,
		constants.OrderStatusCompleted,
		constants.OrderStatusCancelled,
	}
}

// IsValidOrderStatus 是否为已知订单状态
func IsValidOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipping,
		constants.OrderStatusCompleted,
		constants.OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus 终态不再接受任何流转
func IsTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusCompleted || status == constants.OrderStatusCancelled
}

// NextOrderStatuses 当前状态可流转到的状态
func NextOrderStatuses(from string) []string {
	next := orderTransitions[from]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// CanTransitionOrder 校验状态流转，同状态写入视为非法
func CanTransitionOrder(from, to string) error {
	from = normalizeOrderStatus(from)
	to = normalizeOrderStatus(to)
	if !IsValidOrderStatus(to) {
		return &TransitionError{From: from, To: to}
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// BadgeTone 状态徽标色调
type BadgeTone string

const (
	BadgeToneWarning     BadgeTone = "warning"
	BadgeToneInfo        BadgeTone = "info"
	BadgeTonePrimary     BadgeTone = "primary"
	BadgeToneSuccess     BadgeTone = "success"
	BadgeToneDestructive BadgeTone = "destructive"
	BadgeToneMuted       BadgeTone = "muted"
)

// StatusBadge 后台订单状态徽标
type StatusBadge struct {
	Status   string    `json:"status"`
	LabelKey string    `json:"label_key"`
	Tone     BadgeTone `json:"tone"`
	Terminal bool      `json:"terminal"`
	Next     []string  `json:"next"`
}

var orderBadgeTones = map[string]BadgeTone{
	constants.OrderStatusPending:    BadgeToneWarning,
	constants.OrderStatusProcessing: BadgeToneInfo,
	constants.OrderStatusShipping:   BadgeTonePrimary,
	constants.OrderStatusCompleted:  BadgeToneSuccess,
	constants.OrderStatusCancelled:  BadgeToneDestructive,
}

// OrderStatusBadge 构建状态徽标，未知状态使用 muted
func OrderStatusBadge(status string) StatusBadge {
	status = normalizeOrderStatus(status)
	tone, ok := orderBadgeTones[status]
	if !ok {
		tone = BadgeToneMuted
	}
	return StatusBadge{
		Status:   status,
		LabelKey: "order.status." + status,
		Tone:     tone,
		Terminal: IsTerminalOrderStatus(status),
		Next:     NextOrderStatuses(status),
	}
}
