package cart

import "github.com/bnt-kitchen/internal/logger"

// EventType 购物车通知类型
type EventType string

const (
	EventItemAdded   EventType = "item_added"
	EventItemRemoved EventType = "item_removed"
	EventCleared     EventType = "cart_cleared"
)

// Event 面向用户的购物车通知
type Event struct {
	Type     EventType `json:"type"`
	ItemID   string    `json:"item_id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
}

// Notifier 接收购物车通知
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc 函数适配器
type NotifierFunc func(event Event)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(event Event) {
	f(event)
}

// Recorder 记录通知，供一次请求结束后返回给前端
type Recorder struct {
	Events []Event
}

// Notify 实现 Notifier
func (r *Recorder) Notify(event Event) {
	r.Events = append(r.Events, event)
}

type logNotifier struct{}

func (logNotifier) Notify(event Event) {
	logger.Debugw("cart_event", "type", event.Type, "item_id", event.ItemID, "quantity", event.Quantity)
}
