package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"

	"github.com/google/uuid"
)

// Manager 单个购物车会话的状态容器。
// 内存状态是权威数据，持久化失败只记录日志。
type Manager struct {
	mu       sync.Mutex
	storage  Storage
	notifier Notifier
	id       string
	items    []Item
	closed   bool
}

// Option 构造选项
type Option func(*Manager)

// WithNotifier 设置通知接收者
func WithNotifier(notifier Notifier) Option {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithSessionID 存储中没有会话ID时使用给定值
func WithSessionID(id string) Option {
	return func(m *Manager) {
		m.id = id
	}
}

// New 创建购物车并加载已持久化的状态
func New(ctx context.Context, storage Storage, opts ...Option) *Manager {
	m := &Manager{
		storage:  storage,
		notifier: logNotifier{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.loadSessionID(ctx)
	m.loadItems(ctx)
	return m
}

func (m *Manager) loadSessionID(ctx context.Context) {
	if m.storage != nil {
		stored, ok, err := m.storage.Get(ctx, constants.CartIDStorageKey)
		if err != nil {
			logger.Warnw("cart_session_id_load_failed", "error", err)
		}
		if ok && stored != "" {
			m.id = stored
			return
		}
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	if m.storage == nil {
		return
	}
	if err := m.storage.Set(ctx, constants.CartIDStorageKey, m.id); err != nil {
		logger.Warnw("cart_session_id_persist_failed", "cart_id", m.id, "error", err)
	}
}

func (m *Manager) loadItems(ctx context.Context) {
	if m.storage == nil {
		return
	}
	raw, ok, err := m.storage.Get(ctx, constants.CartItemsStorageKey)
	if err != nil {
		logger.Warnw("cart_items_load_failed", "cart_id", m.id, "error", err)
		return
	}
	if !ok || raw == "" {
		return
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warnw("cart_items_decode_failed", "cart_id", m.id, "error", err)
		return
	}
	m.items = make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		m.items = append(m.items, item)
	}
}

// ID 会话ID
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// AddItem 加入购物车，同一行标识累加数量，否则按插入顺序追加
func (m *Manager) AddItem(ctx context.Context, product Product, quantity int, size string) {
	if quantity <= 0 {
		quantity = 1
	}
	size = normalizeSize(size)
	id := ItemID(product.ID, size)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		logger.Debugw("cart_mutation_after_close", "op", "add", "item_id", id)
		return
	}
	total := quantity
	found := false
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Quantity += quantity
			total = m.items[i].Quantity
			found = true
			break
		}
	}
	if !found {
		m.items = append(m.items, Item{
			ID:        id,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.PriceForSize(size),
			Quantity:  quantity,
			Image:     product.Image,
			Size:      size,
			Product: ProductRef{
				ID:    product.ID,
				Slug:  product.Slug,
				Price: product.Price,
			},
		})
	}
	m.persistLocked(ctx)
	notifier := m.notifier
	m.mu.Unlock()

	notifier.Notify(Event{Type: EventItemAdded, ItemID: id, Name: product.Name, Quantity: total})
}

// RemoveItem 删除行，不存在时不做任何事
func (m *Manager) RemoveItem(ctx context.Context, productID, size string) {
	id := ItemID(productID, size)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	removed, ok := m.removeLocked(id)
	if ok {
		m.persistLocked(ctx)
	}
	notifier := m.notifier
	m.mu.Unlock()

	if ok {
		notifier.Notify(Event{Type: EventItemRemoved, ItemID: id, Name: removed.Name})
	}
}

// UpdateQuantity 修改数量，newQuantity <= 0 等同删除
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, newQuantity int, size string) {
	if newQuantity <= 0 {
		m.RemoveItem(ctx, productID, size)
		return
	}
	id := ItemID(productID, size)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Quantity = newQuantity
			m.persistLocked(ctx)
			return
		}
	}
}

// ClearCart 清空购物车并删除持久化的行数据，可重复调用
func (m *Manager) ClearCart(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	hadItems := len(m.items) > 0
	m.items = nil
	if m.storage != nil {
		if err := m.storage.Remove(ctx, constants.CartItemsStorageKey); err != nil {
			logger.Warnw("cart_items_clear_failed", "cart_id", m.id, "error", err)
		}
	}
	notifier := m.notifier
	m.mu.Unlock()

	if hadItems {
		notifier.Notify(Event{Type: EventCleared})
	}
}

// Items 返回当前行的副本
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyItemsLocked()
}

// Item 按行标识查找
func (m *Manager) Item(productID, size string) (Item, bool) {
	id := ItemID(productID, size)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// ItemCount 数量合计，每次读取时重新计算
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemCountLocked()
}

// Subtotal 金额小计，每次读取时重新计算
func (m *Manager) Subtotal() models.Money {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subtotalLocked()
}

// Snapshot 一次性读取行与合计，保证三者一致
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		ID:        m.id,
		Items:     m.copyItemsLocked(),
		ItemCount: m.itemCountLocked(),
		Subtotal:  m.subtotalLocked(),
	}
}

// Close 结束会话，之后的修改被忽略
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.storage = nil
	m.notifier = logNotifier{}
	return nil
}

func (m *Manager) removeLocked(id string) (Item, bool) {
	for i := range m.items {
		if m.items[i].ID == id {
			removed := m.items[i]
			m.items = append(m.items[:i], m.items[i+1:]...)
			return removed, true
		}
	}
	return Item{}, false
}

func (m *Manager) copyItemsLocked() []Item {
	items := make([]Item, len(m.items))
	copy(items, m.items)
	return items
}

func (m *Manager) itemCountLocked() int {
	total := 0
	for _, item := range m.items {
		total += item.Quantity
	}
	return total
}

func (m *Manager) subtotalLocked() models.Money {
	subtotal := models.NewMoney(0)
	for _, item := range m.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// persistLocked 序列化全部行写入存储，失败只记录日志
func (m *Manager) persistLocked(ctx context.Context) {
	if m.storage == nil {
		return
	}
	items := m.items
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		logger.Warnw("cart_items_encode_failed", "cart_id", m.id, "error", err)
		return
	}
	if err := m.storage.Set(ctx, constants.CartItemsStorageKey, string(payload)); err != nil {
		logger.Warnw("cart_items_persist_failed", "cart_id", m.id, "error", err)
	}
}
