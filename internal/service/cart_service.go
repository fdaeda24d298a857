package service

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/cart"
	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const (
	cartStorageMemory = "memory"
	cartStorageFile   = "file"
	cartStorageRedis  = "redis"

	defaultCartTTL = 7 * 24 * time.Hour
	maxCartLineQty = 99

	// 会话锁按 cart ID 哈希分段，数量固定，不随会话增长
	cartLockStripes = 64
	// 内存模式过期会话的清理间隔上限
	cartSweepInterval = time.Minute
)

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// CartLineInput 客户端提交的购物车行
type CartLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

// CartView 购物车响应，Events 为本次操作产生的提示
type CartView struct {
	cart.Snapshot
	Events []cart.Event `json:"events"`
}

// CartService 服务端购物车会话，会话ID由 X-Cart-ID 传递
type CartService struct {
	products *ProductService
	mode     string
	fileDir  string
	ttl      time.Duration

	locks [cartLockStripes]sync.Mutex

	mu        sync.Mutex
	memories  map[string]*memorySession
	lastSweep time.Time
	now       func() time.Time
}

// memorySession 内存模式下的会话存储，超过 ttl 未访问即被清理
type memorySession struct {
	storage  *cart.MemoryStorage
	lastSeen time.Time
}

// NewCartService 创建购物车服务，redis 未启用时退回内存存储
func NewCartService(products *ProductService, cfg config.CartConfig) *CartService {
	mode := strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch mode {
	case cartStorageFile, cartStorageRedis:
	default:
		mode = cartStorageMemory
	}
	if mode == cartStorageRedis && !cache.Enabled() {
		logger.Warnw("cart_storage_fallback", "from", cartStorageRedis, "to", cartStorageMemory)
		mode = cartStorageMemory
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &CartService{
		products: products,
		mode:     mode,
		fileDir:  strings.TrimSpace(cfg.FileDir),
		ttl:      ttl,
		memories: make(map[string]*memorySession),
		now:      time.Now,
	}
}

// Mode 当前存储模式
func (s *CartService) Mode() string {
	return s.mode
}

// Get 读取购物车，cartID 为空时分配新会话
func (s *CartService) Get(ctx context.Context, cartID string) (*CartView, error) {
	return s.withSession(ctx, cartID, func(*cart.Manager) error { return nil })
}

// AddItem 按目录价加入菜品
func (s *CartService) AddItem(ctx context.Context, cartID string, line CartLineInput) (*CartView, error) {
	if line.Quantity < 1 || line.Quantity > maxCartLineQty {
		return nil, ErrInvalidOrderItem
	}
	product, err := s.resolveProduct(ctx, line.ProductID, line.Size)
	if err != nil {
		return nil, err
	}
	return s.withSession(ctx, cartID, func(m *cart.Manager) error {
		if existing, ok := m.Item(product.ID, line.Size); ok && existing.Quantity+line.Quantity > maxCartLineQty {
			return ErrInvalidOrderItem
		}
		m.AddItem(ctx, *product, line.Quantity, line.Size)
		return nil
	})
}

// UpdateQuantity 修改数量，<=0 删除该行
func (s *CartService) UpdateQuantity(ctx context.Context, cartID string, line CartLineInput) (*CartView, error) {
	if line.Quantity > maxCartLineQty {
		return nil, ErrInvalidOrderItem
	}
	return s.withSession(ctx, cartID, func(m *cart.Manager) error {
		m.UpdateQuantity(ctx, strings.TrimSpace(line.ProductID), line.Quantity, line.Size)
		return nil
	})
}

// RemoveItem 删除一行
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID, size string) (*CartView, error) {
	return s.withSession(ctx, cartID, func(m *cart.Manager) error {
		m.RemoveItem(ctx, strings.TrimSpace(productID), size)
		return nil
	})
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, cartID string) (*CartView, error) {
	return s.withSession(ctx, cartID, func(m *cart.Manager) error {
		m.ClearCart(ctx)
		return nil
	})
}

// Checkout 在会话锁内按当前目录重新定价并调用 place 下单，成功后清空购物车。
// 下单与清空之间同一会话的其他修改会等待锁，不会被清空吞掉。
func (s *CartService) Checkout(ctx context.Context, cartID string, place func([]cart.Item) error) error {
	if strings.TrimSpace(cartID) == "" {
		return ErrCartEmpty
	}
	_, err := s.withSession(ctx, cartID, func(m *cart.Manager) error {
		current := m.Items()
		if len(current) == 0 {
			return ErrCartEmpty
		}
		lines := make([]CartLineInput, 0, len(current))
		for _, item := range current {
			lines = append(lines, CartLineInput{ProductID: item.ProductID, Quantity: item.Quantity, Size: item.Size})
		}
		items, err := s.PriceItems(ctx, lines)
		if err != nil {
			return err
		}
		if err := place(items); err != nil {
			return err
		}
		m.ClearCart(ctx)
		return nil
	})
	return err
}

// PriceItems 按目录价重新计算客户端提交的行，客户端价格一律忽略
func (s *CartService) PriceItems(ctx context.Context, lines []CartLineInput) ([]cart.Item, error) {
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	storage := cart.NewMemoryStorage()
	m := cart.New(ctx, storage)
	defer m.Close()
	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > maxCartLineQty {
			return nil, ErrInvalidOrderItem
		}
		product, err := s.resolveProduct(ctx, line.ProductID, line.Size)
		if err != nil {
			return nil, err
		}
		m.AddItem(ctx, *product, line.Quantity, line.Size)
	}
	// 同一菜品同规格的多行会合并，上限按合并后的数量检查
	items := m.Items()
	for _, item := range items {
		if item.Quantity > maxCartLineQty {
			return nil, ErrInvalidOrderItem
		}
	}
	return items, nil
}

func (s *CartService) resolveProduct(ctx context.Context, rawID, size string) (*cart.Product, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id == 0 {
		return nil, ErrCartProductUnavailable
	}
	product, err := s.products.GetActiveByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrCartProductUnavailable
		}
		return nil, err
	}
	if strings.TrimSpace(size) != "" {
		if _, ok := product.Sizes.Find(size); !ok {
			return nil, ErrCartSizeInvalid
		}
	}
	cp := toCartProduct(product)
	return &cp, nil
}

// withSession 在会话锁内加载、修改并持久化购物车
func (s *CartService) withSession(ctx context.Context, cartID string, fn func(*cart.Manager) error) (*CartView, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		cartID = uuid.NewString()
	} else if !cartIDPattern.MatchString(cartID) {
		return nil, ErrCartSessionInvalid
	}

	lock := s.sessionLock(cartID)
	lock.Lock()
	defer lock.Unlock()

	storage, err := s.storageFor(cartID)
	if err != nil {
		return nil, err
	}
	recorder := &cart.Recorder{}
	m := cart.New(ctx, storage, cart.WithSessionID(cartID), cart.WithNotifier(recorder))
	defer m.Close()

	if err := fn(m); err != nil {
		return nil, err
	}
	events := recorder.Events
	if events == nil {
		events = []cart.Event{}
	}
	return &CartView{Snapshot: m.Snapshot(), Events: events}, nil
}

func (s *CartService) sessionLock(cartID string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(cartID)%cartLockStripes]
}

func (s *CartService) storageFor(cartID string) (cart.Storage, error) {
	switch s.mode {
	case cartStorageRedis:
		return cart.NewRedisStorage(cache.Client(), cart.SessionNamespace(cache.Prefix(), cartID), s.ttl), nil
	case cartStorageFile:
		return cart.NewFileStorage(filepath.Join(s.fileDir, cartID))
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		now := s.now()
		s.sweepMemoriesLocked(now)
		session, ok := s.memories[cartID]
		if !ok {
			session = &memorySession{storage: cart.NewMemoryStorage()}
			s.memories[cartID] = session
		}
		session.lastSeen = now
		return session.storage, nil
	}
}

// sweepMemoriesLocked 清理超过 ttl 未访问的内存会话，调用方持有 s.mu
func (s *CartService) sweepMemoriesLocked(now time.Time) {
	interval := cartSweepInterval
	if s.ttl < interval {
		interval = s.ttl
	}
	if now.Sub(s.lastSweep) < interval {
		return
	}
	s.lastSweep = now
	for id, session := range s.memories {
		if now.Sub(session.lastSeen) > s.ttl {
			delete(s.memories, id)
		}
	}
}

// toCartProduct 菜品转换为购物车快照，名称取越南语
func toCartProduct(product *models.Product) cart.Product {
	deltas := make(map[string]models.Money, len(product.Sizes))
	for _, option := range product.Sizes {
		deltas[strings.ToUpper(option.Size)] = option.PriceDelta
	}
	return cart.Product{
		ID:         strconv.FormatUint(uint64(product.ID), 10),
		Slug:       product.Slug,
		Name:       product.NameJSON.Localized(constants.LocaleViVN),
		Price:      product.PriceAmount,
		Image:      product.Image,
		SizeDeltas: deltas,
	}
}
