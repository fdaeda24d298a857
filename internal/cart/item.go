package cart

import (
	"strings"

	"github.com/bnt-kitchen/internal/models"
)

// idSeparator 商品ID与规格之间的分隔符
const idSeparator = "__"

// Product 加入购物车时的菜品快照
type Product struct {
	ID         string                  `json:"id"`
	Slug       string                  `json:"slug"`
	Name       string                  `json:"name"`
	Price      models.Money            `json:"price"`
	Image      string                  `json:"image"`
	SizeDeltas map[string]models.Money `json:"size_deltas,omitempty"`
}

// PriceForSize 规格调整后的单价，未配置的规格按基础价；SizeDeltas 的键为大写规格
func (p Product) PriceForSize(size string) models.Money {
	size = normalizeSize(size)
	if size == "" {
		return p.Price
	}
	if delta, ok := p.SizeDeltas[size]; ok {
		return p.Price.Add(delta)
	}
	return p.Price
}

// ProductRef 购物车行指向的原始菜品
type ProductRef struct {
	ID    string       `json:"id"`
	Slug  string       `json:"slug"`
	Price models.Money `json:"price"`
}

// Item 购物车行
type Item struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	Quantity  int          `json:"quantity"`
	Image     string       `json:"image"`
	Size      string       `json:"size,omitempty"`
	Product   ProductRef   `json:"product"`
}

// LineTotal 行小计
func (i Item) LineTotal() models.Money {
	return i.Price.Mul(i.Quantity)
}

// ItemID 组合行标识，同一菜品不同规格是不同的行
func ItemID(productID, size string) string {
	size = normalizeSize(size)
	if size == "" {
		return productID
	}
	return productID + idSeparator + size
}

func normalizeSize(size string) string {
	return strings.ToUpper(strings.TrimSpace(size))
}

// Snapshot 购物车只读视图
type Snapshot struct {
	ID        string       `json:"id"`
	Items     []Item       `json:"items"`
	ItemCount int          `json:"item_count"`
	Subtotal  models.Money `json:"subtotal"`
}
