package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// OrderItem 下单时的购物车行快照，创建后不可变
type OrderItem struct {
	ID        string `json:"id"`             // 购物车行标识（商品ID + 规格）
	ProductID string `json:"product_id"`     // 商品ID
	Name      string `json:"name"`           // 商品名称快照
	Price     Money  `json:"price"`          // 规格调整后的单价
	Quantity  int    `json:"quantity"`       // 数量
	Image     string `json:"image"`          // 图片快照
	Size      string `json:"size,omitempty"` // 规格
}

// LineTotal 行小计
func (i OrderItem) LineTotal() Money {
	return i.Price.Mul(i.Quantity)
}

// OrderItems 订单项快照，以 JSON 存储在订单文档内
type OrderItems []OrderItem

// Value 实现 driver.Valuer 接口
func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return json.Marshal([]OrderItem{})
	}
	return json.Marshal(items)
}

// Scan 实现 sql.Scanner 接口
func (items *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*items = OrderItems{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, items)
}

// CustomerInfo 收货人信息
type CustomerInfo struct {
	Name     string `gorm:"type:varchar(120);not null" json:"name"`       // 姓名
	Phone    string `gorm:"type:varchar(32);not null;index" json:"phone"` // 电话
	Email    string `gorm:"type:varchar(255);index" json:"email"`         // 邮箱
	Address  string `gorm:"type:varchar(500);not null" json:"address"`    // 地址
	District string `gorm:"type:varchar(120)" json:"district"`            // 区
	City     string `gorm:"type:varchar(120)" json:"city"`                // 城市
	Note     string `gorm:"type:text" json:"note"`                        // 备注
}

// PaymentInfo 支付信息
type PaymentInfo struct {
	Method        string     `gorm:"type:varchar(32);not null" json:"method"`           // 支付方式
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`     // 支付状态
	TransactionID string     `gorm:"type:varchar(128)" json:"transaction_id,omitempty"` // 交易流水号
	PaidAt        *time.Time `json:"paid_at,omitempty"`                                 // 支付时间
}

// ShippingInfo 配送信息
type ShippingInfo struct {
	Fee         Money      `gorm:"type:decimal(20,0);not null;default:0" json:"fee"` // 运费
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`                             // 出餐配送时间
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`                           // 送达时间
}

// Order 订单表，订单只通过状态流转修改，不做物理删除
type Order struct {
	ID                 string       `gorm:"primaryKey;type:varchar(36)" json:"id"`                   // 主键（uuid）
	OrderCode          string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_code"` // 订单编号
	UserID             *string      `gorm:"type:varchar(36);index" json:"user_id"`                   // 用户ID（游客订单为空）
	Items              OrderItems   `gorm:"type:json;not null" json:"items"`                         // 订单项快照
	Subtotal           Money        `gorm:"type:decimal(20,0);not null;default:0" json:"subtotal"`   // 小计
	Total              Money        `gorm:"type:decimal(20,0);not null;default:0" json:"total"`      // 合计（小计 + 运费）
	Status             string       `gorm:"type:varchar(20);index;not null" json:"status"`           // 订单状态
	Customer           CustomerInfo `gorm:"embedded;embeddedPrefix:customer_" json:"customer_info"`  // 收货人
	Payment            PaymentInfo  `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`         // 支付
	Shipping           ShippingInfo `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`       // 配送
	CancellationReason string       `gorm:"type:text" json:"cancellation_reason,omitempty"`          // 取消原因
	ClientIP           string       `gorm:"type:varchar(64)" json:"client_ip,omitempty"`             // 下单客户端IP
	CreatedAt          time.Time    `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt          time.Time    `gorm:"index" json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ItemCount 订单商品总数量
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
