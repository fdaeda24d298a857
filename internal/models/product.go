package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProductSizeOption 菜品规格（S/M/L）及相对基础价的差价
type ProductSizeOption struct {
	Size       string `json:"size"`
	PriceDelta Money  `json:"price_delta"`
}

// ProductSizes 规格列表，以 JSON 存储
type ProductSizes []ProductSizeOption

// Value 实现 driver.Valuer 接口
func (s ProductSizes) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *ProductSizes) Scan(value interface{}) error {
	if value == nil {
		*s = ProductSizes{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, s)
}

// Find 查找规格，大小写不敏感
func (s ProductSizes) Find(size string) (ProductSizeOption, bool) {
	size = strings.TrimSpace(size)
	for _, option := range s {
		if strings.EqualFold(option.Size, size) {
			return option, true
		}
	}
	return ProductSizeOption{}, false
}

// Product 菜品表
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                               // 主键
	CategoryID      uint           `gorm:"not null;index" json:"category_id"`                  // 分类ID
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`                   // 唯一标识
	NameJSON        JSON           `gorm:"type:json;not null" json:"name"`                     // 多语言名称
	DescriptionJSON JSON           `gorm:"type:json" json:"description"`                       // 多语言描述
	PriceAmount     Money          `gorm:"type:decimal(20,0);not null;default:0" json:"price"` // 基础价格
	Image           string         `gorm:"type:varchar(500)" json:"image"`                     // 主图
	Images          StringArray    `gorm:"type:json" json:"images"`                            // 图片数组
	Tags            StringArray    `gorm:"type:json" json:"tags"`                              // 标签数组
	Sizes           ProductSizes   `gorm:"type:json" json:"sizes"`                             // 可选规格
	IsActive        bool           `gorm:"not null;index" json:"is_active"`                    // 是否上架，写入时总是显式赋值
	IsFeatured      bool           `gorm:"default:false;index" json:"is_featured"`             // 是否推荐
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`                  // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间

	// 关联
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// PriceForSize 计算规格调整后的单价，未知规格按基础价
func (p Product) PriceForSize(size string) Money {
	if option, ok := p.Sizes.Find(size); ok {
		return p.PriceAmount.Add(option.PriceDelta)
	}
	return p.PriceAmount
}
