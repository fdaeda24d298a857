package models

import "time"

// MediaItem 媒体库条目，本地文件与 Cloudinary 资源共用一张表
type MediaItem struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)" json:"id"`                                           // 主键（uuid）
	Source    string      `gorm:"type:varchar(20);not null;uniqueIndex:idx_media_source_public" json:"source"`     // 来源（local/cloudinary）
	PublicID  string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_media_source_public" json:"public_id"` // 存储侧标识
	URL       string      `gorm:"type:varchar(1000);not null" json:"url"`                                          // 访问地址
	Filename  string      `gorm:"type:varchar(255)" json:"filename"`                                               // 原始文件名
	Format    string      `gorm:"type:varchar(20)" json:"format"`                                                  // 文件格式
	Bytes     int64       `gorm:"not null;default:0" json:"bytes"`                                                 // 文件大小
	Width     int         `gorm:"not null;default:0" json:"width"`                                                 // 宽度
	Height    int         `gorm:"not null;default:0" json:"height"`                                                // 高度
	Folder    string      `gorm:"type:varchar(255);index" json:"folder"`                                           // 目录
	Alt       string      `gorm:"type:varchar(255)" json:"alt"`                                                    // 替代文本
	Tags      StringArray `gorm:"type:json" json:"tags"`                                                           // 标签
	CreatedAt time.Time   `gorm:"index" json:"created_at"`                                                         // 创建时间
	UpdatedAt time.Time   `json:"updated_at"`                                                                      // 更新时间
}

// TableName 指定表名
func (MediaItem) TableName() string {
	return "media"
}
