package model

import (
	"time"
)

// ShortLink 短链接模型
type ShortLink struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	ShortCode   string     `gorm:"size:50;uniqueIndex;not null" json:"short_code"`
	OriginalURL string     `gorm:"type:text;not null" json:"original_url"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	ClickCount  int64      `gorm:"default:0" json:"click_count"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (ShortLink) TableName() string {
	return "short_links"
}

// IsExpired 判断链接在给定时刻是否已过期
func (l *ShortLink) IsExpired(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return now.After(*l.ExpiresAt)
}
