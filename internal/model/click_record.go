package model

import (
	"time"
)

// ClickRecord 单次点击的明细日志，只追加不修改
type ClickRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ShortLinkID uint      `gorm:"not null;index:idx_link_clicked,priority:1" json:"short_link_id"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	UserAgent   string    `gorm:"type:text" json:"user_agent"`
	Referer     string    `gorm:"type:text" json:"referer"`
	CreatedAt   time.Time `gorm:"index:idx_link_clicked,priority:2,sort:desc" json:"created_at"`
}

func (ClickRecord) TableName() string {
	return "click_records"
}
