package model

import (
	"time"
)

// RefreshToken 刷新令牌表
// 登录时为客户签发，旧令牌全部作废（revoke-all-on-login 策略）
type RefreshToken struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Token      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"` // 不透明 UUID
	CustomerID int64     `gorm:"index;not null" json:"customer_id"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	Revoked    bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_token"
}

// Usable 令牌未过期且未被作废
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
