package model

import (
	"time"
)

// 角色常量
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Customer 客户表
// 一个客户可以持有多个账户，账户通过 customer_id 外键关联（不做双向对象图）
type Customer struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string    `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName    string    `gorm:"type:varchar(50);not null" json:"last_name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt 哈希，永不下发
	PhoneNumber string    `gorm:"type:varchar(11)" json:"phone_number"`
	Address     string    `gorm:"type:varchar(255)" json:"address"`
	Roles       []Role    `gorm:"many2many:customer_roles" json:"roles"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customer"
}

// FullName 显示用姓名
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// HasRole 判断客户是否持有某个角色
func (c *Customer) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Role 角色表
type Role struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
}

func (Role) TableName() string {
	return "role"
}
