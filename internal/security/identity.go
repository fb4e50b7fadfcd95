// Package security 承载认证协作方：身份、JWT、访问策略。
//
// 身份永远作为显式参数传递，账本与查询服务不读任何环境态。
package security

import (
	"bankapp/internal/model"
)

// Identity 已认证的调用方身份，由边界层从访问令牌解析
type Identity struct {
	CustomerID int64    `json:"customer_id"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
}

// HasRole 判断身份是否持有指定角色
func (id *Identity) HasRole(name string) bool {
	for _, r := range id.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IsAdmin 管理员身份
func (id *Identity) IsAdmin() bool {
	return id.HasRole(model.RoleAdmin)
}
