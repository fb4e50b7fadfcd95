package security

import (
	"context"

	"bankapp/internal/service"
)

// AccessPolicy 访问策略
//
// 回答"这个身份能不能碰这个资源"，是 (身份, 资源ID) 的纯函数加存储查询。
// 所有判断在边界层、进账本之前完成；账本服务信任调用方已过授权。
type AccessPolicy struct {
	store service.Store
}

func NewAccessPolicy(store service.Store) *AccessPolicy {
	return &AccessPolicy{store: store}
}

// IsCurrentCustomer 身份即目标客户本人
func (p *AccessPolicy) IsCurrentCustomer(identity *Identity, customerID int64) bool {
	return identity != nil && identity.CustomerID == customerID
}

// IsCurrentCustomerEmail 身份邮箱即目标邮箱
func (p *AccessPolicy) IsCurrentCustomerEmail(identity *Identity, email string) bool {
	return identity != nil && identity.Email == email
}

// IsOwnerOfAccount 身份是账户持有人
func (p *AccessPolicy) IsOwnerOfAccount(ctx context.Context, identity *Identity, accountID int64) bool {
	if identity == nil {
		return false
	}
	account, err := p.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return false
	}
	return account.CustomerID == identity.CustomerID
}

// IsOwnerOfAccountByNumber 按账号判断持有人
func (p *AccessPolicy) IsOwnerOfAccountByNumber(ctx context.Context, identity *Identity, accountNumber string) bool {
	if identity == nil {
		return false
	}
	account, err := p.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return false
	}
	return account.CustomerID == identity.CustomerID
}

// IsOwnerOfTransaction 身份是流水任意一侧账户的持有人
func (p *AccessPolicy) IsOwnerOfTransaction(ctx context.Context, identity *Identity, transactionID int64) bool {
	if identity == nil {
		return false
	}
	txn, err := p.store.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return false
	}

	if txn.SourceAccountID != nil && p.IsOwnerOfAccount(ctx, identity, *txn.SourceAccountID) {
		return true
	}
	if txn.TargetAccountID != nil && p.IsOwnerOfAccount(ctx, identity, *txn.TargetAccountID) {
		return true
	}
	return false
}
