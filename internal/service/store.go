package service

import (
	"context"
	"time"

	"bankapp/internal/model"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 存储接口
// ============================================================================
//
// 服务层只依赖这些接口，gorm 实现在 internal/repository。
// 账本操作的余额变动与流水写入必须在 InTransaction 内完成，
// 任何失败整体回滚，不允许出现半提交状态。
// ============================================================================

// AccountStore 账户存储
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error)
	// GetByIDForUpdate 加行锁读取，只允许在事务内调用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByNumber(ctx context.Context, accountNumber string) (bool, error)
	ListByCustomerID(ctx context.Context, customerID int64) ([]*model.Account, error)
	// UpdateBalance 带乐观锁版本校验的余额更新，版本不匹配返回 Conflict
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal, version int) error
	// Update 只更新可变列（账号、类型），绝不触碰余额；
	// 同样带版本校验，版本不匹配返回 Conflict
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id int64) error
}

// CustomerStore 客户存储
type CustomerStore interface {
	Create(ctx context.Context, customer *model.Customer) error
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page, size int) ([]*model.Customer, int64, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id int64) error
	// EnsureRole 取出角色，不存在则创建
	EnsureRole(ctx context.Context, name string) (*model.Role, error)
}

// TransactionLog 交易流水存储，只追加
type TransactionLog interface {
	Append(ctx context.Context, txn *model.Transaction) error
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	ListByAccountID(ctx context.Context, accountID int64, page, size int) ([]*model.Transaction, int64, error)
	ListByCustomerID(ctx context.Context, customerID int64, page, size int) ([]*model.Transaction, int64, error)
	ListByAccountIDBetween(ctx context.Context, accountID int64, start, end time.Time) ([]*model.Transaction, error)
	ListByCustomerIDBetween(ctx context.Context, customerID int64, start, end time.Time) ([]*model.Transaction, error)
	ListByAccountIDAndType(ctx context.Context, accountID int64, txnType string) ([]*model.Transaction, error)
}

// RefreshTokenStore 刷新令牌存储
type RefreshTokenStore interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	RevokeAllByCustomerID(ctx context.Context, customerID int64) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OutboxStore 交易事件发件箱
type OutboxStore interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	ListPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	IncrementRetry(ctx context.Context, id int64) error
}

// Store 聚合存储入口
type Store interface {
	Accounts() AccountStore
	Customers() CustomerStore
	Transactions() TransactionLog
	RefreshTokens() RefreshTokenStore
	Outbox() OutboxStore
	// InTransaction 在单个数据库事务内执行 fn，fn 收到绑定事务的 Store
	InTransaction(ctx context.Context, fn func(Store) error) error
}
