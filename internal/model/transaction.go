package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeDeposit    = "DEPOSIT"    // 存款
	TransactionTypeWithdrawal = "WITHDRAWAL" // 取款
	TransactionTypeTransfer   = "TRANSFER"   // 转账
)

// ValidTransactionType 校验交易类型是否合法
func ValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer:
		return true
	}
	return false
}

// ============================================================================
// 交易流水实体
// ============================================================================

// Transaction 交易流水表
// 记录每一笔资金变动，是历史对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 代码中不存在任何 update/delete 路径
// 2. 交易时间由服务端在提交时刻写入，落库后不可变
// 3. 账户引用形状约束：
//      DEPOSIT    只有 target
//      WITHDRAWAL 只有 source
//      TRANSFER   source 和 target 都有，且 source != target
// 4. 账户被删除后流水保留（外键可空，不做级联）
type Transaction struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo   string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	Amount          decimal.Decimal `gorm:"type:decimal(19,4);not null" json:"amount"`                   // 金额，恒为正数
	Type            string          `gorm:"type:varchar(20);not null" json:"type"`                       // 交易类型
	Description     string          `gorm:"type:varchar(255)" json:"description"`                        // 备注
	SourceAccountID *int64          `gorm:"index" json:"source_account_id"`                              // 出账账户
	TargetAccountID *int64          `gorm:"index" json:"target_account_id"`                              // 入账账户
	TransactionDate time.Time       `gorm:"index;not null" json:"transaction_date"`                      // 提交时刻，服务端赋值
}

func (Transaction) TableName() string {
	return "transaction"
}

// Touches 判断流水是否涉及指定账户（作为出账方或入账方）
func (t *Transaction) Touches(accountID int64) bool {
	if t.SourceAccountID != nil && *t.SourceAccountID == accountID {
		return true
	}
	if t.TargetAccountID != nil && *t.TargetAccountID == accountID {
		return true
	}
	return false
}
