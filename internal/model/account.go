package model

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// 账户类型常量
const (
	AccountTypeChecking = "CHECKING" // 活期账户
	AccountTypeSavings  = "SAVINGS"  // 储蓄账户
	AccountTypeCredit   = "CREDIT"   // 信用账户
)

// ValidAccountType 校验账户类型是否合法
func ValidAccountType(t string) bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCredit:
		return true
	}
	return false
}

var accountNumberPattern = regexp.MustCompile(`^[A-Z0-9]{10,16}$`)

// ValidAccountNumber 校验账号格式
// 生成的账号天然满足格式，这里拦的是外部传入的账号
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// Account 银行账户表
// 余额是整个系统的核心数据，任何变动只能通过账本服务完成
//
// 【重要】余额设计原则：
// 1. 余额任何时刻不允许为负 —— 透支在扣款前拦截
// 2. 金额使用 decimal 精确计算，禁止二进制浮点
// 3. version 乐观锁版本号，配合行锁防止并发丢失更新
type Account struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountNumber string          `gorm:"type:varchar(16);uniqueIndex;not null" json:"account_number"` // 对外账号，格式 ^[A-Z0-9]{10,16}$
	AccountType   string          `gorm:"type:varchar(16);not null" json:"account_type"`               // CHECKING / SAVINGS / CREDIT
	Balance       decimal.Decimal `gorm:"type:decimal(19,4);not null" json:"balance"`                  // 可用余额，恒 >= 0
	CustomerID    int64           `gorm:"index;not null" json:"customer_id"`                           // 所属客户
	Version       int             `gorm:"not null;default:0" json:"version"`                           // 乐观锁版本号
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
