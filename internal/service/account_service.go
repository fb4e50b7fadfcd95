package service

import (
	"context"
	"log"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/config"
	"bankapp/internal/model"
	"bankapp/pkg/idgen"

	"github.com/shopspring/decimal"
)

type AccountService struct {
	store Store
	cfg   *config.Config
}

func NewAccountService(store Store, cfg *config.Config) *AccountService {
	return &AccountService{store: store, cfg: cfg}
}

// CreateAccount 开户
// 账号随机生成，先查重再落库；并发开户可能生成同一候选，
// 提交时靠唯一索引兜底（Duplicate 类别），冲突则重新生成
func (s *AccountService) CreateAccount(ctx context.Context, customerID int64, accountType string, initialBalance decimal.Decimal) (*model.Account, error) {
	exists, err := s.store.Customers().ExistsByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("客户", "id", customerID)
	}

	if !model.ValidAccountType(accountType) {
		return nil, apperr.BusinessRule("未知的账户类型: " + accountType)
	}

	if initialBalance.IsNegative() {
		return nil, apperr.InvalidAmount("初始余额不能为负数")
	}

	prefix := "TR"
	if s.cfg != nil && s.cfg.Business.AccountNumberPrefix != "" {
		prefix = s.cfg.Business.AccountNumberPrefix
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Internal("开户被取消", err)
		}

		number := idgen.GenerateAccountNumber(prefix)

		exists, err := s.store.Accounts().ExistsByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		account := &model.Account{
			AccountNumber: number,
			AccountType:   accountType,
			Balance:       initialBalance,
			CustomerID:    customerID,
		}

		err = s.store.Accounts().Create(ctx, account)
		if err == nil {
			log.Printf("[Account] 开户成功: number=%s, customer=%d", number, customerID)
			return account, nil
		}
		// 存在性检查有竞态窗口，提交时撞唯一索引则换号重试
		if apperr.IsKind(err, apperr.KindDuplicate) {
			continue
		}
		return nil, err
	}
}

// AccountPatch 账户可变字段
type AccountPatch struct {
	AccountNumber *string
	AccountType   *string
}

// UpdateAccount 更新账户可变字段（账号、类型）
//
// 和记账走同一套行锁纪律：锁内读、改、写，
// 否则更新会把并发记账刚提交的余额覆盖回去
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, patch AccountPatch) (*model.Account, error) {
	var updated *model.Account
	err := s.store.InTransaction(ctx, func(st Store) error {
		account, err := st.Accounts().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if patch.AccountNumber != nil && *patch.AccountNumber != account.AccountNumber {
			if !model.ValidAccountNumber(*patch.AccountNumber) {
				return apperr.BusinessRule("账号格式不正确，要求大写字母或数字 10-16 位")
			}
			exists, err := st.Accounts().ExistsByNumber(ctx, *patch.AccountNumber)
			if err != nil {
				return err
			}
			if exists {
				return apperr.Duplicate("账户", "account_number", *patch.AccountNumber)
			}
			account.AccountNumber = *patch.AccountNumber
		}

		if patch.AccountType != nil {
			if !model.ValidAccountType(*patch.AccountType) {
				return apperr.BusinessRule("未知的账户类型: " + *patch.AccountType)
			}
			account.AccountType = *patch.AccountType
		}

		account.UpdatedAt = time.Now()
		if err := st.Accounts().Update(ctx, account); err != nil {
			return err
		}
		account.Version++
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAccount 销户
// 有余额的账户不允许删除；历史流水保留
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !account.Balance.IsZero() {
		return apperr.BusinessRule("有余额的账户不能删除，请先清零余额")
	}

	if err := s.store.Accounts().Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[Account] 销户成功: number=%s", account.AccountNumber)
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return s.store.Accounts().GetByID(ctx, id)
}

func (s *AccountService) GetAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	return s.store.Accounts().GetByNumber(ctx, accountNumber)
}

// ListCustomerAccounts 客户名下全部账户
func (s *AccountService) ListCustomerAccounts(ctx context.Context, customerID int64) ([]*model.Account, error) {
	exists, err := s.store.Customers().ExistsByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("客户", "id", customerID)
	}
	return s.store.Accounts().ListByCustomerID(ctx, customerID)
}
