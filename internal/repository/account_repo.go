package repository

import (
	"context"
	"errors"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Duplicate("账户", "account_number", account.AccountNumber)
		}
		return apperr.Internal("创建账户失败", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("账户", "id", id)
		}
		return nil, apperr.Internal("查询账户失败", err)
	}
	return &account, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("account_number = ?", accountNumber).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("账户", "account_number", accountNumber)
		}
		return nil, apperr.Internal("查询账户失败", err)
	}
	return &account, nil
}

// GetByIDForUpdate 加行锁读取账户，只允许在事务内调用
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("账户", "id", id)
		}
		return nil, apperr.Internal("锁定账户失败", err)
	}
	return &account, nil
}

func (r *AccountRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, apperr.Internal("查询账户失败", err)
	}
	return count > 0, nil
}

func (r *AccountRepository) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("account_number = ?", accountNumber).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal("查询账户失败", err)
	}
	return count > 0, nil
}

func (r *AccountRepository) ListByCustomerID(ctx context.Context, customerID int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, apperr.Internal("查询客户账户失败", err)
	}
	return accounts, nil
}

// UpdateBalance 带乐观锁版本校验的余额更新
//
// 版本不匹配说明行锁之外还有并发修改（或锁失效），
// 返回 Conflict 让调用方回滚重试，绝不覆盖写
func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal, version int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"balance": balance,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return apperr.Internal("更新余额失败", result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := r.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("账户", "id", id)
		}
		return apperr.Conflict("账户并发修改冲突，请重试")
	}

	return nil
}

// Update 更新账户可变列（账号、类型）
//
// 余额和版本号只归账本事务管，这里刻意不落整个实体：
// Save 会把读出时的旧余额写回去，覆盖并发记账。
// 版本校验同样兜底，版本不匹配返回 Conflict
func (r *AccountRepository) Update(ctx context.Context, account *model.Account) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"account_number": account.AccountNumber,
			"account_type":   account.AccountType,
			"updated_at":     account.UpdatedAt,
			"version":        gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Duplicate("账户", "account_number", account.AccountNumber)
		}
		return apperr.Internal("更新账户失败", result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := r.ExistsByID(ctx, account.ID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("账户", "id", account.ID)
		}
		return apperr.Conflict("账户并发修改冲突，请重试")
	}

	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Account{}, id)
	if result.Error != nil {
		return apperr.Internal("删除账户失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("账户", "id", id)
	}
	return nil
}
