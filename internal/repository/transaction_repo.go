package repository

import (
	"context"
	"errors"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository 交易流水存储
// 流水只追加，这里刻意不提供任何 update/delete 方法
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Append(ctx context.Context, txn *model.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return apperr.Internal("记录流水失败", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("流水", "id", id)
		}
		return nil, apperr.Internal("查询流水失败", err)
	}
	return &txn, nil
}

// touchesAccount 流水涉及指定账户（出账方或入账方）
func (r *TransactionRepository) touchesAccount(accountID int64) *gorm.DB {
	return r.db.Where("source_account_id = ? OR target_account_id = ?", accountID, accountID)
}

// touchesCustomer 流水涉及指定客户名下任一账户
func (r *TransactionRepository) touchesCustomer(ctx context.Context, customerID int64) *gorm.DB {
	sub := r.db.WithContext(ctx).Model(&model.Account{}).
		Select("id").
		Where("customer_id = ?", customerID)
	return r.db.Where("source_account_id IN (?) OR target_account_id IN (?)", sub, sub)
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID int64, page, size int) ([]*model.Transaction, int64, error) {
	var txns []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where(r.touchesAccount(accountID))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("统计流水失败", err)
	}

	err := query.
		Order("transaction_date DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&txns).Error
	if err != nil {
		return nil, 0, apperr.Internal("查询流水失败", err)
	}

	return txns, total, nil
}

func (r *TransactionRepository) ListByCustomerID(ctx context.Context, customerID int64, page, size int) ([]*model.Transaction, int64, error) {
	var txns []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where(r.touchesCustomer(ctx, customerID))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("统计流水失败", err)
	}

	err := query.
		Order("transaction_date DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&txns).Error
	if err != nil {
		return nil, 0, apperr.Internal("查询流水失败", err)
	}

	return txns, total, nil
}

// ListByAccountIDBetween 日期区间查询，两端闭区间
func (r *TransactionRepository) ListByAccountIDBetween(ctx context.Context, accountID int64, start, end time.Time) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	err := r.db.WithContext(ctx).
		Where(r.touchesAccount(accountID)).
		Where("transaction_date BETWEEN ? AND ?", start, end).
		Order("transaction_date DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, apperr.Internal("查询流水失败", err)
	}
	return txns, nil
}

func (r *TransactionRepository) ListByCustomerIDBetween(ctx context.Context, customerID int64, start, end time.Time) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	err := r.db.WithContext(ctx).
		Where(r.touchesCustomer(ctx, customerID)).
		Where("transaction_date BETWEEN ? AND ?", start, end).
		Order("transaction_date DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, apperr.Internal("查询流水失败", err)
	}
	return txns, nil
}

func (r *TransactionRepository) ListByAccountIDAndType(ctx context.Context, accountID int64, txnType string) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	err := r.db.WithContext(ctx).
		Where(r.touchesAccount(accountID)).
		Where("type = ?", txnType).
		Order("transaction_date DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, apperr.Internal("查询流水失败", err)
	}
	return txns, nil
}
