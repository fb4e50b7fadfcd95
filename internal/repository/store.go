package repository

import (
	"context"
	"errors"

	"bankapp/internal/apperr"
	"bankapp/internal/service"

	"gorm.io/gorm"
)

// Store 聚合存储的 gorm 实现
// InTransaction 内拿到的 Store 绑定同一个事务句柄，
// 闭包返回错误即整体回滚
type Store struct {
	db            *gorm.DB
	accounts      *AccountRepository
	customers     *CustomerRepository
	transactions  *TransactionRepository
	refreshTokens *RefreshTokenRepository
	outbox        *OutboxRepository
}

var _ service.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		accounts:      NewAccountRepository(db),
		customers:     NewCustomerRepository(db),
		transactions:  NewTransactionRepository(db),
		refreshTokens: NewRefreshTokenRepository(db),
		outbox:        NewOutboxRepository(db),
	}
}

func (s *Store) Accounts() service.AccountStore           { return s.accounts }
func (s *Store) Customers() service.CustomerStore         { return s.customers }
func (s *Store) Transactions() service.TransactionLog     { return s.transactions }
func (s *Store) RefreshTokens() service.RefreshTokenStore { return s.refreshTokens }
func (s *Store) Outbox() service.OutboxStore              { return s.outbox }

func (s *Store) InTransaction(ctx context.Context, fn func(service.Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	if err == nil {
		return nil
	}

	// 业务错误原样向上传，其余（连接故障、死锁等）包为 Internal
	var ae *apperr.Error
	var ife *apperr.InsufficientFundsError
	if errors.As(err, &ae) || errors.As(err, &ife) {
		return err
	}
	return apperr.Internal("事务执行失败", err)
}
