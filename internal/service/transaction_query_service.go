package service

import (
	"context"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 交易查询服务（只读投影，不做任何变动）
// ============================================================================

// TransactionDTO 流水摘要视图
type TransactionDTO struct {
	ID                  int64           `json:"id"`
	TransactionNo       string          `json:"transaction_no"`
	Amount              decimal.Decimal `json:"amount"`
	Type                string          `json:"type"`
	Description         string          `json:"description,omitempty"`
	TransactionDate     time.Time       `json:"transaction_date"`
	SourceAccountNumber string          `json:"source_account_number,omitempty"`
	TargetAccountNumber string          `json:"target_account_number,omitempty"`
	CustomerName        string          `json:"customer_name,omitempty"`
}

type TransactionQueryService struct {
	store Store
}

func NewTransactionQueryService(store Store) *TransactionQueryService {
	return &TransactionQueryService{store: store}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, id int64) (*TransactionDTO, error) {
	txn, err := s.store.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, txn, newLookupCache()), nil
}

// ListByAccountID 按账户分页查询，交易时间倒序
func (s *TransactionQueryService) ListByAccountID(ctx context.Context, accountID int64, page, size int) ([]*TransactionDTO, int64, error) {
	if err := s.requireAccountByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	page, size = normalizePage(page, size)
	txns, total, err := s.store.Transactions().ListByAccountID(ctx, accountID, page, size)
	if err != nil {
		return nil, 0, err
	}
	return s.toDTOs(ctx, txns), total, nil
}

func (s *TransactionQueryService) ListByAccountNumber(ctx context.Context, accountNumber string, page, size int) ([]*TransactionDTO, int64, error) {
	account, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, 0, err
	}
	return s.ListByAccountID(ctx, account.ID, page, size)
}

// ListByCustomerID 客户名下任一账户作为出账方或入账方的流水
func (s *TransactionQueryService) ListByCustomerID(ctx context.Context, customerID int64, page, size int) ([]*TransactionDTO, int64, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return nil, 0, err
	}

	page, size = normalizePage(page, size)
	txns, total, err := s.store.Transactions().ListByCustomerID(ctx, customerID, page, size)
	if err != nil {
		return nil, 0, err
	}
	return s.toDTOs(ctx, txns), total, nil
}

// ListByAccountIDBetween 日期区间查询（两端闭区间），不分页
func (s *TransactionQueryService) ListByAccountIDBetween(ctx context.Context, accountID int64, start, end time.Time) ([]*TransactionDTO, error) {
	if err := s.requireAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	txns, err := s.store.Transactions().ListByAccountIDBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, txns), nil
}

func (s *TransactionQueryService) ListByAccountNumberBetween(ctx context.Context, accountNumber string, start, end time.Time) ([]*TransactionDTO, error) {
	account, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return s.ListByAccountIDBetween(ctx, account.ID, start, end)
}

func (s *TransactionQueryService) ListByCustomerIDBetween(ctx context.Context, customerID int64, start, end time.Time) ([]*TransactionDTO, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	txns, err := s.store.Transactions().ListByCustomerIDBetween(ctx, customerID, start, end)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, txns), nil
}

// ListByAccountIDAndType 按交易类型过滤
func (s *TransactionQueryService) ListByAccountIDAndType(ctx context.Context, accountID int64, txnType string) ([]*TransactionDTO, error) {
	if !model.ValidTransactionType(txnType) {
		return nil, apperr.BusinessRule("未知的交易类型: " + txnType)
	}
	if err := s.requireAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	txns, err := s.store.Transactions().ListByAccountIDAndType(ctx, accountID, txnType)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, txns), nil
}

func (s *TransactionQueryService) ListByAccountNumberAndType(ctx context.Context, accountNumber, txnType string) ([]*TransactionDTO, error) {
	account, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return s.ListByAccountIDAndType(ctx, account.ID, txnType)
}

// 不存在的账户/客户一律返回 NotFound，
// 静默返回空列表会把查错对象的 bug 藏起来
func (s *TransactionQueryService) requireAccountByID(ctx context.Context, accountID int64) error {
	exists, err := s.store.Accounts().ExistsByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("账户", "id", accountID)
	}
	return nil
}

func (s *TransactionQueryService) requireCustomer(ctx context.Context, customerID int64) error {
	exists, err := s.store.Customers().ExistsByID(ctx, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("客户", "id", customerID)
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return page, size
}

// lookupCache 同一次查询内复用账户/客户检索结果
type lookupCache struct {
	accounts  map[int64]*model.Account
	customers map[int64]*model.Customer
}

func newLookupCache() *lookupCache {
	return &lookupCache{
		accounts:  make(map[int64]*model.Account),
		customers: make(map[int64]*model.Customer),
	}
}

func (s *TransactionQueryService) toDTOs(ctx context.Context, txns []*model.Transaction) []*TransactionDTO {
	cache := newLookupCache()
	dtos := make([]*TransactionDTO, 0, len(txns))
	for _, txn := range txns {
		dtos = append(dtos, s.toDTO(ctx, txn, cache))
	}
	return dtos
}

func (s *TransactionQueryService) toDTO(ctx context.Context, txn *model.Transaction, cache *lookupCache) *TransactionDTO {
	dto := &TransactionDTO{
		ID:              txn.ID,
		TransactionNo:   txn.TransactionNo,
		Amount:          txn.Amount,
		Type:            txn.Type,
		Description:     txn.Description,
		TransactionDate: txn.TransactionDate,
	}

	source := s.lookupAccount(ctx, cache, txn.SourceAccountID)
	target := s.lookupAccount(ctx, cache, txn.TargetAccountID)

	if source != nil {
		dto.SourceAccountNumber = source.AccountNumber
	}
	if target != nil {
		dto.TargetAccountNumber = target.AccountNumber
	}

	// 摘要里的客户姓名：DEPOSIT 取入账方客户，其余取出账方客户
	owner := source
	if txn.Type == model.TransactionTypeDeposit {
		owner = target
	}
	if owner != nil {
		if customer := s.lookupCustomer(ctx, cache, owner.CustomerID); customer != nil {
			dto.CustomerName = customer.FullName()
		}
	}

	return dto
}

// lookupAccount 历史流水可能引用已销户的账户，查不到时留空
func (s *TransactionQueryService) lookupAccount(ctx context.Context, cache *lookupCache, id *int64) *model.Account {
	if id == nil {
		return nil
	}
	if account, ok := cache.accounts[*id]; ok {
		return account
	}
	account, err := s.store.Accounts().GetByID(ctx, *id)
	if err != nil {
		cache.accounts[*id] = nil
		return nil
	}
	cache.accounts[*id] = account
	return account
}

func (s *TransactionQueryService) lookupCustomer(ctx context.Context, cache *lookupCache, id int64) *model.Customer {
	if customer, ok := cache.customers[id]; ok {
		return customer
	}
	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		cache.customers[id] = nil
		return nil
	}
	cache.customers[id] = customer
	return customer
}
