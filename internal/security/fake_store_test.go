package security

import (
	"context"
	"strings"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/model"
	"bankapp/internal/service"

	"github.com/shopspring/decimal"
)

// memStore 内存版 service.Store，只实现授权与认证路径用到的部分
type memStore struct {
	accounts    map[int64]*model.Account
	accountSeq  int64
	customers   map[int64]*model.Customer
	customerSeq int64
	roles       map[string]*model.Role
	roleSeq     int64
	txns        map[int64]*model.Transaction
	txnSeq      int64
	tokens      map[string]*model.RefreshToken
	tokenSeq    int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[int64]*model.Account),
		customers: make(map[int64]*model.Customer),
		roles:     make(map[string]*model.Role),
		txns:      make(map[int64]*model.Transaction),
		tokens:    make(map[string]*model.RefreshToken),
	}
}

func (s *memStore) Accounts() service.AccountStore           { return (*memAccounts)(s) }
func (s *memStore) Customers() service.CustomerStore         { return (*memCustomers)(s) }
func (s *memStore) Transactions() service.TransactionLog     { return (*memTransactions)(s) }
func (s *memStore) RefreshTokens() service.RefreshTokenStore { return (*memTokens)(s) }
func (s *memStore) Outbox() service.OutboxStore              { return (*memOutbox)(s) }

func (s *memStore) InTransaction(ctx context.Context, fn func(service.Store) error) error {
	return fn(s)
}

type memAccounts memStore

func (s *memAccounts) Create(ctx context.Context, account *model.Account) error {
	s.accountSeq++
	account.ID = s.accountSeq
	s.accounts[account.ID] = account
	return nil
}

func (s *memAccounts) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("账户", "id", id)
}

func (s *memAccounts) GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	for _, a := range s.accounts {
		if a.AccountNumber == accountNumber {
			return a, nil
		}
	}
	return nil, apperr.NotFound("账户", "account_number", accountNumber)
}

func (s *memAccounts) GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error) {
	return s.GetByID(ctx, id)
}

func (s *memAccounts) ExistsByID(ctx context.Context, id int64) (bool, error) {
	_, ok := s.accounts[id]
	return ok, nil
}

func (s *memAccounts) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	_, err := s.GetByNumber(ctx, accountNumber)
	return err == nil, nil
}

func (s *memAccounts) ListByCustomerID(ctx context.Context, customerID int64) ([]*model.Account, error) {
	var out []*model.Account
	for _, a := range s.accounts {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAccounts) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal, version int) error {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	a.Balance = balance
	a.Version++
	return nil
}

func (s *memAccounts) Update(ctx context.Context, account *model.Account) error {
	s.accounts[account.ID] = account
	return nil
}

func (s *memAccounts) Delete(ctx context.Context, id int64) error {
	delete(s.accounts, id)
	return nil
}

type memCustomers memStore

func (s *memCustomers) Create(ctx context.Context, customer *model.Customer) error {
	for _, c := range s.customers {
		if strings.EqualFold(c.Email, customer.Email) {
			return apperr.Duplicate("客户", "email", customer.Email)
		}
	}
	s.customerSeq++
	customer.ID = s.customerSeq
	s.customers[customer.ID] = customer
	return nil
}

func (s *memCustomers) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	if c, ok := s.customers[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("客户", "id", id)
}

func (s *memCustomers) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	for _, c := range s.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, apperr.NotFound("客户", "email", email)
}

func (s *memCustomers) ExistsByID(ctx context.Context, id int64) (bool, error) {
	_, ok := s.customers[id]
	return ok, nil
}

func (s *memCustomers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	return err == nil, nil
}

func (s *memCustomers) List(ctx context.Context, page, size int) ([]*model.Customer, int64, error) {
	var out []*model.Customer
	for _, c := range s.customers {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (s *memCustomers) Update(ctx context.Context, customer *model.Customer) error {
	s.customers[customer.ID] = customer
	return nil
}

func (s *memCustomers) Delete(ctx context.Context, id int64) error {
	delete(s.customers, id)
	return nil
}

func (s *memCustomers) EnsureRole(ctx context.Context, name string) (*model.Role, error) {
	if r, ok := s.roles[name]; ok {
		return r, nil
	}
	s.roleSeq++
	role := &model.Role{ID: s.roleSeq, Name: name}
	s.roles[name] = role
	return role, nil
}

type memTransactions memStore

func (s *memTransactions) Append(ctx context.Context, txn *model.Transaction) error {
	s.txnSeq++
	txn.ID = s.txnSeq
	s.txns[txn.ID] = txn
	return nil
}

func (s *memTransactions) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if t, ok := s.txns[id]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("流水", "id", id)
}

func (s *memTransactions) ListByAccountID(ctx context.Context, accountID int64, page, size int) ([]*model.Transaction, int64, error) {
	return nil, 0, nil
}

func (s *memTransactions) ListByCustomerID(ctx context.Context, customerID int64, page, size int) ([]*model.Transaction, int64, error) {
	return nil, 0, nil
}

func (s *memTransactions) ListByAccountIDBetween(ctx context.Context, accountID int64, start, end time.Time) ([]*model.Transaction, error) {
	return nil, nil
}

func (s *memTransactions) ListByCustomerIDBetween(ctx context.Context, customerID int64, start, end time.Time) ([]*model.Transaction, error) {
	return nil, nil
}

func (s *memTransactions) ListByAccountIDAndType(ctx context.Context, accountID int64, txnType string) ([]*model.Transaction, error) {
	return nil, nil
}

type memTokens memStore

func (s *memTokens) Create(ctx context.Context, token *model.RefreshToken) error {
	s.tokenSeq++
	token.ID = s.tokenSeq
	s.tokens[token.Token] = token
	return nil
}

func (s *memTokens) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	if t, ok := s.tokens[token]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("刷新令牌", "token", token)
}

func (s *memTokens) RevokeAllByCustomerID(ctx context.Context, customerID int64) error {
	for _, t := range s.tokens {
		if t.CustomerID == customerID {
			t.Revoked = true
		}
	}
	return nil
}

func (s *memTokens) Delete(ctx context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func (s *memTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	for tk, t := range s.tokens {
		if t.Revoked || now.After(t.ExpiresAt) {
			delete(s.tokens, tk)
			deleted++
		}
	}
	return deleted, nil
}

type memOutbox memStore

func (s *memOutbox) Create(ctx context.Context, msg *model.OutboxMessage) error { return nil }
func (s *memOutbox) ListPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	return nil, nil
}
func (s *memOutbox) MarkSent(ctx context.Context, id int64) error       { return nil }
func (s *memOutbox) MarkFailed(ctx context.Context, id int64) error     { return nil }
func (s *memOutbox) IncrementRetry(ctx context.Context, id int64) error { return nil }
