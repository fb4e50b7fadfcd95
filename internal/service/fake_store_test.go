package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/model"

	"github.com/shopspring/decimal"
)

// fakeStore 内存版 Store，供服务层测试使用
// InTransaction 通过快照/恢复模拟数据库回滚
type fakeStore struct {
	mu sync.Mutex

	accounts    map[int64]*model.Account
	accountSeq  int64
	customers   map[int64]*model.Customer
	customerSeq int64
	roles       map[string]*model.Role
	roleSeq     int64
	txns        []*model.Transaction
	txnSeq      int64
	tokens      map[string]*model.RefreshToken
	tokenSeq    int64
	outbox      []*model.OutboxMessage
	outboxSeq   int64

	// failUpdateBalanceFor 模拟指定账户余额更新时的存储故障
	failUpdateBalanceFor int64
	// afterLockedRead 在锁内读取之后插入一次并发修改（模拟另一实例的提交），触发后自动清除
	afterLockedRead func(accountID int64)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:  make(map[int64]*model.Account),
		customers: make(map[int64]*model.Customer),
		roles:     make(map[string]*model.Role),
		tokens:    make(map[string]*model.RefreshToken),
	}
}

func (s *fakeStore) Accounts() AccountStore           { return &fakeAccounts{s} }
func (s *fakeStore) Customers() CustomerStore         { return &fakeCustomers{s} }
func (s *fakeStore) Transactions() TransactionLog     { return &fakeTransactions{s} }
func (s *fakeStore) RefreshTokens() RefreshTokenStore { return &fakeTokens{s} }
func (s *fakeStore) Outbox() OutboxStore              { return &fakeOutbox{s} }

func (s *fakeStore) InTransaction(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	snapshot := s.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		// 回滚
		s.mu.Lock()
		s.accounts = snapshot.accounts
		s.customers = snapshot.customers
		s.txns = snapshot.txns
		s.tokens = snapshot.tokens
		s.outbox = snapshot.outbox
		s.mu.Unlock()
		return err
	}
	return nil
}

type storeSnapshot struct {
	accounts  map[int64]*model.Account
	customers map[int64]*model.Customer
	txns      []*model.Transaction
	tokens    map[string]*model.RefreshToken
	outbox    []*model.OutboxMessage
}

func (s *fakeStore) clone() storeSnapshot {
	snap := storeSnapshot{
		accounts:  make(map[int64]*model.Account, len(s.accounts)),
		customers: make(map[int64]*model.Customer, len(s.customers)),
		tokens:    make(map[string]*model.RefreshToken, len(s.tokens)),
	}
	for id, a := range s.accounts {
		cp := *a
		snap.accounts[id] = &cp
	}
	for id, c := range s.customers {
		cp := *c
		snap.customers[id] = &cp
	}
	for tk, t := range s.tokens {
		cp := *t
		snap.tokens[tk] = &cp
	}
	snap.txns = append(snap.txns, s.txns...)
	snap.outbox = append(snap.outbox, s.outbox...)
	return snap
}

// ---------------------------------------------------------------------------
// 账户
// ---------------------------------------------------------------------------

type fakeAccounts struct{ s *fakeStore }

func (f *fakeAccounts) Create(ctx context.Context, account *model.Account) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, a := range f.s.accounts {
		if a.AccountNumber == account.AccountNumber {
			return apperr.Duplicate("账户", "account_number", account.AccountNumber)
		}
	}

	f.s.accountSeq++
	account.ID = f.s.accountSeq
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	cp := *account
	f.s.accounts[account.ID] = &cp
	return nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("账户", "id", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.AccountNumber == accountNumber {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("账户", "account_number", accountNumber)
}

func (f *fakeAccounts) GetByIDForUpdate(ctx context.Context, id int64) (*model.Account, error) {
	account, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hook := f.s.afterLockedRead; hook != nil {
		f.s.afterLockedRead = nil
		hook(id)
	}
	return account, nil
}

func (f *fakeAccounts) ExistsByID(ctx context.Context, id int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.accounts[id]
	return ok, nil
}

func (f *fakeAccounts) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.AccountNumber == accountNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) ListByCustomerID(ctx context.Context, customerID int64) ([]*model.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*model.Account
	for _, a := range f.s.accounts {
		if a.CustomerID == customerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAccounts) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal, version int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.failUpdateBalanceFor == id {
		return apperr.Internal("更新余额失败", context.DeadlineExceeded)
	}

	a, ok := f.s.accounts[id]
	if !ok {
		return apperr.NotFound("账户", "id", id)
	}
	if a.Version != version {
		return apperr.Conflict("账户并发修改冲突，请重试")
	}
	a.Balance = balance
	a.Version++
	a.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAccounts) Update(ctx context.Context, account *model.Account) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	stored, ok := f.s.accounts[account.ID]
	if !ok {
		return apperr.NotFound("账户", "id", account.ID)
	}
	for _, a := range f.s.accounts {
		if a.ID != account.ID && a.AccountNumber == account.AccountNumber {
			return apperr.Duplicate("账户", "account_number", account.AccountNumber)
		}
	}
	if stored.Version != account.Version {
		return apperr.Conflict("账户并发修改冲突，请重试")
	}
	// 只落可变列，余额只能由 UpdateBalance 变动
	stored.AccountNumber = account.AccountNumber
	stored.AccountType = account.AccountType
	stored.UpdatedAt = account.UpdatedAt
	stored.Version++
	return nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.accounts[id]; !ok {
		return apperr.NotFound("账户", "id", id)
	}
	delete(f.s.accounts, id)
	return nil
}

// ---------------------------------------------------------------------------
// 客户
// ---------------------------------------------------------------------------

type fakeCustomers struct{ s *fakeStore }

func (f *fakeCustomers) Create(ctx context.Context, customer *model.Customer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, c := range f.s.customers {
		if strings.EqualFold(c.Email, customer.Email) {
			return apperr.Duplicate("客户", "email", customer.Email)
		}
	}

	f.s.customerSeq++
	customer.ID = f.s.customerSeq
	cp := *customer
	f.s.customers[customer.ID] = &cp
	return nil
}

func (f *fakeCustomers) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.customers[id]
	if !ok {
		return nil, apperr.NotFound("客户", "id", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.customers {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("客户", "email", email)
}

func (f *fakeCustomers) ExistsByID(ctx context.Context, id int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.customers[id]
	return ok, nil
}

func (f *fakeCustomers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.customers {
		if strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCustomers) List(ctx context.Context, page, size int) ([]*model.Customer, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var all []*model.Customer
	for _, c := range f.s.customers {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FirstName < all[j].FirstName })

	total := int64(len(all))
	start := (page - 1) * size
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeCustomers) Update(ctx context.Context, customer *model.Customer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.customers[customer.ID]; !ok {
		return apperr.NotFound("客户", "id", customer.ID)
	}
	cp := *customer
	f.s.customers[customer.ID] = &cp
	return nil
}

func (f *fakeCustomers) Delete(ctx context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.customers[id]; !ok {
		return apperr.NotFound("客户", "id", id)
	}
	delete(f.s.customers, id)
	return nil
}

func (f *fakeCustomers) EnsureRole(ctx context.Context, name string) (*model.Role, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if r, ok := f.s.roles[name]; ok {
		cp := *r
		return &cp, nil
	}
	f.s.roleSeq++
	role := &model.Role{ID: f.s.roleSeq, Name: name}
	f.s.roles[name] = role
	cp := *role
	return &cp, nil
}

// ---------------------------------------------------------------------------
// 流水
// ---------------------------------------------------------------------------

type fakeTransactions struct{ s *fakeStore }

func (f *fakeTransactions) Append(ctx context.Context, txn *model.Transaction) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.txnSeq++
	txn.ID = f.s.txnSeq
	cp := *txn
	f.s.txns = append(f.s.txns, &cp)
	return nil
}

func (f *fakeTransactions) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.txns {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("流水", "id", id)
}

func (f *fakeTransactions) filter(keep func(*model.Transaction) bool) []*model.Transaction {
	var out []*model.Transaction
	for _, t := range f.s.txns {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func paginate(txns []*model.Transaction, page, size int) ([]*model.Transaction, int64) {
	total := int64(len(txns))
	start := (page - 1) * size
	if start >= len(txns) {
		return nil, total
	}
	end := start + size
	if end > len(txns) {
		end = len(txns)
	}
	return txns[start:end], total
}

func (f *fakeTransactions) ListByAccountID(ctx context.Context, accountID int64, page, size int) ([]*model.Transaction, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out, total := paginate(f.filter(func(t *model.Transaction) bool {
		return t.Touches(accountID)
	}), page, size)
	return out, total, nil
}

func (f *fakeTransactions) customerAccountIDs(customerID int64) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, a := range f.s.accounts {
		if a.CustomerID == customerID {
			ids[a.ID] = struct{}{}
		}
	}
	return ids
}

func (f *fakeTransactions) ListByCustomerID(ctx context.Context, customerID int64, page, size int) ([]*model.Transaction, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	ids := f.customerAccountIDs(customerID)
	out, total := paginate(f.filter(func(t *model.Transaction) bool {
		for id := range ids {
			if t.Touches(id) {
				return true
			}
		}
		return false
	}), page, size)
	return out, total, nil
}

func (f *fakeTransactions) ListByAccountIDBetween(ctx context.Context, accountID int64, start, end time.Time) ([]*model.Transaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.filter(func(t *model.Transaction) bool {
		return t.Touches(accountID) && !t.TransactionDate.Before(start) && !t.TransactionDate.After(end)
	}), nil
}

func (f *fakeTransactions) ListByCustomerIDBetween(ctx context.Context, customerID int64, start, end time.Time) ([]*model.Transaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	ids := f.customerAccountIDs(customerID)
	return f.filter(func(t *model.Transaction) bool {
		if t.TransactionDate.Before(start) || t.TransactionDate.After(end) {
			return false
		}
		for id := range ids {
			if t.Touches(id) {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeTransactions) ListByAccountIDAndType(ctx context.Context, accountID int64, txnType string) ([]*model.Transaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.filter(func(t *model.Transaction) bool {
		return t.Touches(accountID) && t.Type == txnType
	}), nil
}

// ---------------------------------------------------------------------------
// 刷新令牌
// ---------------------------------------------------------------------------

type fakeTokens struct{ s *fakeStore }

func (f *fakeTokens) Create(ctx context.Context, token *model.RefreshToken) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.tokenSeq++
	token.ID = f.s.tokenSeq
	cp := *token
	f.s.tokens[token.Token] = &cp
	return nil
}

func (f *fakeTokens) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tokens[token]
	if !ok {
		return nil, apperr.NotFound("刷新令牌", "token", token)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) RevokeAllByCustomerID(ctx context.Context, customerID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.tokens {
		if t.CustomerID == customerID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) Delete(ctx context.Context, token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.tokens, token)
	return nil
}

func (f *fakeTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var deleted int64
	for tk, t := range f.s.tokens {
		if t.Revoked || now.After(t.ExpiresAt) {
			delete(f.s.tokens, tk)
			deleted++
		}
	}
	return deleted, nil
}

// ---------------------------------------------------------------------------
// 发件箱
// ---------------------------------------------------------------------------

type fakeOutbox struct{ s *fakeStore }

func (f *fakeOutbox) Create(ctx context.Context, msg *model.OutboxMessage) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.outboxSeq++
	msg.ID = f.s.outboxSeq
	if msg.Status == "" {
		msg.Status = model.OutboxStatusPending
	}
	cp := *msg
	f.s.outbox = append(f.s.outbox, &cp)
	return nil
}

func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*model.OutboxMessage
	for _, m := range f.s.outbox {
		if m.Status == model.OutboxStatusPending {
			cp := *m
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkSent(ctx context.Context, id int64) error {
	return f.setStatus(id, model.OutboxStatusSent, false)
}

func (f *fakeOutbox) MarkFailed(ctx context.Context, id int64) error {
	return f.setStatus(id, model.OutboxStatusFailed, true)
}

func (f *fakeOutbox) IncrementRetry(ctx context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, m := range f.s.outbox {
		if m.ID == id {
			m.RetryCount++
			return nil
		}
	}
	return apperr.NotFound("发件箱消息", "id", id)
}

func (f *fakeOutbox) setStatus(id int64, status string, bumpRetry bool) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, m := range f.s.outbox {
		if m.ID == id {
			m.Status = status
			if bumpRetry {
				m.RetryCount++
			}
			return nil
		}
	}
	return apperr.NotFound("发件箱消息", "id", id)
}
