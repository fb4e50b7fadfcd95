package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/config"
	"bankapp/internal/infrastructure/lock"
	"bankapp/internal/model"
	"bankapp/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// ============================================================================
// 账本服务
// ============================================================================
//
// 【关键点】记账是整个系统最核心的操作，需要保证：
// 1. 原子性：余额变动、流水写入、事件落箱必须同时成功或同时失败
// 2. 余额恒非负：透支在持有行锁后、扣款前拦截
// 3. 并发安全：行锁 + 乐观锁版本号 + 按账户维度的分布式锁
// 4. 转账锁序：涉及两个账户时按账户 ID 升序加行锁，避免对向转账死锁
//
// 账本服务不做任何权限判断，调用方（边界层）必须先过访问策略。
// ============================================================================

type LedgerService struct {
	store       Store
	redisClient *redis.Client // 可为 nil（单实例部署 / 测试），此时仅靠数据库锁
	cfg         *config.Config
	now         func() time.Time
}

func NewLedgerService(store Store, redisClient *redis.Client, cfg *config.Config) *LedgerService {
	return &LedgerService{
		store:       store,
		redisClient: redisClient,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Deposit 存款
func (s *LedgerService) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	account, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.InvalidAmount("存款金额必须大于0")
	}

	if description == "" {
		description = "存款"
	}

	unlock, err := s.lockAccounts(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var txn *model.Transaction
	err = s.store.InTransaction(ctx, func(st Store) error {
		// 行锁下重读，余额以锁内为准
		locked, err := st.Accounts().GetByIDForUpdate(ctx, account.ID)
		if err != nil {
			return err
		}

		newBalance := locked.Balance.Add(amount)
		if err := st.Accounts().UpdateBalance(ctx, locked.ID, newBalance, locked.Version); err != nil {
			return err
		}

		txn = &model.Transaction{
			TransactionNo:   idgen.GenerateTransactionNo(),
			Amount:          amount,
			Type:            model.TransactionTypeDeposit,
			Description:     description,
			TargetAccountID: &locked.ID,
			TransactionDate: s.now(),
		}
		if err := st.Transactions().Append(ctx, txn); err != nil {
			return err
		}

		return s.appendEvent(ctx, st, txn, "", locked.AccountNumber)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Ledger] 存款成功: account=%s, amount=%s, txn=%s",
		accountNumber, amount.String(), txn.TransactionNo)
	return txn, nil
}

// Withdraw 取款
func (s *LedgerService) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	account, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.InvalidAmount("取款金额必须大于0")
	}

	if description == "" {
		description = "取款"
	}

	unlock, err := s.lockAccounts(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var txn *model.Transaction
	err = s.store.InTransaction(ctx, func(st Store) error {
		locked, err := st.Accounts().GetByIDForUpdate(ctx, account.ID)
		if err != nil {
			return err
		}

		// 余额不足在任何变动之前拦截，保证余额恒非负
		if locked.Balance.LessThan(amount) {
			return apperr.InsufficientFunds(locked.AccountNumber, amount, locked.Balance)
		}

		newBalance := locked.Balance.Sub(amount)
		if err := st.Accounts().UpdateBalance(ctx, locked.ID, newBalance, locked.Version); err != nil {
			return err
		}

		txn = &model.Transaction{
			TransactionNo:   idgen.GenerateTransactionNo(),
			Amount:          amount,
			Type:            model.TransactionTypeWithdrawal,
			Description:     description,
			SourceAccountID: &locked.ID,
			TransactionDate: s.now(),
		}
		if err := st.Transactions().Append(ctx, txn); err != nil {
			return err
		}

		return s.appendEvent(ctx, st, txn, locked.AccountNumber, "")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Ledger] 取款成功: account=%s, amount=%s, txn=%s",
		accountNumber, amount.String(), txn.TransactionNo)
	return txn, nil
}

// Transfer 转账
//
// 两个账户的余额变动和一条 TRANSFER 流水必须在同一个事务内提交，
// 任何失败整体回滚 —— 钱从源账户扣了但没到目标账户属于正确性事故
func (s *LedgerService) Transfer(ctx context.Context, sourceNumber, targetNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	source, err := s.store.Accounts().GetByNumber(ctx, sourceNumber)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("源账户", "account_number", sourceNumber)
		}
		return nil, err
	}

	target, err := s.store.Accounts().GetByNumber(ctx, targetNumber)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("目标账户", "account_number", targetNumber)
		}
		return nil, err
	}

	if source.ID == target.ID {
		return nil, apperr.BusinessRule("不允许向同一账户转账")
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.InvalidAmount("转账金额必须大于0")
	}

	if description == "" {
		description = "转账"
	}

	unlock, err := s.lockAccounts(ctx, sourceNumber, targetNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var txn *model.Transaction
	err = s.store.InTransaction(ctx, func(st Store) error {
		// 按账户 ID 升序加行锁，防止对向转账互相等待
		firstID, secondID := source.ID, target.ID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}

		first, err := st.Accounts().GetByIDForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := st.Accounts().GetByIDForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		lockedSource, lockedTarget := first, second
		if lockedSource.ID != source.ID {
			lockedSource, lockedTarget = second, first
		}

		if lockedSource.Balance.LessThan(amount) {
			return apperr.InsufficientFunds(lockedSource.AccountNumber, amount, lockedSource.Balance)
		}

		if err := st.Accounts().UpdateBalance(ctx, lockedSource.ID, lockedSource.Balance.Sub(amount), lockedSource.Version); err != nil {
			return err
		}
		if err := st.Accounts().UpdateBalance(ctx, lockedTarget.ID, lockedTarget.Balance.Add(amount), lockedTarget.Version); err != nil {
			return err
		}

		txn = &model.Transaction{
			TransactionNo:   idgen.GenerateTransactionNo(),
			Amount:          amount,
			Type:            model.TransactionTypeTransfer,
			Description:     description,
			SourceAccountID: &lockedSource.ID,
			TargetAccountID: &lockedTarget.ID,
			TransactionDate: s.now(),
		}
		if err := st.Transactions().Append(ctx, txn); err != nil {
			return err
		}

		return s.appendEvent(ctx, st, txn, lockedSource.AccountNumber, lockedTarget.AccountNumber)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Ledger] 转账成功: source=%s, target=%s, amount=%s, txn=%s",
		sourceNumber, targetNumber, amount.String(), txn.TransactionNo)
	return txn, nil
}

// lockAccounts 获取账户维度的分布式锁，返回释放函数
func (s *LedgerService) lockAccounts(ctx context.Context, accountNumbers ...string) (func(), error) {
	if s.redisClient == nil {
		return func() {}, nil
	}

	lockSet := lock.NewAccountLockSet(s.redisClient, idgen.GenerateTransactionNo(), accountNumbers...)
	if err := lockSet.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, apperr.Conflict("账户繁忙，请稍后重试")
	}
	return func() { lockSet.Unlock(ctx) }, nil
}

// appendEvent 在账本事务内写入交易事件，由发件箱任务异步投递
func (s *LedgerService) appendEvent(ctx context.Context, st Store, txn *model.Transaction, sourceNumber, targetNumber string) error {
	payload := map[string]interface{}{
		"transaction_no":   txn.TransactionNo,
		"type":             txn.Type,
		"amount":           txn.Amount.String(),
		"transaction_date": txn.TransactionDate.Format(time.RFC3339),
	}
	if sourceNumber != "" {
		payload["source_account"] = sourceNumber
	}
	if targetNumber != "" {
		payload["target_account"] = targetNumber
	}
	payloadBytes, _ := json.Marshal(payload)

	topic := ""
	if s.cfg != nil {
		topic = s.cfg.Kafka.Topic.TransactionEvents
	}

	return st.Outbox().Create(ctx, &model.OutboxMessage{
		MessageKey: txn.TransactionNo,
		Topic:      topic,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	})
}
