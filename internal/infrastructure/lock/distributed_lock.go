package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么账本操作要加分布式锁？】
//
// 数据库行锁已经保证单实例内的正确性，但多实例部署时热点账户会在
// 数据库层排长队。按账户维度先在 Redis 串行化，行锁只作为最终兜底。
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：Lua 脚本保证"检查+删除"的原子性
//
// ============================================================================

var ErrLockFailed = errors.New("获取分布式锁失败")

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
// value 不匹配时不删除，避免误删其他持有者的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// 便捷函数：账户维度的账本锁
// ============================================================================

// NewAccountLock 创建账户锁
// 不同账户可以并发记账，同一账户的变动被串行化
func NewAccountLock(client *redis.Client, accountNumber, token string) *DistributedLock {
	key := fmt.Sprintf("ledger:lock:account:%s", accountNumber)
	return NewDistributedLock(client, key, token, 30*time.Second)
}

// AccountLockSet 多账户锁组，按账号升序加锁，避免对向转账互相死锁
type AccountLockSet struct {
	locks []*DistributedLock
}

// NewAccountLockSet 创建多账户锁组（自动去重并排序）
func NewAccountLockSet(client *redis.Client, token string, accountNumbers ...string) *AccountLockSet {
	uniq := make(map[string]struct{}, len(accountNumbers))
	numbers := make([]string, 0, len(accountNumbers))
	for _, n := range accountNumbers {
		if _, ok := uniq[n]; !ok {
			uniq[n] = struct{}{}
			numbers = append(numbers, n)
		}
	}
	sort.Strings(numbers)

	set := &AccountLockSet{}
	for _, n := range numbers {
		set.locks = append(set.locks, NewAccountLock(client, n, token))
	}
	return set
}

// Lock 依次获取全部锁，任何一把失败则回滚已持有的锁
func (s *AccountLockSet) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i, l := range s.locks {
		if err := l.Lock(ctx, retryInterval, maxRetries); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = s.locks[j].Unlock(ctx)
			}
			return err
		}
	}
	return nil
}

// Unlock 逆序释放全部锁
func (s *AccountLockSet) Unlock(ctx context.Context) {
	for i := len(s.locks) - 1; i >= 0; i-- {
		_ = s.locks[i].Unlock(ctx)
	}
}
