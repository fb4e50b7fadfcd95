package job

import (
	"context"
	"log"
	"time"

	"bankapp/internal/service"
)

// TokenCleanupJob 刷新令牌清理任务
// 定期删除已过期或已作废的刷新令牌，防止表无限膨胀
type TokenCleanupJob struct {
	store    service.Store
	stopCh   chan struct{}
	interval time.Duration
}

func NewTokenCleanupJob(store service.Store) *TokenCleanupJob {
	return &TokenCleanupJob{
		store:    store,
		stopCh:   make(chan struct{}),
		interval: time.Hour,
	}
}

func (j *TokenCleanupJob) Start(ctx context.Context) {
	log.Println("[TokenCleanup] 令牌清理任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[TokenCleanup] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[TokenCleanup] 任务停止")
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

func (j *TokenCleanupJob) Stop() {
	close(j.stopCh)
}

func (j *TokenCleanupJob) cleanup(ctx context.Context) {
	deleted, err := j.store.RefreshTokens().DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Printf("[TokenCleanup] 清理失败: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[TokenCleanup] 清理过期令牌 %d 条", deleted)
	}
}
