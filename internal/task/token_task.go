package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
)

// TokenRefresher 刷新单个账号 token
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, account *model.MarketplaceAccount) error
}

// TokenTask 平台账号 token 保活
type TokenTask struct {
	accountRepo repository.AccountRepository
	refresher   TokenRefresher
	cron        *cron.Cron
	spec        string

	// 提前刷新窗口
	refreshWithin    time.Duration
	concurrencyLimit int
	sleepTime        time.Duration
}

func NewTokenTask(accountRepo repository.AccountRepository, refresher TokenRefresher, spec string) *TokenTask {
	return &TokenTask{
		accountRepo:      accountRepo,
		refresher:        refresher,
		cron:             cron.New(cron.WithSeconds()),
		spec:             spec,
		refreshWithin:    10 * time.Minute,
		concurrencyLimit: 5,
		sleepTime:        50 * time.Millisecond,
	}
}

// Start 启动时先执行一次，再按 spec 定时执行
func (t *TokenTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.refreshJob(ctx)
	})
	if err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		logrus.Info("[TokenTask] 服务启动，正在执行首次 Token 检查...")
		t.refreshJob(ctx)
	}()

	t.cron.Start()
	logrus.Infof("[TokenTask] Token 保活任务已启动 (%s)", t.spec)
	return nil
}

func (t *TokenTask) Stop() {
	<-t.cron.Stop().Done()
	logrus.Info("[TokenTask] 已停止")
}

// refreshJob 返回刷新成功的账号数
func (t *TokenTask) refreshJob(ctx context.Context) int {
	accounts, err := t.accountRepo.FindExpiringTokens(ctx, t.refreshWithin)
	if err != nil {
		logrus.Errorf("[TokenTask] 账号过期状态查询失败: %v", err)
		return 0
	}
	if len(accounts) == 0 {
		return 0
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	refreshed := 0

	logrus.Infof("[TokenTask] 开始处理 %d 个账号的 Token 刷新，并发上限: %d", len(accounts), t.concurrencyLimit)

	for i := range accounts {
		select {
		case <-ctx.Done():
			logrus.Warn("[TokenTask] 任务超时停止")
			wg.Wait()
			return refreshed
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		go func(a *model.MarketplaceAccount) {
			defer wg.Done()
			defer func() { <-sem }()

			// 单个失败只记录，不影响其他账号
			if err := t.refresher.RefreshAccessToken(ctx, a); err != nil {
				logrus.WithField("account_id", a.ID).Warnf("[TokenTask] 账号 [%s] 刷新失败: %v", a.Name, err)
				return
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(&accounts[i])
	}

	wg.Wait()
	logrus.Infof("[TokenTask] 本轮 Token 刷新完成，成功 %d/%d", refreshed, len(accounts))
	return refreshed
}
