package task

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ebay_lister_v1/internal/repository"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理刊登队列、token 保活、comp 缓存清理
type TaskManager struct {
	publishTask *PublishTask
	tokenTask   *TokenTask
	pruneTask   *CompPruneTask
}

// TaskManagerDeps 任务管理器依赖，nil 表示不启用对应任务
type TaskManagerDeps struct {
	Publisher   QueuePublisher
	AccountRepo repository.AccountRepository
	Refresher   TokenRefresher
	Pruner      CachePruner
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	PublishSpec        string
	PublishConcurrency int
	PublishBatch       int
	TokenRefreshSpec   string
	CompPruneSpec      string
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	tm := &TaskManager{}

	if deps.Publisher != nil && cfg.PublishSpec != "" {
		tm.publishTask = NewPublishTask(deps.Publisher, cfg.PublishSpec)
		tm.publishTask.SetConcurrency(cfg.PublishConcurrency, cfg.PublishBatch, 200*time.Millisecond)
	}
	if deps.AccountRepo != nil && deps.Refresher != nil && cfg.TokenRefreshSpec != "" {
		tm.tokenTask = NewTokenTask(deps.AccountRepo, deps.Refresher, cfg.TokenRefreshSpec)
	}
	if deps.Pruner != nil && cfg.CompPruneSpec != "" {
		tm.pruneTask = NewCompPruneTask(deps.Pruner, cfg.CompPruneSpec)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有已启用任务，任一 cron 表达式无效即返回错误
func (tm *TaskManager) Start() error {
	logrus.Info("[TaskManager] 正在启动定时任务...")

	var errs []error
	if tm.tokenTask != nil {
		errs = append(errs, tm.tokenTask.Start())
	}
	if tm.publishTask != nil {
		errs = append(errs, tm.publishTask.Start())
	}
	if tm.pruneTask != nil {
		errs = append(errs, tm.pruneTask.Start())
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	logrus.Info("[TaskManager] 定时任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	logrus.Info("[TaskManager] 正在停止定时任务...")

	if tm.publishTask != nil {
		tm.publishTask.Stop()
	}
	if tm.tokenTask != nil {
		tm.tokenTask.Stop()
	}
	if tm.pruneTask != nil {
		tm.pruneTask.Stop()
	}

	logrus.Info("[TaskManager] 定时任务已全部停止")
}
