package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ebay_lister_v1/internal/api/dto"
	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/service"
)

// QueuePublisher 刊登队列的数据来源与执行方
type QueuePublisher interface {
	QueuedItems(ctx context.Context, limit int) ([]*model.InventoryItem, error)
	Publish(ctx context.Context, id int64, req *dto.PublishRequest) (*service.PublishReport, error)
}

// ==================== PublishTask 刊登队列任务 ====================

// PublishTask 定时扫描 queued 商品并刊登
type PublishTask struct {
	publisher QueuePublisher
	cron      *cron.Cron
	spec      string

	// 并发控制
	concurrencyLimit int
	batchSize        int
	sleepTime        time.Duration
	running          sync.Mutex
}

// NewPublishTask spec 为带秒的 cron 表达式
func NewPublishTask(publisher QueuePublisher, spec string) *PublishTask {
	return &PublishTask{
		publisher:        publisher,
		cron:             cron.New(cron.WithSeconds()),
		spec:             spec,
		concurrencyLimit: 3,
		batchSize:        10,
		sleepTime:        200 * time.Millisecond,
	}
}

// SetConcurrency 设置并发参数
func (t *PublishTask) SetConcurrency(limit, batch int, sleep time.Duration) {
	if limit > 0 {
		t.concurrencyLimit = limit
	}
	if batch > 0 {
		t.batchSize = batch
	}
	t.sleepTime = sleep
}

// Start 启动定时任务
func (t *PublishTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.execute(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	logrus.Infof("[PublishTask] 刊登队列任务已启动 (%s)", t.spec)
	return nil
}

// Stop 停止任务，等待进行中的批次结束
func (t *PublishTask) Stop() {
	<-t.cron.Stop().Done()
	logrus.Info("[PublishTask] 已停止")
}

// execute 执行一轮，上一轮未结束时跳过
func (t *PublishTask) execute(ctx context.Context) int {
	if !t.running.TryLock() {
		logrus.Debug("[PublishTask] 上一轮仍在执行，跳过")
		return 0
	}
	defer t.running.Unlock()

	items, err := t.publisher.QueuedItems(ctx, t.batchSize)
	if err != nil {
		logrus.Errorf("[PublishTask] 查询队列失败: %v", err)
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	logrus.Infof("[PublishTask] 发现 %d 个待刊登商品，并发上限: %d", len(items), t.concurrencyLimit)

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	listed := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			logrus.Warn("[PublishTask] 任务超时停止")
			wg.Wait()
			return listed
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			log := logrus.WithField("item_id", id)
			report, err := t.publisher.Publish(ctx, id, nil)
			if err != nil {
				log.Warnf("[PublishTask] 跳过: %v", err)
				return
			}
			if !report.Result.Success {
				log.Warnf("[PublishTask] 刊登失败 (%s): %s", report.Result.ErrorKind, report.Result.ErrorMessage)
				return
			}

			mu.Lock()
			listed++
			mu.Unlock()
			log.Infof("[PublishTask] 刊登成功: %s", report.Result.ListingURL)
		}(item.ID)
	}

	wg.Wait()
	logrus.Infof("[PublishTask] 本轮完成，成功 %d/%d", listed, len(items))
	return listed
}
