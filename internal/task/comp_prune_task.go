package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CachePruner 清理过期 comp 缓存
type CachePruner interface {
	PruneCache(ctx context.Context) (int64, error)
}

// CompPruneTask 定时清理 sold_comps
type CompPruneTask struct {
	pruner CachePruner
	cron   *cron.Cron
	spec   string
}

func NewCompPruneTask(pruner CachePruner, spec string) *CompPruneTask {
	return &CompPruneTask{
		pruner: pruner,
		cron:   cron.New(cron.WithSeconds()),
		spec:   spec,
	}
}

func (t *CompPruneTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.execute(ctx)
	})
	if err != nil {
		return err
	}
	t.cron.Start()
	logrus.Infof("[CompPruneTask] comp 缓存清理任务已启动 (%s)", t.spec)
	return nil
}

func (t *CompPruneTask) Stop() {
	<-t.cron.Stop().Done()
}

func (t *CompPruneTask) execute(ctx context.Context) {
	n, err := t.pruner.PruneCache(ctx)
	if err != nil {
		logrus.Errorf("[CompPruneTask] 清理失败: %v", err)
		return
	}
	if n > 0 {
		logrus.Infof("[CompPruneTask] 已清理 %d 条过期 comp", n)
	}
}
