package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ebay_lister_v1/internal/api/dto"
	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
	"ebay_lister_v1/internal/service"
	"ebay_lister_v1/pkg/database"
)

// ==================== Mock ====================

type mockPublisher struct {
	items     []*model.InventoryItem
	queueErr  error
	PublishFn func(id int64) (*service.PublishReport, error)

	mu        sync.Mutex
	published []int64
	inFlight  int32
	maxFlight int32
}

func (m *mockPublisher) QueuedItems(ctx context.Context, limit int) ([]*model.InventoryItem, error) {
	if m.queueErr != nil {
		return nil, m.queueErr
	}
	if len(m.items) > limit {
		return m.items[:limit], nil
	}
	return m.items, nil
}

func (m *mockPublisher) Publish(ctx context.Context, id int64, req *dto.PublishRequest) (*service.PublishReport, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&m.maxFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxFlight, cur, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	m.mu.Lock()
	m.published = append(m.published, id)
	m.mu.Unlock()

	if m.PublishFn != nil {
		return m.PublishFn(id)
	}
	return &service.PublishReport{Result: model.ListingResult{Success: true}}, nil
}

type mockRefresher struct {
	mu     sync.Mutex
	calls  []int64
	failID int64
}

func (m *mockRefresher) RefreshAccessToken(ctx context.Context, a *model.MarketplaceAccount) error {
	m.mu.Lock()
	m.calls = append(m.calls, a.ID)
	m.mu.Unlock()
	if a.ID == m.failID {
		return errors.New("denied")
	}
	return nil
}

type mockPruner struct {
	calls int
}

func (m *mockPruner) PruneCache(ctx context.Context) (int64, error) {
	m.calls++
	return 2, nil
}

func queuedItems(n int) []*model.InventoryItem {
	items := make([]*model.InventoryItem, n)
	for i := range items {
		items[i] = &model.InventoryItem{Status: model.ItemStatusQueued}
		items[i].ID = int64(i + 1)
	}
	return items
}

// ==================== PublishTask ====================

func TestPublishTask_BoundedConcurrency(t *testing.T) {
	pub := &mockPublisher{items: queuedItems(8)}
	task := NewPublishTask(pub, "*/30 * * * * *")
	task.SetConcurrency(2, 10, 0)

	listed := task.execute(context.Background())

	if listed != 8 {
		t.Errorf("listed = %d, want 8", listed)
	}
	if len(pub.published) != 8 {
		t.Errorf("published = %d, want 8", len(pub.published))
	}
	if pub.maxFlight > 2 {
		t.Errorf("maxFlight = %d, want <= 2", pub.maxFlight)
	}
}

func TestPublishTask_CountsOnlySuccess(t *testing.T) {
	pub := &mockPublisher{
		items: queuedItems(4),
		PublishFn: func(id int64) (*service.PublishReport, error) {
			switch id {
			case 2:
				return nil, service.ErrItemBusy
			case 3:
				return &service.PublishReport{Result: model.ListingResult{ErrorKind: "api_error"}}, nil
			}
			return &service.PublishReport{Result: model.ListingResult{Success: true}}, nil
		},
	}
	task := NewPublishTask(pub, "*/30 * * * * *")
	task.SetConcurrency(4, 10, 0)

	if listed := task.execute(context.Background()); listed != 2 {
		t.Errorf("listed = %d, want 2", listed)
	}
}

func TestPublishTask_BatchLimit(t *testing.T) {
	pub := &mockPublisher{items: queuedItems(5)}
	task := NewPublishTask(pub, "*/30 * * * * *")
	task.SetConcurrency(1, 3, 0)

	task.execute(context.Background())
	if len(pub.published) != 3 {
		t.Errorf("published = %d, want 3", len(pub.published))
	}
}

func TestPublishTask_QueueError(t *testing.T) {
	pub := &mockPublisher{queueErr: errors.New("db down")}
	task := NewPublishTask(pub, "*/30 * * * * *")
	if listed := task.execute(context.Background()); listed != 0 {
		t.Errorf("listed = %d, want 0", listed)
	}
}

func TestPublishTask_SkipsWhenRunning(t *testing.T) {
	pub := &mockPublisher{items: queuedItems(1)}
	task := NewPublishTask(pub, "*/30 * * * * *")
	task.running.Lock()
	defer task.running.Unlock()

	if listed := task.execute(context.Background()); listed != 0 || len(pub.published) != 0 {
		t.Error("上一轮未结束时应跳过")
	}
}

// ==================== TokenTask ====================

func TestTokenTask_RefreshesExpiringAccounts(t *testing.T) {
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, &model.MarketplaceAccount{})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()
	now := time.Now()

	accounts := []*model.MarketplaceAccount{
		{Name: "soon", TokenStatus: model.TokenStatusValid, RefreshToken: "r1", TokenExpiresAt: now.Add(2 * time.Minute)},
		{Name: "later", TokenStatus: model.TokenStatusValid, RefreshToken: "r2", TokenExpiresAt: now.Add(2 * time.Hour)},
		{Name: "expired", TokenStatus: model.TokenStatusExpired, RefreshToken: "r3", TokenExpiresAt: now.Add(-time.Hour)},
		{Name: "invalid", TokenStatus: model.TokenStatusInvalid, RefreshToken: "r4", TokenExpiresAt: now.Add(-time.Hour)},
	}
	for _, a := range accounts {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	refresher := &mockRefresher{failID: accounts[2].ID}
	task := NewTokenTask(repo, refresher, "0 */5 * * * *")
	task.sleepTime = 0

	refreshed := task.refreshJob(ctx)

	if len(refresher.calls) != 2 {
		t.Errorf("refresh calls = %v, want soon + expired", refresher.calls)
	}
	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}
}

// ==================== CompPruneTask / TaskManager ====================

func TestCompPruneTask_Execute(t *testing.T) {
	pruner := &mockPruner{}
	NewCompPruneTask(pruner, "0 0 3 * * *").execute(context.Background())
	if pruner.calls != 1 {
		t.Errorf("calls = %d, want 1", pruner.calls)
	}
}

func TestTaskManager_InvalidSpec(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{Pruner: &mockPruner{}}, &TaskManagerConfig{CompPruneSpec: "not a cron"})
	if err := tm.Start(); err == nil {
		t.Error("无效 cron 表达式应报错")
	}
}

func TestTaskManager_StartStop(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{
		Publisher: &mockPublisher{},
		Pruner:    &mockPruner{},
	}, &TaskManagerConfig{
		PublishSpec:   "0 0 0 1 1 *",
		CompPruneSpec: "0 0 3 * * *",
	})
	if tm.tokenTask != nil {
		t.Error("未提供账号仓储时不应启用 token 任务")
	}
	if err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tm.Stop()
}
