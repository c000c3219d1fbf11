package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ebay_lister_v1/internal/config"
	"ebay_lister_v1/internal/controller"
	"ebay_lister_v1/internal/middleware"
	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
	"ebay_lister_v1/internal/router"
	"ebay_lister_v1/internal/service"
	"ebay_lister_v1/internal/task"
	"ebay_lister_v1/pkg/database"
	"ebay_lister_v1/pkg/ebay"
	"ebay_lister_v1/pkg/net"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("配置加载失败: %v", err)
	}
	config.SetupLogger(cfg.Log)

	// 1. 初始化数据库
	db := initDatabase(cfg.Database)

	// 2. 初始化依赖
	deps := initDependencies(cfg, db)

	// 3. 启动定时任务
	tasks := initTasks(cfg.Task, deps)

	// 4. 初始化路由
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	router.InitRoutes(r, router.Options{
		JWT:            jwtConfig(cfg.Server),
		ActionCooldown: cfg.Server.ActionCooldown,
	}, deps.ListingCtl, deps.AccountCtl)

	// 5. 启动服务
	startServer(cfg.Server, r, tasks)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB       *gorm.DB
	Repos    *Repositories
	Services *Services

	ListingCtl *controller.ListingController
	AccountCtl *controller.AccountController
}

// Repositories 仓库集合
type Repositories struct {
	Item      repository.ItemRepository
	Comp      repository.CompRepository
	Account   repository.AccountRepository
	Attempt   repository.AttemptRepository
	AICallLog repository.AICallLogRepository
}

// Services 服务集合
type Services struct {
	Auth     *service.AuthService
	Market   *service.MarketDataService
	Storage  *service.StorageService
	Identify *service.IdentifyService
	Listing  *service.ListingService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(c config.DatabaseConfig) *gorm.DB {
	return database.MustOpen(database.Options{
		Driver:   c.Driver,
		DSN:      c.DSN,
		LogLevel: c.LogLevel,
	},
		// Account
		&model.MarketplaceAccount{},
		// Item
		&model.InventoryItem{}, &model.ListingAttempt{},
		// Market data
		&model.SoldListingRecord{},
		// AI
		&model.AICallLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Item:      repository.NewItemRepository(db),
		Comp:      repository.NewCompRepository(db),
		Account:   repository.NewAccountRepository(db),
		Attempt:   repository.NewAttemptRepository(db),
		AICallLog: repository.NewAICallLogRepository(db),
	}

	// -------- HTTP 客户端（无自动重试） --------
	mp := cfg.Marketplace
	inventoryHTTP := mustClient(net.ClientOptions{BaseURL: mp.BaseURL, Timeout: mp.Timeout, Proxy: mp.Proxy, Debug: mp.Debug})
	marketHTTP := mustClient(net.ClientOptions{BaseURL: cfg.MarketData.BaseURL, Timeout: mp.Timeout, Proxy: mp.Proxy, Debug: mp.Debug})
	oauthHTTP := mustClient(net.ClientOptions{Timeout: mp.Timeout, Proxy: mp.Proxy})

	inventoryAPI := ebay.NewClient(inventoryHTTP, mp.ContentLanguage, mp.MarketplaceID)
	marketAPI := ebay.NewClient(marketHTTP, mp.ContentLanguage, mp.MarketplaceID)

	// -------- 基础服务 --------
	services := &Services{}
	services.Auth = service.NewAuthService(repos.Account, oauthHTTP, service.OAuthConfig{
		TokenURL:     cfg.OAuth.TokenURL,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		Scopes:       cfg.OAuth.Scopes,
	})
	services.Market = service.NewMarketDataService(repos.Comp, marketAPI, service.MarketDataConfig{
		Limit:    cfg.MarketData.Limit,
		CacheTTL: cfg.MarketData.CacheTTL,
	})

	storage, err := service.NewStorageService(service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		BasePath:  cfg.Storage.BasePath,
		LocalDir:  cfg.Storage.LocalDir,
	})
	if err != nil {
		logrus.Fatalf("存储服务初始化失败: %v", err)
	}
	services.Storage = storage

	services.Identify = service.NewIdentifyService(service.IdentifyConfig{
		APIKey: cfg.AI.GeminiKey,
		Model:  cfg.AI.Model,
	}, repos.AICallLog)

	// -------- 刊登流水线 --------
	pipeline := service.NewPublishPipeline(inventoryAPI, nil, storage, service.PipelineConfig{
		MarketplaceID:       mp.MarketplaceID,
		Currency:            mp.Currency,
		ListingURLBase:      mp.ListingURLBase,
		MerchantLocationKey: mp.MerchantLocationKey,
		MaxImages:           mp.MaxImages,
		RequireImages:       mp.RequireImages,
		Policies: model.ListingPolicies{
			FulfillmentPolicyID: mp.FulfillmentPolicyID,
			PaymentPolicyID:     mp.PaymentPolicyID,
			ReturnPolicyID:      mp.ReturnPolicyID,
		},
		Codes: service.ListingCodes{
			Categories: mp.CategoryCodes,
			Conditions: mp.ConditionCodes,
		},
	})

	services.Listing = service.NewListingService(service.ListingDeps{
		Items:    repos.Item,
		Attempts: repos.Attempt,
		Sessions: func(accountID int64) service.AuthProvider {
			return services.Auth.Session(accountID)
		},
		Comps:      services.Market,
		Photos:     storage,
		Identifier: services.Identify,
		Pipeline:   pipeline,
	})

	// -------- Controller 层 --------
	return &Dependencies{
		DB:         db,
		Repos:      repos,
		Services:   services,
		ListingCtl: controller.NewListingController(services.Listing, services.Identify),
		AccountCtl: controller.NewAccountController(services.Auth),
	}
}

func mustClient(opts net.ClientOptions) *resty.Client {
	c, err := net.NewClient(opts)
	if err != nil {
		logrus.Fatalf("HTTP 客户端初始化失败: %v", err)
	}
	return c
}

func jwtConfig(c config.ServerConfig) *middleware.JWTConfig {
	secret := c.JWTSecret
	if secret == "" {
		// 未配置密钥时使用随机值，所有外部 token 均无效
		secret = uuid.NewString()
		logrus.Warn("未配置 JWT_SECRET，已使用随机密钥，API 将拒绝所有请求")
	}
	return &middleware.JWTConfig{
		SecretKey: secret,
		TokenTTL:  c.JWTTokenTTL,
		Issuer:    c.JWTIssuer,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(c config.TaskConfig, deps *Dependencies) *task.TaskManager {
	tm := task.NewTaskManager(&task.TaskManagerDeps{
		Publisher:   deps.Services.Listing,
		AccountRepo: deps.Repos.Account,
		Refresher:   deps.Services.Auth,
		Pruner:      deps.Services.Market,
	}, &task.TaskManagerConfig{
		PublishSpec:        c.PublishSpec,
		PublishConcurrency: c.PublishConcurrency,
		PublishBatch:       c.PublishBatch,
		TokenRefreshSpec:   c.TokenRefreshSpec,
		CompPruneSpec:      c.CompPruneSpec,
	})
	if err := tm.Start(); err != nil {
		logrus.Fatalf("定时任务启动失败: %v", err)
	}
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后先停任务再关 HTTP
func startServer(c config.ServerConfig, r *gin.Engine, tasks *task.TaskManager) {
	srv := &http.Server{
		Addr:    ":" + c.Port,
		Handler: r,
	}

	go func() {
		logrus.Infof("服务启动在 :%s", c.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("正在关闭服务...")
	tasks.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("服务强制关闭: %v", err)
	}

	logrus.Info("服务已退出")
}
