package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ebay_lister_v1/internal/controller"
	"ebay_lister_v1/internal/middleware"
)

// Options 路由依赖
type Options struct {
	JWT            *middleware.JWTConfig
	ActionCooldown time.Duration
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, opts Options, listingCtl *controller.ListingController, accountCtl *controller.AccountController) {
	// 1. 健康检查（无需认证）
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cooldown := middleware.NewCooldown()
	writer := middleware.RequireRole(middleware.RoleOperator)

	// 2. API 路由组
	api := r.Group("/api", middleware.JWTAuth(opts.JWT))
	{
		// POST /api/pricing/quote
		api.POST("/pricing/quote", listingCtl.Quote)

		// POST /api/identify
		api.POST("/identify", writer, listingCtl.Identify)
		api.GET("/ai/usage", listingCtl.AIUsage)

		accounts := api.Group("/accounts", writer)
		{
			accounts.POST("", accountCtl.Register)
			accounts.GET("/:id", accountCtl.Get)
			accounts.POST("/:id/refresh", accountCtl.Refresh)
		}

		items := api.Group("/items")
		{
			items.GET("", listingCtl.ListItems)
			items.POST("", writer, listingCtl.CreateItem)
			items.GET("/:id", listingCtl.GetItem)
			items.POST("/:id/photos", writer, listingCtl.UploadPhoto)
			items.POST("/:id/identify", writer, listingCtl.IdentifyItem)
			items.POST("/:id/appraise", writer,
				middleware.ItemCooldown(cooldown, "appraise", opts.ActionCooldown),
				listingCtl.Appraise)
			items.POST("/:id/publish", writer,
				middleware.ItemCooldown(cooldown, "publish", opts.ActionCooldown),
				listingCtl.Publish)
			items.POST("/:id/enqueue", writer, listingCtl.Enqueue)
			items.GET("/:id/attempts", listingCtl.Attempts)
			// GET /api/items/:id/stream (SSE)
			items.GET("/:id/stream", listingCtl.StreamProgress)
		}
	}
}
