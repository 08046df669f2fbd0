package api

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cmms-backend/config"
	"cmms-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. When storeAvailable is
// false every data route answers 503.
func NewRouter(h *Handler, cfg config.ServerConfig, storeAvailable bool, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(log), mw.CORS(cfg.AllowedOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	// Push key lookup works without a database.
	r.GET("/api/vapid_public_key", rateLimiter, h.GetPushKey)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.RequireStore(storeAvailable))
	{
		api.GET("/meta", caching, h.GetMeta)

		api.GET("/assets", h.ListAssets)
		api.POST("/assets", h.CreateAsset)
		api.GET("/assets/:id", h.GetAsset)
		api.PUT("/assets/:id", h.UpdateAsset)
		api.DELETE("/assets/:id", h.DeleteAsset)

		api.GET("/suppliers", h.ListSuppliers)
		api.POST("/suppliers", h.CreateSupplier)
		api.GET("/suppliers/:id", h.GetSupplier)
		api.PUT("/suppliers/:id", h.UpdateSupplier)
		api.DELETE("/suppliers/:id", h.DeleteSupplier)

		api.GET("/spare-parts", h.ListParts)
		api.PUT("/spare-parts", h.SavePart)
		api.POST("/spare-parts/import", h.ImportParts)
		api.GET("/spare-parts/:id", h.GetPart)
		api.DELETE("/spare-parts/:id", h.DeletePart)
		api.POST("/spare-parts/:id/stock", h.AdjustStock)
		api.GET("/spare-parts/:id/transactions", h.PartTransactions)
		api.GET("/stock-transactions", h.ListStockTransactions)

		api.GET("/work-orders", h.ListWorkOrders)
		api.POST("/work-orders", h.CreateWorkOrder)
		api.GET("/work-orders/next-number", h.NextWONumber)
		api.GET("/work-orders/:id", h.GetWorkOrder)
		api.PUT("/work-orders/:id", h.UpdateWorkOrder)
		api.DELETE("/work-orders/:id", h.DeleteWorkOrder)
		api.GET("/work-orders/:id/parts", h.WorkOrderParts)
		api.POST("/work-orders/:id/parts", h.ConsumePart)

		api.GET("/pm-plans", h.ListPMPlans)
		api.POST("/pm-plans", h.CreatePMPlan)
		api.GET("/pm-plans/:id", h.GetPMPlan)
		api.PUT("/pm-plans/:id", h.UpdatePMPlan)
		api.DELETE("/pm-plans/:id", h.DeletePMPlan)
		api.POST("/pm-plans/:id/complete", h.CompletePMPlan)

		api.GET("/activity-reports", h.ListActivityReports)
		api.POST("/activity-reports", h.CreateActivityReport)
		api.GET("/activity-reports/:id", h.GetActivityReport)
		api.PUT("/activity-reports/:id", h.UpdateActivityReport)
		api.DELETE("/activity-reports/:id", h.DeleteActivityReport)

		api.GET("/dashboard", h.Dashboard)
		api.GET("/dashboard/assets", h.AssetTotals)

		api.GET("/export/:table", h.Export)

		api.GET("/backups", h.ListBackups)
		api.GET("/backups/:file", h.DownloadBackup)
		api.POST("/backups/:table", h.CreateBackup)

		api.POST("/notifications/digest", h.SendDigest)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
	}

	return r
}
