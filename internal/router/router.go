package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bnt-kitchen/internal/authz"
	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/constants"
	adminhandlers "github.com/bnt-kitchen/internal/http/handlers/admin"
	publichandlers "github.com/bnt-kitchen/internal/http/handlers/public"
	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/provider"

	"github.com/gin-gonic/gin"
)

const defaultMetricsPath = "/metrics"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bnt"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   cfg.Order.MaxCheckoutPerMinute,
		MessageKey:    "error.rate_limited",
		FailOpen:      true,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware(c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	// 本地上传的图片
	uploadPrefix := strings.TrimSpace(cfg.Upload.PublicPrefix)
	if uploadPrefix == "" {
		uploadPrefix = "/uploads"
	}
	uploadDir := strings.TrimSpace(cfg.Upload.Dir)
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	r.Static(uploadPrefix, uploadDir)

	adminAuth := []gin.HandlerFunc{
		JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService),
		AdminRBACMiddleware(c.AuthzService),
	}

	// 媒体库接口，沿用前端既有路径与裸 JSON 结构
	mediaGroup := r.Group("/api/media", RawErrorMiddleware())
	mediaGroup.Use(adminAuth...)
	{
		mediaGroup.GET("", adminHandler.ListMedia)
		mediaGroup.POST("", adminHandler.UploadMedia)
		mediaGroup.DELETE("", adminHandler.DeleteMediaBatch)

		mediaGroup.GET("/cloudinary", adminHandler.ListCloudinaryMedia)
		mediaGroup.POST("/cloudinary", adminHandler.SyncCloudinaryMedia)
		mediaGroup.DELETE("/cloudinary", adminHandler.DeleteCloudinaryMedia)

		mediaGroup.GET("/firestore", adminHandler.ListMediaMetadata)
		mediaGroup.POST("/firestore", adminHandler.CreateMediaMetadata)
		mediaGroup.PUT("/firestore", adminHandler.UpdateMediaMetadata)
		mediaGroup.DELETE("/firestore", adminHandler.DeleteMediaMetadata)

		mediaGroup.GET("/:id", adminHandler.GetMedia)
		mediaGroup.DELETE("/:id", adminHandler.DeleteMedia)
		mediaGroup.PATCH("/:id", adminHandler.PatchMedia)
	}

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/menu", publicHandler.GetMenu)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
			public.GET("/categories", publicHandler.GetCategories)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
			public.GET("/order-status-badges", publicHandler.GetOrderStatusBadges)
			public.POST("/shipping/quote", publicHandler.QuoteShipping)
		}

		// 购物车会话，按 X-Cart-ID 区分，无需登录
		cart := apiV1.Group("/cart")
		{
			cart.GET("", publicHandler.GetCart)
			cart.DELETE("", publicHandler.ClearCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.PUT("/items/:product_id", publicHandler.UpdateCartItem)
			cart.DELETE("/items/:product_id", publicHandler.DeleteCartItem)
		}

		// 顾客认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 下单与订单查询：游客可下单，带 token 时归属到顾客
		orders := apiV1.Group("/orders")
		orders.Use(OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey, c.UserAuthService))
		{
			orders.POST("", RateLimitMiddleware(redisClient, checkoutRule, KeyByHeader(constants.CartIDHeader)), publicHandler.CreateOrder)
			orders.GET("/:id", publicHandler.GetOrder)
		}

		// 顾客接口（需鉴权）
		user := apiV1.Group("/me")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserAuthService))
		{
			user.GET("", publicHandler.GetCurrentUser)
			user.PUT("/profile", publicHandler.UpdateUserProfile)
			user.PUT("/password", publicHandler.ChangeUserPassword)
			user.GET("/orders", publicHandler.ListMyOrders)
		}

		// 员工接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("", adminAuth...)
			{
				authorized.PUT("/password", adminHandler.ChangePassword)

				// 订单
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
				authorized.PATCH("/orders/:id/payment", adminHandler.AdminUpdatePaymentStatus)
				authorized.GET("/dashboard/order-counts", adminHandler.AdminOrderCounts)

				// 菜单
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)
				authorized.GET("/categories", adminHandler.GetAdminCategories)
				authorized.POST("/categories", adminHandler.CreateCategory)
				authorized.PUT("/categories/:id", adminHandler.UpdateCategory)
				authorized.DELETE("/categories/:id", adminHandler.DeleteCategory)

				// 顾客
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.PATCH("/users/:id/status", adminHandler.UpdateAdminUserStatus)

				// 设置
				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)

				// 媒体直传签名
				authorized.POST("/media/sign", adminHandler.SignMediaUpload)

				// 权限
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	if cfg.Metrics.Enabled && c.Metrics != nil {
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = defaultMetricsPath
		}
		r.GET(metricsPath, gin.WrapH(c.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成可授权的权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !isAdminGuardedPath(item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func isAdminGuardedPath(path string) bool {
	if path == "/api/v1/admin/login" {
		return false
	}
	if !strings.HasPrefix(path, "/api/") {
		return false
	}
	return authz.IsGuardedObject(authz.NormalizeObject(path))
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] == "api" && segments[1] == "media" {
		return "media"
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
