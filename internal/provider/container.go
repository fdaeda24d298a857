package provider

import (
	"github.com/bnt-kitchen/internal/authz"
	"github.com/bnt-kitchen/internal/cache"
	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/media"
	"github.com/bnt-kitchen/internal/metrics"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/queue"
	"github.com/bnt-kitchen/internal/repository"
	"github.com/bnt-kitchen/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	OrderRepo         repository.OrderRepository
	ProductRepo       repository.ProductRepository
	CategoryRepo      repository.CategoryRepository
	MediaRepo         repository.MediaRepository
	SettingRepo       repository.SettingRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// 媒体存储后端
	LocalMedia      *media.LocalBackend
	CloudinaryMedia *media.CloudinaryBackend

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	AdminService      *service.AdminService
	UserAuthService   *service.UserAuthService
	CaptchaService    *service.CaptchaService
	SettingService    *service.SettingService
	ProductService    *service.ProductService
	CategoryService   *service.CategoryService
	CartService       *service.CartService
	OrderService      *service.OrderService
	MediaService      *service.MediaService
	AuthzAuditService *service.AuthzAuditService
	EmailService      *service.EmailService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     metrics.New(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化媒体后端
	c.initMediaBackends()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.MediaRepo = repository.NewMediaRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initMediaBackends() {
	rules := media.RulesFromConfig(c.Config.Upload)
	c.LocalMedia = media.NewLocalBackend(c.Config.Upload.Dir, c.Config.Upload.PublicPrefix, "", rules)

	cld, err := media.NewCloudinaryBackend(c.Config.Cloudinary, rules)
	switch {
	case err == nil:
		c.CloudinaryMedia = cld
	case media.IsDisabled(err):
		logger.Infow("provider_cloudinary_disabled")
	default:
		logger.Warnw("provider_init_cloudinary_failed", "error", err)
	}
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo, c.Config.Order)
	c.CaptchaService = service.NewCaptchaService(c.SettingService, c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.AdminService = service.NewAdminService(c.AdminRepo, c.AuthzService, c.AuthService)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.CartService = service.NewCartService(c.ProductService, c.Config.Cart)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.SettingService, c.QueueClient, c.Metrics, c.Config.Order)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)

	var (
		cloudinaryBackend media.Backend
		signer            *media.Signer
	)
	if c.CloudinaryMedia != nil {
		cloudinaryBackend = c.CloudinaryMedia
		if signer, err = media.NewSigner(c.Config.Cloudinary); err != nil {
			logger.Warnw("provider_init_cloudinary_signer_failed", "error", err)
			signer = nil
		}
	}
	c.MediaService = service.NewMediaService(c.MediaRepo, c.LocalMedia, cloudinaryBackend, signer, c.QueueClient, c.Metrics)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
