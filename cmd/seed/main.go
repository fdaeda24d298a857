package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/authz"
	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/logger"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
	"github.com/bnt-kitchen/internal/service"
)

// 初始化数据库：建表、内置角色、店长账号、内置菜单
func main() {
	var skipMenu bool
	flag.BoolVar(&skipMenu, "skip-menu", false, "不导入内置菜单")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	defer func() {
		_ = models.CloseDB()
	}()

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("权限服务初始化失败: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("内置角色初始化失败: %v", err)
	}
	stdLog.Printf("内置角色已就绪")

	adminRepo := repository.NewAdminRepository(models.DB)
	authService := service.NewAuthService(cfg, adminRepo)
	adminService := service.NewAdminService(adminRepo, authzService, authService)

	password := strings.TrimSpace(os.Getenv("BNT_ADMIN_PASSWORD"))
	if password == "" {
		stdLog.Printf("未设置 BNT_ADMIN_PASSWORD，跳过店长账号")
	} else {
		admin, created, err := adminService.EnsureBootstrapAdmin(ctx, password)
		if err != nil {
			stdLog.Fatalf("店长账号创建失败: %v", err)
		}
		if created {
			stdLog.Printf("已创建店长账号: %s", admin.Username)
		} else {
			stdLog.Printf("店长账号已存在: %s", admin.Username)
		}
	}

	if skipMenu {
		return
	}
	productService := service.NewProductService(repository.NewProductRepository(models.DB), repository.NewCategoryRepository(models.DB))
	categories, products, err := productService.SeedFallbackMenu(ctx)
	if err != nil {
		stdLog.Fatalf("菜单导入失败: %v", err)
	}
	stdLog.Printf("菜单导入完成: 新增分类 %d, 新增菜品 %d", categories, products)
}
