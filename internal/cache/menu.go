package cache

import (
	"context"
	"time"
)

const (
	menuCacheTTL = 2 * time.Minute
	menuCacheKey = "menu:public"
)

// GetPublicMenu 读取前台菜单缓存
func GetPublicMenu(ctx context.Context, variant string, dest interface{}) (bool, error) {
	return GetJSON(ctx, menuCacheKey+":"+variant, dest)
}

// SetPublicMenu 写入前台菜单缓存
func SetPublicMenu(ctx context.Context, variant string, value interface{}) error {
	return SetJSON(ctx, menuCacheKey+":"+variant, value, menuCacheTTL)
}

// InvalidatePublicMenu 删除前台菜单缓存，variant 为空时只删除默认列表
func InvalidatePublicMenu(ctx context.Context, variants ...string) error {
	if len(variants) == 0 {
		variants = []string{"all"}
	}
	for _, variant := range variants {
		if err := Del(ctx, menuCacheKey+":"+variant); err != nil {
			return err
		}
	}
	return nil
}
