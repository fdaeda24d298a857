package repository

import "time"

// ProductListFilter 查询菜品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	Search       string
	OnlyActive   bool
	OnlyFeatured bool
	WithCategory bool
}

// OrderFetchFilter 后台订单拉取条件，只下推等值条件，其余在内存中过滤
type OrderFetchFilter struct {
	Status string
	UserID string
	Limit  int
}

// UserOrderListFilter 顾客订单列表条件
type UserOrderListFilter struct {
	Page     int
	PageSize int
	UserID   string
	Status   string
}

// UserListFilter 查询顾客列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// MediaListFilter 查询媒体库的过滤条件
type MediaListFilter struct {
	Page     int
	PageSize int
	Source   string
	Folder   string
	Search   string
}

// AuthzAuditLogListFilter 权限审计日志查询条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
