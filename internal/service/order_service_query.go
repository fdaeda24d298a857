package service

import (
	"context"
	"strings"
	"time"

	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"
)

// AdminOrderFilter 后台订单列表条件
type AdminOrderFilter struct {
	Status      string
	UserID      string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// ListOrdersForAdmin 有限拉取最近订单（状态与用户等值条件下推），其余条件在内存中过滤后分页
func (s *OrderService) ListOrdersForAdmin(ctx context.Context, filter AdminOrderFilter) ([]models.Order, int64, error) {
	status := normalizeOrderStatus(filter.Status)
	orders, err := s.orderRepo.FetchRecent(ctx, repository.OrderFetchFilter{
		Status: status,
		UserID: strings.TrimSpace(filter.UserID),
		Limit:  s.listFetchLimit,
	})
	if err != nil {
		return nil, 0, wrapStoreError("orders.list", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	from, to := filter.CreatedFrom, filter.CreatedTo
	matched := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if status != "" && order.Status != status {
			continue
		}
		if from != nil && order.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && order.CreatedAt.After(*to) {
			continue
		}
		if search != "" && !orderMatchesSearch(order, search) {
			continue
		}
		matched = append(matched, order)
	}

	total := int64(len(matched))
	page, pageSize := normalizeListPage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// ListOrdersByUser 顾客“我的订单”
func (s *OrderService) ListOrdersByUser(ctx context.Context, userID string, status string, page, pageSize int) ([]models.Order, int64, error) {
	page, pageSize = normalizeListPage(page, pageSize)
	orders, total, err := s.orderRepo.ListByUser(ctx, repository.UserOrderListFilter{
		UserID:   userID,
		Status:   normalizeOrderStatus(status),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, wrapStoreError("orders.list_by_user", err)
	}
	return orders, total, nil
}

// CountOrdersByStatus 各状态订单数量，未出现的状态补 0
func (s *OrderService) CountOrdersByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, wrapStoreError("orders.count", err)
	}
	for _, status := range allOrderStatusValues() {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

// QuoteShipping 按当前店铺设置计算运费与合计
func (s *OrderService) QuoteShipping(ctx context.Context, subtotal models.Money) (fee models.Money, total models.Money) {
	fee = s.shopSetting(ctx).ShippingFeeFor(subtotal)
	return fee, subtotal.Add(fee)
}

func orderMatchesSearch(order models.Order, search string) bool {
	fields := []string{
		order.ID,
		order.OrderCode,
		order.Customer.Name,
		order.Customer.Phone,
		order.Customer.Email,
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func normalizeListPage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
