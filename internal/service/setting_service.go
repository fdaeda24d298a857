package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"
	"github.com/bnt-kitchen/internal/repository"

	"github.com/shopspring/decimal"
)

// paymentMethodOrder 前台展示顺序；momo 与 zalopay 尚未接入，始终不可用
var paymentMethodOrder = []string{
	constants.PaymentMethodCOD,
	constants.PaymentMethodBankTransfer,
	constants.PaymentMethodMomo,
	constants.PaymentMethodZaloPay,
}

var unavailablePaymentMethods = map[string]struct{}{
	constants.PaymentMethodMomo:    {},
	constants.PaymentMethodZaloPay: {},
}

// BankTransferInfo 转账收款信息
type BankTransferInfo struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ShopSetting 店铺经营设置
type ShopSetting struct {
	ShippingFee           models.Money     `json:"shipping_fee"`
	FreeShippingThreshold models.Money     `json:"free_shipping_threshold"`
	PaymentMethods        []string         `json:"payment_methods"`
	BankTransfer          BankTransferInfo `json:"bank_transfer"`
}

// PaymentMethodOption 前台支付方式选项
type PaymentMethodOption struct {
	Method  string `json:"method"`
	Enabled bool   `json:"enabled"`
}

// ShippingFeeFor 小计严格大于门槛时免运费
func (s ShopSetting) ShippingFeeFor(subtotal models.Money) models.Money {
	if subtotal.Decimal.GreaterThan(s.FreeShippingThreshold.Decimal) {
		return models.NewMoney(0)
	}
	return s.ShippingFee
}

// PaymentMethodEnabled 支付方式是否可用
func (s ShopSetting) PaymentMethodEnabled(method string) bool {
	if _, ok := unavailablePaymentMethods[method]; ok {
		return false
	}
	for _, enabled := range s.PaymentMethods {
		if enabled == method {
			return true
		}
	}
	return false
}

// PaymentOptions 全部支付方式及可用状态
func (s ShopSetting) PaymentOptions() []PaymentMethodOption {
	options := make([]PaymentMethodOption, 0, len(paymentMethodOrder))
	for _, method := range paymentMethodOrder {
		options = append(options, PaymentMethodOption{Method: method, Enabled: s.PaymentMethodEnabled(method)})
	}
	return options
}

// ToJSON 转为设置表存储结构
func (s ShopSetting) ToJSON() models.JSON {
	methods := make([]interface{}, 0, len(s.PaymentMethods))
	for _, method := range s.PaymentMethods {
		methods = append(methods, method)
	}
	return models.JSON{
		constants.SettingFieldShippingFee:           s.ShippingFee.Int64(),
		constants.SettingFieldFreeShippingThreshold: s.FreeShippingThreshold.Int64(),
		constants.SettingFieldPaymentMethods:        methods,
		"bank_transfer": map[string]interface{}{
			"bank_name":      s.BankTransfer.BankName,
			"account_number": s.BankTransfer.AccountNumber,
			"account_name":   s.BankTransfer.AccountName,
		},
	}
}

// DefaultShopSetting 来自配置文件的默认值
func DefaultShopSetting(cfg config.OrderConfig) ShopSetting {
	return ShopSetting{
		ShippingFee:           models.NewMoney(cfg.ShippingFee),
		FreeShippingThreshold: models.NewMoney(cfg.FreeShippingThreshold),
		PaymentMethods:        []string{constants.PaymentMethodCOD, constants.PaymentMethodBankTransfer},
	}
}

// SettingService 设置业务服务
type SettingService struct {
	repo        repository.SettingRepository
	shopDefault ShopSetting
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository, orderCfg config.OrderConfig) *SettingService {
	return &SettingService{repo: repo, shopDefault: DefaultShopSetting(orderCfg)}
}

// GetConfig 获取站点配置（合并默认值）
func (s *SettingService) GetConfig(ctx context.Context, defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	for k, v := range defaults {
		data[k] = v
	}

	setting, err := s.repo.GetByKey(ctx, constants.SettingKeySiteConfig)
	if err != nil {
		return nil, wrapStoreError("settings.get", err)
	}
	if setting == nil {
		return data, nil
	}
	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(ctx context.Context, key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, wrapStoreError("settings.get", err)
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(ctx context.Context, key string, value map[string]interface{}) (models.JSON, error) {
	normalized, err := normalizeSettingValueByKey(key, value)
	if err != nil {
		return nil, err
	}
	setting, err := s.repo.Upsert(ctx, key, normalized)
	if err != nil {
		return nil, wrapStoreError("settings.upsert", err)
	}
	return setting.ValueJSON, nil
}

// GetShopSetting 读取店铺设置，存储值覆盖配置默认值；读取失败时返回默认值与错误
func (s *SettingService) GetShopSetting(ctx context.Context) (ShopSetting, error) {
	if s == nil {
		return ShopSetting{}, nil
	}
	value, err := s.GetByKey(ctx, constants.SettingKeyShopConfig)
	if err != nil {
		return s.shopDefault, err
	}
	return shopSettingFromJSON(value, s.shopDefault), nil
}

// normalizeShopSetting 校验并归一化店铺设置
func normalizeShopSetting(value map[string]interface{}) (models.JSON, error) {
	result := ShopSetting{PaymentMethods: []string{}}
	var err error
	if result.ShippingFee, err = parseSettingMoney(value[constants.SettingFieldShippingFee]); err != nil {
		return nil, fmt.Errorf("%w: shipping_fee", ErrShopConfigInvalid)
	}
	if result.FreeShippingThreshold, err = parseSettingMoney(value[constants.SettingFieldFreeShippingThreshold]); err != nil {
		return nil, fmt.Errorf("%w: free_shipping_threshold", ErrShopConfigInvalid)
	}
	methods, err := parsePaymentMethods(value[constants.SettingFieldPaymentMethods])
	if err != nil {
		return nil, err
	}
	result.PaymentMethods = methods
	if bank, ok := value["bank_transfer"].(map[string]interface{}); ok {
		result.BankTransfer = BankTransferInfo{
			BankName:      normalizeSettingTextWithRuneLimit(bank["bank_name"], 120),
			AccountNumber: normalizeSettingTextWithRuneLimit(bank["account_number"], 64),
			AccountName:   normalizeSettingTextWithRuneLimit(bank["account_name"], 120),
		}
	}
	return result.ToJSON(), nil
}

func shopSettingFromJSON(value models.JSON, fallback ShopSetting) ShopSetting {
	result := fallback
	if value == nil {
		return result
	}
	if fee, err := parseSettingMoney(value[constants.SettingFieldShippingFee]); err == nil {
		result.ShippingFee = fee
	}
	if threshold, err := parseSettingMoney(value[constants.SettingFieldFreeShippingThreshold]); err == nil {
		result.FreeShippingThreshold = threshold
	}
	if _, ok := value[constants.SettingFieldPaymentMethods]; ok {
		if methods, err := parsePaymentMethods(value[constants.SettingFieldPaymentMethods]); err == nil {
			result.PaymentMethods = methods
		}
	}
	if bank, ok := value["bank_transfer"].(map[string]interface{}); ok {
		result.BankTransfer = BankTransferInfo{
			BankName:      normalizeSettingText(bank["bank_name"]),
			AccountNumber: normalizeSettingText(bank["account_number"]),
			AccountName:   normalizeSettingText(bank["account_name"]),
		}
	}
	return result
}

func parsePaymentMethods(raw interface{}) ([]string, error) {
	list := make([]string, 0)
	switch value := raw.(type) {
	case nil:
	case []string:
		list = append(list, value...)
	case []interface{}:
		for _, item := range value {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: payment_methods", ErrShopConfigInvalid)
			}
			list = append(list, text)
		}
	default:
		return nil, fmt.Errorf("%w: payment_methods", ErrShopConfigInvalid)
	}

	result := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		method := strings.ToLower(strings.TrimSpace(item))
		if !isKnownPaymentMethod(method) {
			return nil, fmt.Errorf("%w: %s", ErrPaymentMethodInvalid, method)
		}
		if _, exists := seen[method]; exists {
			continue
		}
		seen[method] = struct{}{}
		result = append(result, method)
	}
	return result, nil
}

func isKnownPaymentMethod(method string) bool {
	for _, known := range paymentMethodOrder {
		if known == method {
			return true
		}
	}
	return false
}

func parseSettingMoney(raw interface{}) (models.Money, error) {
	var amount decimal.Decimal
	switch v := raw.(type) {
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	case float64:
		amount = decimal.NewFromFloat(v)
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return models.Money{}, err
		}
		amount = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return models.Money{}, fmt.Errorf("empty string")
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return models.Money{}, err
		}
		amount = decimal.NewFromInt(parsed)
	default:
		return models.Money{}, fmt.Errorf("unsupported value type")
	}
	if amount.IsNegative() {
		return models.Money{}, fmt.Errorf("negative amount")
	}
	return models.NewMoneyFromDecimal(amount), nil
}
