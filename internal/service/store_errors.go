package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// StoreErrorCode 数据存储错误分类
type StoreErrorCode string

const (
	StoreErrPermissionDenied  StoreErrorCode = "permission_denied"
	StoreErrUnavailable       StoreErrorCode = "unavailable"
	StoreErrResourceExhausted StoreErrorCode = "resource_exhausted"
	StoreErrNotFound          StoreErrorCode = "not_found"
	StoreErrUnknown           StoreErrorCode = "unknown"
)

// storeErrorMessages 固定消息表，未知错误附加底层错误文本
var storeErrorMessages = map[StoreErrorCode]string{
	StoreErrPermissionDenied:  "you do not have permission to perform this operation",
	StoreErrUnavailable:       "the data service is temporarily unavailable, please try again",
	StoreErrResourceExhausted: "the data service quota has been exceeded, please try again later",
	StoreErrNotFound:          "the requested record does not exist",
	StoreErrUnknown:           "an unexpected error occurred",
}

// StoreError 数据存储调用失败，Op 为出错的操作名
type StoreError struct {
	Op   string
	Code StoreErrorCode
	Err  error
}

func (e *StoreError) Error() string {
	return e.Message()
}

// Unwrap 返回底层错误
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Message 面向用户的消息
func (e *StoreError) Message() string {
	msg, ok := storeErrorMessages[e.Code]
	if !ok {
		msg = storeErrorMessages[StoreErrUnknown]
	}
	if e.Code == StoreErrUnknown || !ok {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s", msg, e.Err.Error())
		}
	}
	return msg
}

// I18nKey 对应的翻译键
func (e *StoreError) I18nKey() string {
	return "error.store_" + string(e.Code)
}

// wrapStoreError 将底层存储错误分类包装，nil 与已包装的错误原样返回
func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Code: ClassifyStoreError(err), Err: err}
}

// AsStoreError 提取 StoreError
func AsStoreError(err error) (*StoreError, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr, true
	}
	return nil, false
}

// sqliteCoded SQLite 驱动错误暴露的结果码
type sqliteCoded interface {
	Code() int
}

// SQLite 主结果码
const (
	sqlitePerm     = 3
	sqliteBusy     = 5
	sqliteLocked   = 6
	sqliteNoMem    = 7
	sqliteReadonly = 8
	sqliteFull     = 13
	sqliteCantOpen = 14
	sqliteAuth     = 23
)

// ClassifyStoreError 按 gorm / pgconn / sqlite / context 错误判定分类
func ClassifyStoreError(err error) StoreErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gorm.ErrRecordNotFound):
		return StoreErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return StoreErrUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgresCode(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return StoreErrUnavailable
	}
	if pgconn.Timeout(err) {
		return StoreErrUnavailable
	}

	var coded sqliteCoded
	if errors.As(err, &coded) {
		switch coded.Code() & 0xff {
		case sqlitePerm, sqliteReadonly, sqliteAuth:
			return StoreErrPermissionDenied
		case sqliteBusy, sqliteLocked, sqliteCantOpen:
			return StoreErrUnavailable
		case sqliteNoMem, sqliteFull:
			return StoreErrResourceExhausted
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "sql: database is closed"):
		return StoreErrUnavailable
	case strings.Contains(msg, "readonly database"), strings.Contains(msg, "permission denied"):
		return StoreErrPermissionDenied
	case strings.Contains(msg, "disk is full"), strings.Contains(msg, "too many connections"):
		return StoreErrResourceExhausted
	}
	return StoreErrUnknown
}

func classifyPostgresCode(code string) StoreErrorCode {
	switch {
	case code == "42501", code == "28000", code == "28P01":
		return StoreErrPermissionDenied
	case strings.HasPrefix(code, "53"), code == "54000":
		return StoreErrResourceExhausted
	case strings.HasPrefix(code, "08"), code == "57P01", code == "57P02", code == "57P03", code == "57014":
		return StoreErrUnavailable
	case code == "P0002":
		return StoreErrNotFound
	default:
		return StoreErrUnknown
	}
}
