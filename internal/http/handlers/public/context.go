package public

import (
	"strings"

	"github.com/bnt-kitchen/internal/constants"
	handlershared "github.com/bnt-kitchen/internal/http/handlers/shared"
	"github.com/bnt-kitchen/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// optionalUserID 可选鉴权下的当前顾客，游客返回空串
func optionalUserID(c *gin.Context) string {
	return handlershared.GetContextString(c, "user_id")
}

// requireUserID 必须登录的接口读取当前顾客
func requireUserID(c *gin.Context) (string, bool) {
	userID := optionalUserID(c)
	if userID == "" {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	return userID, true
}

// cartIDFromRequest 购物车会话标识来自 X-Cart-ID 请求头，缺省时读取查询参数
func cartIDFromRequest(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(constants.CartIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("cart_id"))
}
