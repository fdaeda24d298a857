package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/bnt-kitchen/internal/http/handlers/shared"
	"github.com/bnt-kitchen/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.admin_id_invalid", "error.admin_id_type_invalid")
}

func currentUsername(c *gin.Context) string {
	return strings.TrimSpace(handlershared.GetContextString(c, "username"))
}

func currentRequestID(c *gin.Context) string {
	return strings.TrimSpace(handlershared.GetContextString(c, "request_id"))
}

func currentAdminIsSuper(c *gin.Context) bool {
	value, exists := c.Get("admin_is_super")
	if !exists {
		return false
	}
	flag, ok := value.(bool)
	return ok && flag
}

// parseUintParam 解析路径中的数字主键，失败时已写出响应
func parseUintParam(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(id), true
}
