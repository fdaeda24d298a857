package response

import "github.com/gin-gonic/gin"

// 媒体库接口沿用前端既有的裸 JSON 结构，HTTP 状态码即错误类型：
// 成功 {items:[...]} / {item:{...}}，失败 {error:"..."}

// Items 列表成功响应
func Items(c *gin.Context, status int, items interface{}) {
	c.JSON(status, gin.H{"items": items})
}

// ItemsWithTotal 带总数的列表成功响应
func ItemsWithTotal(c *gin.Context, status int, items interface{}, total int64) {
	c.JSON(status, gin.H{"items": items, "total": total})
}

// Item 单条成功响应
func Item(c *gin.Context, status int, item interface{}) {
	c.JSON(status, gin.H{"item": item})
}

// Fail 裸 JSON 错误响应
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
