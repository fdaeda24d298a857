package admin

import (
	"strings"

	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

type mediaSignPayload struct {
	Folder string `json:"folder"`
}

// SignMediaUpload 生成 Cloudinary 前端直传签名，密钥不出服务端
func (h *Handler) SignMediaUpload(c *gin.Context) {
	var req mediaSignPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	signature, err := h.MediaService.SignUpload(strings.TrimSpace(req.Folder))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrMediaBackendUnavailable, code: response.CodeServiceUnavailable, key: "error.media_cloudinary_disabled"},
		}, response.CodeInternal, "error.media_sign_failed")
		return
	}
	response.Success(c, signature)
}
