package admin

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/bnt-kitchen/internal/http/response"
	"github.com/bnt-kitchen/internal/i18n"
	"github.com/bnt-kitchen/internal/media"
	"github.com/bnt-kitchen/internal/repository"
	"github.com/bnt-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

const maxMediaFilesPerRequest = 20

type mediaIDsPayload struct {
	IDs []string `json:"ids"`
}

type mediaPublicIDsPayload struct {
	PublicIDs []string `json:"public_ids"`
}

type mediaPatchPayload struct {
	Filename *string  `json:"filename"`
	Alt      *string  `json:"alt"`
	Tags     []string `json:"tags"`
	Folder   *string  `json:"folder"`
}

type mediaSyncPayload struct {
	Folder string `json:"folder"`
	Async  bool   `json:"async"`
}

type mediaMetadataPayload struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	PublicID string   `json:"public_id"`
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Format   string   `json:"format"`
	Bytes    int64    `json:"bytes"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Folder   string   `json:"folder"`
	Alt      string   `json:"alt"`
	Tags     []string `json:"tags"`
}

func (p mediaMetadataPayload) toInput() service.MediaMetadataInput {
	return service.MediaMetadataInput{
		ID:       p.ID,
		Source:   p.Source,
		PublicID: p.PublicID,
		URL:      p.URL,
		Filename: p.Filename,
		Format:   p.Format,
		Bytes:    p.Bytes,
		Width:    p.Width,
		Height:   p.Height,
		Folder:   p.Folder,
		Alt:      p.Alt,
		Tags:     p.Tags,
	}
}

type mediaFailure struct {
	target error
	status int
	key    string
}

var mediaFailures = []mediaFailure{
	{target: service.ErrMediaNotFound, status: http.StatusNotFound, key: "error.media_not_found"},
	{target: service.ErrMediaSourceInvalid, status: http.StatusBadRequest, key: "error.media_source_invalid"},
	{target: service.ErrMediaUploadInvalid, status: http.StatusBadRequest, key: "error.media_upload_invalid"},
	{target: service.ErrMediaIDsRequired, status: http.StatusBadRequest, key: "error.media_ids_required"},
	{target: service.ErrMediaBackendUnavailable, status: http.StatusServiceUnavailable, key: "error.media_cloudinary_disabled"},
}

// failMedia 媒体接口错误：业务错误按表映射，存储错误按分类映射
func failMedia(c *gin.Context, err error, fallbackKey string) {
	locale := i18n.ResolveLocale(c)
	for _, rule := range mediaFailures {
		if errors.Is(err, rule.target) {
			msg := i18n.T(locale, rule.key)
			if rule.target == service.ErrMediaUploadInvalid {
				msg = msg + ": " + err.Error()
			}
			response.Fail(c, rule.status, msg)
			return
		}
	}
	if storeErr, ok := service.AsStoreError(err); ok {
		status := http.StatusInternalServerError
		switch storeErr.Code {
		case service.StoreErrPermissionDenied:
			status = http.StatusForbidden
		case service.StoreErrNotFound:
			status = http.StatusNotFound
		case service.StoreErrUnavailable:
			status = http.StatusServiceUnavailable
		case service.StoreErrResourceExhausted:
			status = http.StatusTooManyRequests
		}
		msg := i18n.T(locale, storeErr.I18nKey())
		if storeErr.Code == service.StoreErrUnknown && storeErr.Err != nil {
			msg = msg + ": " + storeErr.Err.Error()
		}
		requestLog(c).Warnw("media_api_store_error", "op", storeErr.Op, "code", storeErr.Code, "error", storeErr.Err)
		response.Fail(c, status, msg)
		return
	}
	requestLog(c).Errorw("media_api_failed", "error", err)
	response.Fail(c, http.StatusInternalServerError, i18n.T(locale, fallbackKey))
}

func badMediaRequest(c *gin.Context) {
	response.Fail(c, http.StatusBadRequest, i18n.T(i18n.ResolveLocale(c), "error.bad_request"))
}

func mediaListFilter(c *gin.Context) repository.MediaListFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	page, pageSize = normalizePagination(page, pageSize)
	return repository.MediaListFilter{
		Page:     page,
		PageSize: pageSize,
		Source:   strings.TrimSpace(c.Query("source")),
		Folder:   strings.TrimSpace(c.Query("folder")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
}

// ListMedia GET /api/media
func (h *Handler) ListMedia(c *gin.Context) {
	items, total, err := h.MediaService.List(c.Request.Context(), mediaListFilter(c))
	if err != nil {
		failMedia(c, err, "error.media_fetch_failed")
		return
	}
	response.ItemsWithTotal(c, http.StatusOK, items, total)
}

// UploadMedia POST /api/media，multipart 字段 file（可多个），可选 source/folder/alt/tags
func (h *Handler) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badMediaRequest(c)
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 || len(files) > maxMediaFilesPerRequest {
		response.Fail(c, http.StatusBadRequest, i18n.T(i18n.ResolveLocale(c), "error.file_missing"))
		return
	}

	source := strings.TrimSpace(c.PostForm("source"))
	folder := strings.TrimSpace(c.PostForm("folder"))
	alt := strings.TrimSpace(c.PostForm("alt"))
	tags := splitMediaTags(c.PostFormArray("tags"))

	created := make([]interface{}, 0, len(files))
	for _, header := range files {
		item, err := h.uploadOne(c, header, source, folder, alt, tags)
		if err != nil {
			failMedia(c, err, "error.upload_failed")
			return
		}
		created = append(created, item)
	}
	response.Items(c, http.StatusCreated, created)
}

func (h *Handler) uploadOne(c *gin.Context, header *multipart.FileHeader, source, folder, alt string, tags []string) (interface{}, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return h.MediaService.Upload(c.Request.Context(), service.MediaUploadInput{
		Source: source,
		Upload: media.Upload{
			Filename: header.Filename,
			Size:     header.Size,
			Reader:   file,
			Folder:   folder,
		},
		Alt:  alt,
		Tags: tags,
	})
}

// DeleteMediaBatch DELETE /api/media，body {ids:[...]}
func (h *Handler) DeleteMediaBatch(c *gin.Context) {
	var req mediaIDsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badMediaRequest(c)
		return
	}
	deleted, err := h.MediaService.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		failMedia(c, err, "error.media_delete_failed")
		return
	}
	response.Items(c, http.StatusOK, deleted)
}

// GetMedia GET /api/media/:id
func (h *Handler) GetMedia(c *gin.Context) {
	item, err := h.MediaService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failMedia(c, err, "error.media_fetch_failed")
		return
	}
	response.Item(c, http.StatusOK, item)
}

// DeleteMedia DELETE /api/media/:id
func (h *Handler) DeleteMedia(c *gin.Context) {
	item, err := h.MediaService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		failMedia(c, err, "error.media_delete_failed")
		return
	}
	response.Item(c, http.StatusOK, item)
}

// PatchMedia PATCH /api/media/:id
func (h *Handler) PatchMedia(c *gin.Context) {
	var req mediaPatchPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badMediaRequest(c)
		return
	}
	item, err := h.MediaService.Patch(c.Request.Context(), c.Param("id"), service.MediaPatchInput{
		Filename: req.Filename,
		Alt:      req.Alt,
		Tags:     req.Tags,
		Folder:   req.Folder,
	})
	if err != nil {
		failMedia(c, err, "error.media_update_failed")
		return
	}
	response.Item(c, http.StatusOK, item)
}

// ListCloudinaryMedia GET /api/media/cloudinary，直接列出远端资源
func (h *Handler) ListCloudinaryMedia(c *gin.Context) {
	maxResults, _ := strconv.Atoi(c.DefaultQuery("max_results", "0"))
	objects, err := h.MediaService.ListRemote(c.Request.Context(), strings.TrimSpace(c.Query("folder")), maxResults)
	if err != nil {
		failMedia(c, err, "error.media_fetch_failed")
		return
	}
	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		items = append(items, gin.H{
			"public_id":  obj.PublicID,
			"url":        obj.URL,
			"filename":   obj.Filename,
			"format":     obj.Format,
			"bytes":      obj.Bytes,
			"width":      obj.Width,
			"height":     obj.Height,
			"folder":     obj.Folder,
			"created_at": obj.CreatedAt,
		})
	}
	response.Items(c, http.StatusOK, items)
}

// SyncCloudinaryMedia POST /api/media/cloudinary，async=true 时投递后台任务
func (h *Handler) SyncCloudinaryMedia(c *gin.Context) {
	var req mediaSyncPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badMediaRequest(c)
			return
		}
	}
	folder := strings.TrimSpace(req.Folder)
	if req.Async && h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.MediaService.ScheduleCloudinarySync(folder, "admin:"+currentUsername(c)); err != nil {
			failMedia(c, err, "error.media_sync_failed")
			return
		}
		response.Items(c, http.StatusAccepted, []interface{}{})
		return
	}
	imported, err := h.MediaService.SyncCloudinary(c.Request.Context(), folder)
	if err != nil {
		failMedia(c, err, "error.media_sync_failed")
		return
	}
	response.Items(c, http.StatusOK, imported)
}

// DeleteCloudinaryMedia DELETE /api/media/cloudinary，body {public_ids:[...]}
func (h *Handler) DeleteCloudinaryMedia(c *gin.Context) {
	var req mediaPublicIDsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badMediaRequest(c)
		return
	}
	deleted, err := h.MediaService.DeleteRemote(c.Request.Context(), req.PublicIDs)
	if err != nil {
		failMedia(c, err, "error.media_delete_failed")
		return
	}
	response.Items(c, http.StatusOK, deleted)
}

// ListMediaMetadata GET /api/media/firestore，只读元数据表
func (h *Handler) ListMediaMetadata(c *gin.Context) {
	h.ListMedia(c)
}

// CreateMediaMetadata POST /api/media/firestore，客户端直传后回写元数据
func (h *Handler) CreateMediaMetadata(c *gin.Context) {
	var req mediaMetadataPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badMediaRequest(c)
		return
	}
	item, err := h.MediaService.CreateMetadata(c.Request.Context(), req.toInput())
	if err != nil {
		failMedia(c, err, "error.media_save_failed")
		return
	}
	response.Item(c, http.StatusCreated, item)
}

// UpdateMediaMetadata PUT /api/media/firestore，按 body.id 覆盖元数据
func (h *Handler) UpdateMediaMetadata(c *gin.Context) {
	var req mediaMetadataPayload
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		badMediaRequest(c)
		return
	}
	item, err := h.MediaService.UpdateMetadata(c.Request.Context(), req.toInput())
	if err != nil {
		failMedia(c, err, "error.media_save_failed")
		return
	}
	response.Item(c, http.StatusOK, item)
}

// DeleteMediaMetadata DELETE /api/media/firestore，只删元数据不动存储侧
func (h *Handler) DeleteMediaMetadata(c *gin.Context) {
	var req mediaIDsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badMediaRequest(c)
		return
	}
	deleted, err := h.MediaService.DeleteMetadata(c.Request.Context(), req.IDs)
	if err != nil {
		failMedia(c, err, "error.media_delete_failed")
		return
	}
	response.Items(c, http.StatusOK, deleted)
}

// splitMediaTags 兼容 tags=a,b 与多个 tags 字段
func splitMediaTags(values []string) []string {
	tags := make([]string, 0, len(values))
	for _, value := range values {
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
