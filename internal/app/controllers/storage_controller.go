package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/pkg/filestorage"
)

// StorageController serves signed downloads from the local object store
type StorageController struct {
	store  *filestorage.LocalStorage
	logger zerolog.Logger
}

// NewStorageController creates a new StorageController
func NewStorageController(store *filestorage.LocalStorage, logger zerolog.Logger) *StorageController {
	return &StorageController{store: store, logger: logger}
}

// Download streams an object when its token matches the key
// @Summary Download a stored certificate
// @Description Target of the signed URLs issued by the local storage driver
// @Tags storage
// @Produce application/pdf,image/jpeg
// @Param bucket path string true "Bucket"
// @Param key path string true "Object key"
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {string} string "Invalid or expired signature"
// @Failure 404 {string} string "Not found"
// @Router /storage/{bucket}/{key} [get]
func (c *StorageController) Download(ctx *gin.Context) {
	if ctx.Param("bucket") != c.store.Bucket() {
		ctx.String(http.StatusNotFound, "Not found")
		return
	}

	key := strings.TrimPrefix(ctx.Param("key"), "/")
	if err := c.store.VerifyToken(key, ctx.Query("token")); err != nil {
		c.logger.Warn().Str("key", key).Msg("Rejected storage download")
		ctx.String(http.StatusForbidden, "Invalid or expired signature")
		return
	}

	path, err := c.store.GetFullPath(key)
	if err != nil {
		ctx.String(http.StatusNotFound, "Not found")
		return
	}

	ctx.Header("Cache-Control", "private, no-store")
	ctx.File(path)
}
