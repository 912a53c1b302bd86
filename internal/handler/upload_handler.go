package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/imaging"
)

// UploadImage 压缩上传的图片并直接返回 JPEG 字节，不落库
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, a.message(c, msgImageRequired))
		return
	}

	raw, err := a.readUpload(file)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	compressed, err := a.contents.CompressImage(raw)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, imaging.OutputMIMEType, compressed)
}
