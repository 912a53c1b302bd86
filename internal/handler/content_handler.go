package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// contentView 是内容块对外输出的 JSON 结构，附带渲染后的 HTML 与图片地址。
type contentView struct {
	db.Content
	ContentHTML string  `json:"contentHtml"`
	ImageURL    *string `json:"imageUrl"`
}

// contentRequest 对应 JSON 创建/更新请求，imageData 为 base64 编码。
type contentRequest struct {
	Section     string `json:"section"`
	Subtype     string `json:"subtype"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Subtitle    string `json:"subtitle"`
	ButtonText1 string `json:"buttonText1"`
	ButtonURL1  string `json:"buttonUrl1"`
	ButtonText2 string `json:"buttonText2"`
	ButtonURL2  string `json:"buttonUrl2"`
	Date        string `json:"date"`
	Link        string `json:"link"`
	Published   *bool  `json:"published"`
	ImageData   []byte `json:"imageData"`
	ImageType   string `json:"imageType"`
}

// contentForm 对应 multipart 表单创建请求，图片字段为 imageFile。
type contentForm struct {
	Section     string `form:"section"`
	Subtype     string `form:"subtype"`
	Title       string `form:"title"`
	Content     string `form:"content"`
	Subtitle    string `form:"subtitle"`
	ButtonText1 string `form:"buttonText1"`
	ButtonURL1  string `form:"buttonUrl1"`
	ButtonText2 string `form:"buttonText2"`
	ButtonURL2  string `form:"buttonUrl2"`
	Date        string `form:"date"`
	Link        string `form:"link"`
	Published   *bool  `form:"published"`
}

func (r contentRequest) input() service.ContentInput {
	return service.ContentInput{
		Section:     r.Section,
		Subtype:     r.Subtype,
		Title:       r.Title,
		Content:     r.Content,
		Subtitle:    r.Subtitle,
		ButtonText1: r.ButtonText1,
		ButtonURL1:  r.ButtonURL1,
		ButtonText2: r.ButtonText2,
		ButtonURL2:  r.ButtonURL2,
		Date:        r.Date,
		Link:        r.Link,
		Published:   r.Published,
		ImageData:   r.ImageData,
		ImageType:   r.ImageType,
	}
}

func (f contentForm) input() service.ContentInput {
	return service.ContentInput{
		Section:     f.Section,
		Subtype:     f.Subtype,
		Title:       f.Title,
		Content:     f.Content,
		Subtitle:    f.Subtitle,
		ButtonText1: f.ButtonText1,
		ButtonURL1:  f.ButtonURL1,
		ButtonText2: f.ButtonText2,
		ButtonURL2:  f.ButtonURL2,
		Date:        f.Date,
		Link:        f.Link,
		Published:   f.Published,
	}
}

func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

func (a *API) newContentView(content db.Content) contentView {
	view := contentView{Content: content}
	if rendered, err := renderMarkdown(content.Content); err == nil {
		view.ContentHTML = rendered
	} else {
		a.log.Warn("markdown render failed", "contentId", content.ID, "error", err)
	}
	if content.HasImage() {
		url := fmt.Sprintf("/api/content/image/%d", content.ID)
		view.ImageURL = &url
	}
	return view
}

func (a *API) newContentViews(items []db.Content) []contentView {
	views := make([]contentView, 0, len(items))
	for _, item := range items {
		views = append(views, a.newContentView(item))
	}
	return views
}

// GetPublishedContent 返回全部已发布内容。
func (a *API) GetPublishedContent(c *gin.Context) {
	items, err := a.contents.GetPublished(c.Request.Context())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentViews(items))
}

// GetContentBySection 返回某个分区下已发布的内容。
func (a *API) GetContentBySection(c *gin.Context) {
	items, err := a.contents.GetBySection(c.Request.Context(), c.Param("section"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentViews(items))
}

// GetSingleContentBySection 返回分区内最新的一条已发布内容，没有时返回 204。
func (a *API) GetSingleContentBySection(c *gin.Context) {
	content, err := a.contents.GetSingleBySection(c.Request.Context(), c.Param("section"))
	if err != nil {
		if isNotFound(err) {
			c.Status(http.StatusNoContent)
			return
		}
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentView(*content))
}

// GetUpcomingContent 返回最近的活动、讲座与社交动态。
func (a *API) GetUpcomingContent(c *gin.Context) {
	items, err := a.contents.GetUpcoming(c.Request.Context())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentViews(items))
}

// GetContentImage 输出内容块的图片字节。
func (a *API) GetContentImage(c *gin.Context) {
	id, ok := a.parseIDParam(c)
	if !ok {
		return
	}

	data, imageType, err := a.contents.Image(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.Status(http.StatusNotFound)
			return
		}
		a.respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline")
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, imageType, data)
}

// ListAllContent 返回全部内容，包括未发布的。
func (a *API) ListAllContent(c *gin.Context) {
	items, err := a.contents.GetAll(c.Request.Context())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentViews(items))
}

// GetContent 按 ID 查询内容。
func (a *API) GetContent(c *gin.Context) {
	id, ok := a.parseIDParam(c)
	if !ok {
		return
	}
	content, err := a.contents.GetByID(c.Request.Context(), id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentView(*content))
}

// CreateContent 通过 JSON 创建内容，请求中的 id 会被忽略。
func (a *API) CreateContent(c *gin.Context) {
	var req contentRequest
	if !bindJSON(c, &req, a.message(c, msgInvalidBody)) {
		return
	}
	content, err := a.contents.Create(c.Request.Context(), req.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentView(*content))
}

// CreateContentWithImage 通过 multipart 表单创建内容，图片会先压缩。
func (a *API) CreateContentWithImage(c *gin.Context) {
	var form contentForm
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, a.message(c, msgInvalidBody))
		return
	}

	var raw []byte
	if file, err := c.FormFile("imageFile"); err == nil {
		raw, err = a.readUpload(file)
		if err != nil {
			a.respondServiceError(c, err)
			return
		}
	}

	content, err := a.contents.CreateWithImage(c.Request.Context(), form.input(), raw)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentView(*content))
}

// UpdateContent 全量覆盖内容字段，未提供 imageData 时保留原图。
func (a *API) UpdateContent(c *gin.Context) {
	id, ok := a.parseIDParam(c)
	if !ok {
		return
	}
	var req contentRequest
	if !bindJSON(c, &req, a.message(c, msgInvalidBody)) {
		return
	}

	content, err := a.contents.Update(c.Request.Context(), id, req.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.newContentView(*content))
}

// DeleteContent 删除内容，不存在的 ID 同样返回 204。
func (a *API) DeleteContent(c *gin.Context) {
	id, ok := a.parseIDParam(c)
	if !ok {
		return
	}
	if err := a.contents.Delete(c.Request.Context(), id); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// readUpload 读取上传文件，最多读取上限加一个字节以便识别超限。
func (a *API) readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, a.imageLimit+1))
}
