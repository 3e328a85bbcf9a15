package handler

import (
	"io"
	"net/http"

	"github.com/bitfantasy/ppwr/internal/packaging/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler 合规文档处理器
type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload POST /packaging/:id/documents
// multipart: file, type, name(可选)
func (h *DocumentHandler) Upload(c *gin.Context) {
	var req service.UploadDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, bindingMessage(err))
		return
	}

	var upload *service.UploadedFile
	header, err := c.FormFile("file")
	if err != nil && err != http.ErrMissingFile {
		BadRequest(c, "Invalid file upload")
		return
	}
	if header != nil {
		f, err := header.Open()
		if err != nil {
			BadRequest(c, "Invalid file upload")
			return
		}
		defer f.Close()

		// 多读一个字节用于判断超限
		data, err := io.ReadAll(io.LimitReader(f, service.MaxDocumentSize+1))
		if err != nil {
			BadRequest(c, "Failed to read uploaded file")
			return
		}
		upload = &service.UploadedFile{
			Name:     header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		}
	}

	doc, err := h.svc.Upload(c.Request.Context(), c.Param("id"), &req, upload)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, "Document uploaded successfully", doc)
}

// Delete DELETE /packaging/documents/:documentId
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("documentId")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Document deleted successfully", nil)
}
