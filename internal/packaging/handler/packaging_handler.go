package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/ppwr/internal/packaging/service"
	"github.com/gin-gonic/gin"
)

// PackagingHandler 包装项处理器
type PackagingHandler struct {
	svc *service.PackagingService
}

func NewPackagingHandler(svc *service.PackagingService) *PackagingHandler {
	return &PackagingHandler{svc: svc}
}

// List GET /packaging
func (h *PackagingHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Packaging items retrieved", items)
}

// Get GET /packaging/:id
func (h *PackagingHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Packaging item retrieved", item)
}

// Create POST /packaging
func (h *PackagingHandler) Create(c *gin.Context) {
	var req service.PackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindingMessage(err))
		return
	}

	item, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, "Packaging item created successfully", item)
}

// Update PUT /packaging/:id
func (h *PackagingHandler) Update(c *gin.Context) {
	var req service.PackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindingMessage(err))
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Packaging item updated successfully", item)
}

// Delete DELETE /packaging/:id
func (h *PackagingHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Packaging item deleted successfully", nil)
}

// Export GET /packaging/export
func (h *PackagingHandler) Export(c *gin.Context) {
	f, err := h.svc.Export(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("packaging_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}
