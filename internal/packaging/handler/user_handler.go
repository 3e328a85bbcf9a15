package handler

import (
	"github.com/bitfantasy/ppwr/internal/packaging/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register POST /users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindingMessage(err))
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, "Account created successfully", resp)
}

// Login POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindingMessage(err))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Login successfully", resp)
}

// Get GET /users/:userId
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "User retrieved successfully", user)
}

// List GET /users/all/admin
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "Users retrieved", users)
}

// Update PUT /users/update/:userId
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindingMessage(err))
		return
	}

	user, err := h.svc.Update(c.Request.Context(), c.Param("userId"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "User updated successfully", user)
}

// Delete DELETE /users/:userId
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, "User deleted successfully", nil)
}
