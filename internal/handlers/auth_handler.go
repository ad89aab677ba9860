package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/services"
)

type RegisterRequest struct {
	Name            string      `json:"name" binding:"required,min=3,max=30"`
	Email           string      `json:"email" binding:"required,email"`
	Password        string      `json:"password" binding:"required,max=72"`
	ConfirmPassword string      `json:"confirmPassword" binding:"omitempty,eqfield=Password"`
	Role            models.Role `json:"role"`
}

type RegisterAdminRequest struct {
	Name            string `json:"name" binding:"required,min=3,max=30"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"omitempty,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

type ConfirmResetRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// Register creates a user account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"result":        res.User,
	})
}

func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req RegisterAdminRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	res, err := h.Auth.RegisterAdmin(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	tokens(c, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	tokens(c, res)
}

// AdminLogin signs in a system administrator.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	res, err := h.Auth.AdminLogin(ctx, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	tokens(c, res)
}

// Refresh exchanges a whitelisted refresh token for a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	tokens(c, res)
}

func (h *Handler) Logout(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req RefreshRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, who, req.RefreshToken); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	if err := h.Auth.ForgotPassword(ctx, req.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If the email is registered, reset instructions have been sent",
	})
}

// ResetPassword changes the caller's password and signs out every device.
func (h *Handler) ResetPassword(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, who, req.Password, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ConfirmReset(c *gin.Context) {
	var req ConfirmResetRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	if err := h.Auth.ConfirmReset(ctx, req.Token, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func tokens(c *gin.Context, res *services.AuthResult) {
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
	})
}
