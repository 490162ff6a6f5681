package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// AuthHandler serves signup, login and the owner's own account.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup registers a pending owner.
func (h *AuthHandler) Signup(c *gin.Context) {
	var body service.SignupInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	result, errSignup := h.auth.Signup(c.Request.Context(), body)
	if errSignup != nil {
		respond.Error(c, errSignup)
		return
	}
	out := gin.H{"user": views.User(result.User)}
	if result.Restaurant != nil {
		out["restaurant"] = views.Restaurant(*result.Restaurant)
	}
	c.JSON(http.StatusCreated, out)
}

// Login issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body service.LoginInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	result, errLogin := h.auth.Login(c.Request.Context(), body)
	if errLogin != nil {
		respond.Error(c, errLogin)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      views.User(result.User),
	})
}

// Me returns the caller and their restaurant.
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	result, errMe := h.auth.Me(c.Request.Context(), user.ID)
	if errMe != nil {
		respond.Error(c, errMe)
		return
	}
	out := gin.H{"user": views.User(result.User), "restaurant": nil}
	if result.Restaurant != nil {
		out["restaurant"] = views.Restaurant(*result.Restaurant)
	}
	c.JSON(http.StatusOK, out)
}

// MFAHandler manages the optional TOTP second factor.
type MFAHandler struct {
	auth *service.AuthService
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(auth *service.AuthService) *MFAHandler {
	return &MFAHandler{auth: auth}
}

// Status reports whether TOTP is enabled.
func (h *MFAHandler) Status(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"totpEnabled": user.HasTOTP()})
}

// PrepareTOTP returns a fresh secret and its otpauth URL.
func (h *MFAHandler) PrepareTOTP(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	enrollment, errPrepare := h.auth.PrepareTOTP(c.Request.Context(), user.ID)
	if errPrepare != nil {
		respond.Error(c, errPrepare)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": enrollment.Secret, "url": enrollment.URL})
}

type confirmTOTPRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// ConfirmTOTP enables TOTP once the code matches the prepared secret.
func (h *MFAHandler) ConfirmTOTP(c *gin.Context) {
	var body confirmTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errConfirm := h.auth.ConfirmTOTP(c.Request.Context(), user.ID, body.Secret, body.Code); errConfirm != nil {
		respond.Error(c, errConfirm)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type disableTOTPRequest struct {
	Code string `json:"code"`
}

// DisableTOTP turns the second factor off after a valid code.
func (h *MFAHandler) DisableTOTP(c *gin.Context) {
	var body disableTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errDisable := h.auth.DisableTOTP(c.Request.Context(), user.ID, body.Code); errDisable != nil {
		respond.Error(c, errDisable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
