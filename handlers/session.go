package handlers

import (
	"net/http"
	"strconv"

	"travelstore/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes the session cache and password recovery.
type SessionHandler struct {
	Sessions SessionService
	Recovery RecoveryService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionService, recovery RecoveryService) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Recovery: recovery}
}

// GetSessionHandler reports whether a user is signed in. ?force=true skips the memo window.
func (h *SessionHandler) GetSessionHandler(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	c.JSON(http.StatusOK, h.Sessions.CheckStatus(c.Request.Context(), force))
}

// LoginHandler signs a user in.
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": "validation"})
		return
	}
	sess, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Status())
}

// RegisterHandler creates an account and signs it in.
func (h *SessionHandler) RegisterHandler(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": "validation"})
		return
	}
	sess, err := h.Sessions.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.Status())
}

// LogoutHandler signs the user out. The local session is torn down even when
// the auth service cannot be reached.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context()); err != nil {
		getLogger(c).Error("Logout left credentials behind", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signed out, but stored credentials could not be cleared"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// UpdateProfileHandler applies a partial profile update.
func (h *SessionHandler) UpdateProfileHandler(c *gin.Context) {
	var patch models.UserUpdateRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": "validation"})
		return
	}
	user, err := h.Sessions.UpdateProfile(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// ForgotPasswordHandler starts password recovery.
func (h *SessionHandler) ForgotPasswordHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	if err := h.Recovery.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the address is registered, a reset link is on its way."})
}

// ResetPasswordHandler completes password recovery.
func (h *SessionHandler) ResetPasswordHandler(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	if err := h.Recovery.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been successfully reset. Please sign in with your new password."})
}
