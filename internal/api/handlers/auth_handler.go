package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/auth"
	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

// refreshCookieName is the cookie carrying the refresh token.
const refreshCookieName = "jwt"

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	cfg            *config.Config
	userService    services.IUserService
	googleVerifier auth.GoogleVerifier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, userService services.IUserService, googleVerifier auth.GoogleVerifier) *AuthHandler {
	return &AuthHandler{
		cfg:            cfg,
		userService:    userService,
		googleVerifier: googleVerifier,
	}
}

// issueTokens mints an access token for the response body and sets the
// refresh cookie. The cookie is HttpOnly and SameSite strict; Secure is on
// outside development so local HTTP setups keep working.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (string, error) {
	accessToken, err := auth.GenerateToken(user.ID.Hex(), h.cfg.JwtAccessSecret, h.cfg.AccessTokenTTL)
	if err != nil {
		return "", err
	}
	refreshToken, err := auth.GenerateToken(user.ID.Hex(), h.cfg.JwtRefreshSecret, h.cfg.RefreshTokenTTL)
	if err != nil {
		return "", err
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refreshToken,
		int(h.cfg.RefreshTokenTTL.Seconds()), "/", "", h.cfg.IsProduction(), true)
	return accessToken, nil
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, valid email and a password of at least 8 characters are required"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	token, err := h.issueTokens(c, user)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	token, err := h.issueTokens(c, user)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

type googleLoginRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// GoogleLogin handles POST /api/auth/google. The credential is a Google ID
// token from the browser's sign-in flow.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google credential is required"})
		return
	}

	claims, err := h.googleVerifier.Verify(c.Request.Context(), req.Credential)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google credential"})
		return
	}

	user, err := h.userService.FindOrCreateGoogleUser(c.Request.Context(),
		claims.Subject, claims.Email, claims.Name, claims.Picture)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	token, err := h.issueTokens(c, user)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Refresh handles POST /api/auth/refresh. The refresh token is not rotated;
// the cookie keeps its original expiry.
func (h *AuthHandler) Refresh(c *gin.Context) {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token missing"})
		return
	}

	claims, err := auth.ValidateToken(cookie, h.cfg.JwtRefreshSecret)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	accessToken, err := auth.GenerateToken(claims.UserID, h.cfg.JwtAccessSecret, h.cfg.AccessTokenTTL)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": accessToken})
}

// Logout handles POST /api/auth/logout by expiring the refresh cookie.
// The tokens themselves remain valid until expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Avatar   *string `json:"avatar"`
}

// UpdateProfile handles PUT /api/auth/profile. A fresh access token is
// issued because profile changes may alter what the client displays.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile payload"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	user := middleware.CurrentUser(c)
	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, updates)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	token, err := h.issueTokens(c, updated)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated, "token": token})
}

// UpgradeToAgent handles POST /api/auth/upgrade-agent.
func (h *AuthHandler) UpgradeToAgent(c *gin.Context) {
	user := middleware.CurrentUser(c)
	upgraded, err := h.userService.UpgradeToAgent(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": upgraded})
}
