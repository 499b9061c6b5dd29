package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/pkg/response"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	accounts *Accounts
	jwt      *JWTService
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(accounts *Accounts, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{accounts: accounts, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	acc, err := h.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Info("login rejected", zap.String("username", req.Username), zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, err.Error())
		return
	}

	token, err := h.jwt.Generate(acc.Username, acc.Role)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, Username: acc.Username, Role: acc.Role})
}
