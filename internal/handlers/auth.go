package handlers

import (
	"errors"
	"net/http"

	"interview-coach/internal/repository"
	"interview-coach/internal/services"
	"interview-coach/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	log  *zap.Logger
	auth Authenticator
}

func NewAuthHandler(log *zap.Logger, auth Authenticator) *AuthHandler {
	return &AuthHandler{log: log, auth: auth}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// bindCredentials reads credentials from the JSON body, falling back to the
// username/password headers older clients send.
func bindCredentials(c *gin.Context) credentials {
	var creds credentials
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&creds)
	}
	if creds.Username == "" {
		creds.Username = c.GetHeader("username")
	}
	if creds.Password == "" {
		creds.Password = c.GetHeader("password")
	}
	return creds
}

func (h *AuthHandler) Signup(c *gin.Context) {
	creds := bindCredentials(c)
	if creds.Username == "" || creds.Password == "" {
		respondError(c, http.StatusBadRequest, "Username and password are required")
		return
	}
	if !utils.IsValidUsername(creds.Username) {
		respondError(c, http.StatusBadRequest, "Username must be 3-32 letters, digits, '.', '_' or '-'")
		return
	}
	if !utils.IsComplexPassword(creds.Password) {
		respondError(c, http.StatusBadRequest, "Password must be at least 8 characters with upper and lower case letters, a digit and a symbol")
		return
	}

	if err := h.auth.Signup(c.Request.Context(), creds.Username, creds.Password); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			respondError(c, http.StatusConflict, "User already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"mes": true, "message": "Sign-up successful"})
}

func (h *AuthHandler) Signin(c *gin.Context) {
	creds := bindCredentials(c)
	if creds.Username == "" || creds.Password == "" {
		respondError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, err := h.auth.Signin(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.log.Error("Sign-in failed", zap.String("username", creds.Username), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"mes": "true", "jwttoken": token})
}
