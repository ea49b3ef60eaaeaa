package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/codevault/internal/api/auth"
	"github.com/jon4hz/codevault/internal/api/models"
	coreauth "github.com/jon4hz/codevault/internal/auth"
)

const invalidCredentialsMessage = "Invalid credentials"

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("Failed to bind login request", "error", err)
	}
	req.Username = strings.TrimSpace(req.Username)

	if verr := validateLogin(req); verr != nil {
		c.JSON(http.StatusUnprocessableEntity, verr)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Username, req.AccessKey, req.Device)
	if err != nil {
		if errors.Is(err, coreauth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ValidationError{
				Message: invalidCredentialsMessage,
				Errors:  map[string][]string{"username": {invalidCredentialsMessage}},
			})
			return
		}
		log.Error("Failed to log in", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Server Error"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		User:  models.ToUser(user),
		Token: token,
	})
}

// User returns the owner of the presented token, or 401 with a null body.
func (h *Handler) User(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, nil)
		return
	}
	c.JSON(http.StatusOK, models.ToUser(user))
}

// Logout revokes the token that authenticated the request.
func (h *Handler) Logout(c *gin.Context) {
	err := h.auth.Logout(c.Request.Context(), auth.CurrentToken(c))
	if err != nil {
		if errors.Is(err, coreauth.ErrUnauthenticated) {
			auth.Unauthenticated(c)
			return
		}
		log.Error("Failed to log out", "error", err)
		c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Server Error"})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

func validateLogin(req models.LoginRequest) *models.ValidationError {
	errs := make(map[string][]string)
	var fields []string
	if req.Username == "" {
		errs["username"] = []string{"The username field is required."}
		fields = append(fields, "username")
	}
	if req.AccessKey == "" {
		errs["accessKey"] = []string{"The access key field is required."}
		fields = append(fields, "accessKey")
	}
	if len(fields) == 0 {
		return nil
	}

	message := errs[fields[0]][0]
	if len(fields) > 1 {
		message = fmt.Sprintf("%s (and %d more error)", message, len(fields)-1)
	}
	return &models.ValidationError{Message: message, Errors: errs}
}
