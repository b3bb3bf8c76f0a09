package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
)

const accessTokenCookie = "token"

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleSignup(c *gin.Context) {
	var req signupRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		h.abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("signup request")

	user, err := h.auth.Register(c, services.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			h.abort(c, newConflictError("User with this email already exists"))
		default:
			h.abort(c, newServerError(err))
		}
		return
	}

	if !h.issueSessionCookie(c, user.ID) {
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		h.abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.auth.Login(c, services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		// Which half failed stays private.
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			h.abort(c, newUnauthorizedError("Invalid email or password"))
		default:
			h.abort(c, newServerError(err))
		}
		return
	}

	if !h.issueSessionCookie(c, user.ID) {
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	clearSessionCookie(c)

	userID, _ := currentUserID(c)
	h.logger.Info().
		Str("user_id", userID).
		Msg("logged out")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *handlerImpl) HandleMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// issueSessionCookie signs an access token for the user and sets it as
// the same-site http-only session cookie. It aborts with a 500 on
// signing failure and reports whether the caller may proceed.
func (h *handlerImpl) issueSessionCookie(c *gin.Context, userID string) bool {
	token, expiresAt, err := h.auth.IssueAccessToken(userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to issue access token")
		h.abort(c, newServerError(err))
		return false
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, token, maxAge, "/", "", false, true)
	return true
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", false, true)
}
