package v1

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
)

const (
	userIDCtxKey = "user_id"
	userCtxKey   = "current_user"
)

// HandleAuthMiddleware extracts the access token (cookie first, bearer
// header as the legacy fallback), verifies it and resolves the subject
// to a live user record, which it attaches to the request context.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	token, err := c.Cookie(accessTokenCookie)
	if err != nil || token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		h.logger.Warn().Msg("no access token provided")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	userID, err := h.auth.ParseAccessToken(token)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse access token")
		h.abort(c, newUnauthorizedError("Not authorized, invalid token"))
		return
	}

	user, err := h.auth.UserByID(c, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// A well-signed token for a deleted user is still stale.
			h.logger.Warn().
				Str("user_id", userID).
				Msg("token subject no longer exists")
			h.abort(c, newUnauthorizedError("User not found"))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to resolve token subject")
		h.abort(c, newServerError(err))
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Set(userCtxKey, user)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func currentUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(userIDCtxKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userCtxKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
