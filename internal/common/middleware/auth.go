package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	rediscache "pronet-backend/internal/cache/redis"
	"pronet-backend/internal/common/errors"
	"pronet-backend/internal/common/logger"
	"pronet-backend/internal/features/user/models"
	userservice "pronet-backend/internal/features/user/service"
	"pronet-backend/internal/platform/identity"
)

// ContextUserKey is where the authenticated caller is stored on the gin
// context.
const ContextUserKey = "authUser"

// Auth resolves the bearer token to a local user and attaches it to the
// request context. The token cache short-circuits the userinfo round trip;
// cache failures degrade to a verifier call, never to a rejected request.
func Auth(verifier identity.Verifier, cache *rediscache.TokenCache, users userservice.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Error(errors.New(errors.ErrCodeAuthentication, errors.MsgMissingAccessToken))
			c.Abort()
			return
		}

		if cache != nil {
			cached, err := cache.Get(c.Request.Context(), token)
			if err != nil {
				logger.Warn().Err(err).Msg("Token cache read failed")
			} else if cached != nil {
				c.Set(ContextUserKey, cached)
				c.Next()
				return
			}
		}

		info, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		user, err := users.GetOrCreateByIdentity(c.Request.Context(), info)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		if cache != nil {
			if err := cache.Set(c.Request.Context(), token, user); err != nil {
				logger.Warn().Err(err).Msg("Token cache write failed")
			}
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated caller attached by Auth.
func CurrentUser(c *gin.Context) (*models.AuthUser, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.AuthUser)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
