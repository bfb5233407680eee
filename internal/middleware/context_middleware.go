package middleware

import (
	"strings"

	"formgate/internal/config"
	"formgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ContextMiddleware resolves the Authorization header into a UserContext
// so downstream controllers and strategies know who is calling. Requests
// without a valid bearer token get an anonymous context, enforcement
// happens where it matters.
type ContextMiddleware struct {
	Auth *service.AuthService
}

func NewContextMiddleware(auth *service.AuthService) *ContextMiddleware {
	return &ContextMiddleware{
		Auth: auth,
	}
}

func (m *ContextMiddleware) Init() error {
	return nil
}

func (m *ContextMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userContext := config.UserContext{}

		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			verified, err := m.Auth.VerifySessionToken(token)
			if err != nil {
				log.Debug().Err(err).Msg("Rejected bearer token")
			} else {
				userContext = verified
			}
		}

		c.Set("context", &userContext)
		c.Next()
	}
}

// GetUserContext pulls the resolved context back out of gin.
func GetUserContext(c *gin.Context) config.UserContext {
	value, exists := c.Get("context")
	if !exists {
		return config.UserContext{}
	}
	userContext, ok := value.(*config.UserContext)
	if !ok {
		return config.UserContext{}
	}
	return *userContext
}
