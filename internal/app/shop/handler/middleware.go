package handler

import (
	"net/http"
	"strings"

	"lotusmart/internal/app/shop/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ContextUserID  = "user_id"
	ContextIsStaff = "is_staff"
)

// AuthMiddleware проверяет JWT access-токены внешнего identity provider.
// Из claims извлекаются user_id (sub или user_id) и признак is_staff
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate требует валидный Bearer-токен.
// При успехе кладет user_id и is_staff в контекст запроса
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "authorization header required",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "invalid authorization header format",
			})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "invalid or expired token",
			})
			return
		}

		userID, err := extractUserID(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error: "invalid token claims",
			})
			return
		}

		isStaff := false
		if v, ok := claims["is_staff"].(bool); ok {
			isStaff = v
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextIsStaff, isStaff)
		c.Next()
	}
}

// RequireStaff пропускает только пользователей с is_staff=true.
// Должен стоять после Authenticate
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsStaff) {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.ErrorResponse{
				Error: "staff access required",
			})
			return
		}
		c.Next()
	}
}

// extractUserID достает ID пользователя из claims: сначала sub, потом user_id
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{"sub", "user_id"} {
		if raw, ok := claims[key].(string); ok {
			return uuid.Parse(raw)
		}
	}
	return uuid.Nil, jwt.ErrTokenInvalidClaims
}

// getUserID возвращает ID аутентифицированного пользователя из контекста
func getUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
